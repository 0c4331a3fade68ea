// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/mthds/mthds/internal/discovery"
	"github.com/mthds/mthds/internal/issue"
	"github.com/mthds/mthds/pkg/bundle"
	"github.com/mthds/mthds/pkg/manifest"

	"github.com/spf13/cobra"
)

func newScanCommand(app *App, opts *rootOptions) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the domains and pipes declared by .mthds bundles",
		Long: `Scan every .mthds bundle under dir and list the domains, main pipes and
pipe codes they declare. With --write, the [exports] table of the nearest
METHODS.toml is replaced with everything found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := bundle.ScanDir(args[0])
			if err != nil {
				return app.fail(cmd, issue.WrapWithContext(err, "scan bundles", args[0]), opts.verbose)
			}

			for _, name := range result.DomainNames() {
				d := result.Domains[name]
				line := TitleStyle.Render(name)
				if d.MainPipe != "" {
					line += " " + SubtitleStyle.Render("(main: "+d.MainPipe+")")
				}
				fmt.Fprintln(app.stdout, line)
				fmt.Fprintln(app.stdout, "  "+strings.Join(d.Pipes, ", "))
			}
			for _, e := range result.Errors {
				fmt.Fprintln(app.stderr, WarningStyle.Render("warning: ")+e)
			}
			if len(result.Errors) > 0 && opts.verbose {
				if rendered, err := issue.Get(issue.BundleScanFailedId).Render(app.issueStyle); err == nil {
					fmt.Fprint(app.stderr, rendered)
				}
			}

			if write {
				return writeExports(cmd, app, opts, args[0], result)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "replace the exports of the nearest METHODS.toml")
	return cmd
}

func writeExports(cmd *cobra.Command, app *App, opts *rootOptions, dir string, result bundle.ScanResult) error {
	path, m, err := discovery.FindManifest(dir)
	if err != nil {
		return app.fail(cmd, err, opts.verbose)
	}
	if m == nil {
		err := issue.NewErrorContext().
			WithOperation("write exports").
			WithResource(dir).
			WithSuggestion(issue.HintCreateManifest).
			Wrap(errors.New("no METHODS.toml found above the bundle directory")).
			BuildError()
		return app.fail(cmd, err, opts.verbose)
	}

	m.Exports = result.Exports()
	if err := manifest.WriteFile(path, m); err != nil {
		return app.fail(cmd, issue.WrapWithContext(err, "write manifest", path), opts.verbose)
	}
	fmt.Fprintf(app.stdout, "%s updated exports in %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

// sortedExports yields the flattened exports of m in domain order.
func sortedExports(m *manifest.Manifest) iter.Seq2[string, []string] {
	exports := m.ExportedPipes()
	return func(yield func(string, []string) bool) {
		for _, domain := range slices.Sorted(maps.Keys(exports)) {
			if !yield(domain, exports[domain]) {
				return
			}
		}
	}
}
