// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io/fs"

	"github.com/mthds/mthds/internal/discovery"
	"github.com/mthds/mthds/internal/issue"

	"github.com/spf13/cobra"
)

func newFindManifestCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find-manifest <bundle>",
		Short: "Print the METHODS.toml governing a bundle",
		Long: `Walk up from the bundle's directory to the nearest METHODS.toml, stopping at
the repository root (a directory containing .git).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, m, err := discovery.FindManifest(args[0])
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}
			if m == nil {
				err := issue.NewErrorContext().
					WithOperation("find manifest").
					WithResource(args[0]).
					WithSuggestion(issue.HintCreateManifest).
					Wrap(fmt.Errorf("no METHODS.toml governs this bundle: %w", fs.ErrNotExist)).
					BuildError()
				return app.fail(cmd, err, opts.verbose)
			}
			fmt.Fprintln(app.stdout, path)
			if opts.verbose {
				fmt.Fprintf(app.stdout, "  %s %s\n", CmdStyle.Render(m.Address), m.Version)
			}
			return nil
		},
	}
}
