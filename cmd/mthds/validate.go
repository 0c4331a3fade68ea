// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/mthds/mthds/pkg/manifest"

	"github.com/spf13/cobra"
)

func newValidateCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check METHODS.toml against the schema and naming rules",
		Long: `Check METHODS.toml in dir (default: --dir) and list every problem found.
Unlike the other commands, validation never stops at the first error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, manifest.FileName)

			result := manifest.ValidateFile(path)
			if !result.Valid {
				fmt.Fprintf(app.stdout, "%s %s\n", ErrorStyle.Render("✗"), path)
				for _, problem := range result.Errors {
					fmt.Fprintf(app.stdout, "  - %s\n", problem)
				}
				return app.fail(cmd, result.Err(), opts.verbose)
			}

			m := result.Manifest
			fmt.Fprintf(app.stdout, "%s %s %s %s\n", SuccessStyle.Render("✓"), path,
				CmdStyle.Render(m.Address), SubtitleStyle.Render(m.Version))
			if opts.verbose {
				for domain, pipes := range sortedExports(m) {
					fmt.Fprintf(app.stdout, "  %s: %v\n", domain, pipes)
				}
				for _, alias := range m.DependencyAliases() {
					dep := m.Dependencies[alias]
					fmt.Fprintf(app.stdout, "  %s -> %s %s\n", alias, dep.Address, dep.Version)
				}
			}
			return nil
		},
	}
}
