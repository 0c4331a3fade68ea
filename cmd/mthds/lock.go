// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mthds/mthds/internal/app/install"
	"github.com/mthds/mthds/pkg/lockfile"
	"github.com/mthds/mthds/pkg/resolver"

	"github.com/spf13/cobra"
)

// installOptions maps the global flags and configuration onto install.Options.
func (a *App) installOptions(opts *rootOptions) install.Options {
	o := install.Options{
		Dir:         opts.dir,
		Source:      a.Sources(opts.cfg),
		Concurrency: opts.cfg.Resolver.Concurrency,
	}
	if Version != "dev" {
		o.ToolVersion = strings.TrimPrefix(Version, "v")
	}
	return o
}

func newLockCommand(app *App, opts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve dependencies and write methods.lock",
		Long: `Resolve the dependencies of METHODS.toml with minimal version selection and
write methods.lock. Nothing is written when resolution fails.

With --check, the lock file is compared with a fresh resolution and the command
fails if it is missing or out of date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := app.installOptions(opts)
			o.Check = check

			res, err := install.Lock(cmd.Context(), o)
			if err != nil {
				var drift *lockfile.DriftError
				if errors.As(err, &drift) {
					printChanges(app, drift.Changes)
				}
				return app.fail(cmd, err, opts.verbose)
			}

			switch {
			case check:
				fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+res.LockPath+" is up to date")
			case res.Written:
				printChanges(app, res.Changes)
				fmt.Fprintf(app.stdout, "%s wrote %s (%d package(s))\n",
					SuccessStyle.Render("✓"), res.LockPath, len(res.Lock.Packages))
			default:
				fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+res.LockPath+" is already up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail if methods.lock is missing or out of date instead of writing it")
	return cmd
}

func newInstallCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Fetch the locked dependencies into the package cache",
		Long: `Resolve the dependencies of METHODS.toml, fetching each one into the package
cache, and verify the result against methods.lock. Run 'mthds lock' first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := install.Install(cmd.Context(), app.installOptions(opts))
			if err != nil {
				var drift *lockfile.DriftError
				if errors.As(err, &drift) {
					printChanges(app, drift.Changes)
				}
				return app.fail(cmd, err, opts.verbose)
			}
			for _, dep := range res.Dependencies {
				fmt.Fprintf(app.stdout, "%s %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(dep.Address), dep.Version)
				if opts.verbose {
					fmt.Fprintln(app.stdout, VerboseStyle.Render("    "+dep.PackageRoot))
				}
			}
			fmt.Fprintf(app.stdout, "installed %d package(s)\n", len(res.Dependencies))
			return nil
		},
	}
}

func newDepsCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show the resolved dependency closure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := install.Resolve(cmd.Context(), app.installOptions(opts))
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}
			fmt.Fprintln(app.stdout, TitleStyle.Render(res.Root.Address)+" "+SubtitleStyle.Render(res.Root.Version))
			if len(res.Dependencies) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("  (no dependencies)"))
				return nil
			}
			for _, dep := range res.Dependencies {
				printDependency(app, dep, opts.verbose)
			}
			return nil
		},
	}
}

func printDependency(app *App, dep resolver.ResolvedDependency, verbose bool) {
	source := "git"
	if dep.Local {
		source = "local"
	}
	fmt.Fprintf(app.stdout, "  %-20s %s %s %s\n",
		dep.Alias, CmdStyle.Render(dep.Address), dep.Version, SubtitleStyle.Render("("+source+")"))
	if verbose {
		fmt.Fprintln(app.stdout, VerboseStyle.Render("      constraints: "+strings.Join(dep.Constraints, ", ")))
		fmt.Fprintln(app.stdout, VerboseStyle.Render("      root: "+dep.PackageRoot))
	}
}

func printChanges(app *App, changes []lockfile.Change) {
	for _, c := range changes {
		style := WarningStyle
		switch c.Kind {
		case lockfile.ChangeAdded:
			style = SuccessStyle
		case lockfile.ChangeRemoved:
			style = ErrorStyle
		}
		fmt.Fprintln(app.stdout, "  "+style.Render(c.String()))
	}
}
