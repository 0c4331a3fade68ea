// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mthds/mthds/internal/config"
	"github.com/mthds/mthds/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the global flags and the configuration they select.
type rootOptions struct {
	verbose    bool
	configPath string
	dir        string

	cfg *config.Config
}

// NewRootCommand builds the mthds command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mthds",
		Short: "Package manager for method bundles",
		Long: TitleStyle.Render("mthds") + SubtitleStyle.Render(" - package manager for method bundles") + `

mthds reads METHODS.toml, resolves dependencies from Git tags with minimal
version selection, and records the result in methods.lock.

` + SubtitleStyle.Render("Examples:") + `
  mthds lock                 Resolve dependencies and write methods.lock
  mthds lock --check         Fail if methods.lock is out of date
  mthds install              Fetch the locked dependencies into the cache
  mthds validate             Check METHODS.toml
  mthds scan ./bundles       List the domains and pipes of .mthds bundles
  mthds ref 'scoring->scoring.compute_score'`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.cfg = app.loadConfig(cmd.Context(), opts)
			setupLogger(app.stderr, opts.cfg, opts.verbose)
			return nil
		},
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/mthds/config.cue)")
	root.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "package directory holding METHODS.toml")

	root.AddCommand(
		newLockCommand(app, opts),
		newInstallCommand(app, opts),
		newDepsCommand(app, opts),
		newValidateCommand(app, opts),
		newScanCommand(app, opts),
		newRefCommand(app, opts),
		newFindManifestCommand(app, opts),
		newMethodsCommand(app, opts),
		newConfigCommand(app, opts),
	)

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			// Commands that already rendered their error return a bare ExitError.
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return
			}
			fang.DefaultErrorHandler(w, styles, err)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig loads configuration, falling back to defaults with a warning so a
// broken config file never blocks read-only commands.
func (a *App) loadConfig(ctx context.Context, opts *rootOptions) *config.Config {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, opts.verbose))
		if opts.verbose {
			if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render(a.issueStyle); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
		return config.DefaultConfig()
	}
	return cfg
}

// setupLogger installs a charmbracelet/log handler as the slog default.
func setupLogger(w io.Writer, cfg *config.Config, verbose bool) {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(string(cfg.LogLevel)); err == nil {
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "mthds",
	})
	slog.SetDefault(slog.New(logger))
}
