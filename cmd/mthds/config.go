// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mthds/mthds/internal/config"
	"github.com/mthds/mthds/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `mthds config` command tree.
func newConfigCommand(app *App, opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mthds configuration",
		Long: `Manage mthds configuration.

Configuration is stored in:
  - Linux: ~/.config/mthds/config.cue
  - macOS: ~/Library/Application Support/mthds/config.cue
  - Windows: %APPDATA%\mthds\config.cue

Any key can be overridden with an MTHDS_ environment variable, for example
MTHDS_GIT_TIMEOUT=2m. MTHDS_PACKAGES_PATH sets the package cache directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			keyStyle := CmdStyle
			valueStyle := SuccessStyle

			fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
			fmt.Fprintln(app.stdout)
			fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("cache_dir"), valueStyle.Render(cfg.CacheDir))
			fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel.String()))
			fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("git.timeout"), valueStyle.Render(cfg.Git.Timeout.String()))
			fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("git.auth_token_env"), valueStyle.Render(strings.Join(cfg.Git.AuthTokenEnv, ", ")))
			fmt.Fprintf(app.stdout, "%s: %s\n", keyStyle.Render("resolver.concurrency"), valueStyle.Render(fmt.Sprint(cfg.Resolver.Concurrency)))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(opts.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return app.fail(cmd, issue.WrapWithOperation(err, "create configuration"), opts.verbose)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath != "" {
				fmt.Fprintln(app.stdout, opts.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}
