// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mthds/mthds/internal/discovery"
	"github.com/mthds/mthds/internal/issue"

	"github.com/spf13/cobra"
)

var errBadRemote = errors.New("remote must be address@tag")

func newMethodsCommand(app *App, opts *rootOptions) *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "methods [dir]",
		Short: "List the methods of a repository",
		Long: `List the methods of a repository: the root directory and each immediate
subdirectory holding a METHODS.toml. Directories whose name or manifest is
invalid are reported as skipped.

With --remote address@tag, the repository is fetched into the package cache first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				repo discovery.ResolvedRepo
				err  error
			)
			if remote != "" {
				address, tag, ok := strings.Cut(remote, "@")
				if !ok || address == "" || tag == "" {
					return app.fail(cmd, issue.WrapWithContext(errBadRemote, "parse --remote", remote), opts.verbose)
				}
				repo, err = discovery.DiscoverRemote(cmd.Context(), app.Sources(opts.cfg), address, tag)
			} else {
				dir := opts.dir
				if len(args) == 1 {
					dir = args[0]
				}
				repo, err = discovery.DiscoverLocal(dir)
			}
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}

			fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render(repo.RepoName), SubtitleStyle.Render("("+string(repo.SourceKind)+")"))
			for _, m := range repo.Methods {
				fmt.Fprintf(app.stdout, "  %s %-24s %s %s\n", SuccessStyle.Render("✓"), m.Slug,
					CmdStyle.Render(m.Manifest.Address), m.Manifest.Version)
			}
			for _, s := range repo.Skipped {
				fmt.Fprintf(app.stdout, "  %s %s\n", WarningStyle.Render("skipped"), s.Identifier)
				for _, e := range s.Errors {
					fmt.Fprintln(app.stdout, VerboseStyle.Render("      "+e))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "discover a remote repository at address@tag")
	return cmd
}
