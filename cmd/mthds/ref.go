// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/mthds/mthds/internal/app/install"
	"github.com/mthds/mthds/pkg/qualref"

	"github.com/spf13/cobra"
)

func newRefCommand(app *App, opts *rootOptions) *cobra.Command {
	var (
		concept bool
		domain  string
	)

	cmd := &cobra.Command{
		Use:   "ref <ref>",
		Short: "Parse a concept or pipe reference",
		Long: `Parse a reference and report its domain, code and locality.

Pipe references prefixed with a dependency alias ('alias->domain.code') are
resolved against the package in --dir: the alias must be declared in
METHODS.toml and the dependency must export the pipe.`,
		Example: `  mthds ref legal.contracts.extract_clause
  mthds ref --concept legal.ContractClause
  mthds ref --domain legal 'scoring->scoring.compute_score'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]

			if concept {
				return printConceptRef(cmd, app, opts, ref, domain)
			}

			if !qualref.HasCrossPackagePrefix(ref) {
				parsed, err := qualref.ParsePipeRef(ref)
				if err != nil {
					return app.fail(cmd, err, opts.verbose)
				}
				printRef(app, "pipe", "", parsed, domain)
				return nil
			}

			res, err := install.Resolve(cmd.Context(), app.installOptions(opts))
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}
			target, err := res.Scope(domain).ResolvePipe(ref)
			if err != nil {
				return app.fail(cmd, err, opts.verbose)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(ref))
			fmt.Fprintf(app.stdout, "  kind:       pipe\n  dependency: %s\n  domain:     %s\n  code:       %s\n",
				target.Alias, target.Domain, target.Code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&concept, "concept", false, "parse as a concept reference (PascalCase code)")
	cmd.Flags().StringVar(&domain, "domain", "", "domain the reference appears in, for locality")
	return cmd
}

func printConceptRef(cmd *cobra.Command, app *App, opts *rootOptions, ref, domain string) error {
	if qualref.HasCrossPackagePrefix(ref) {
		cross, err := qualref.ParseCrossPackageRef(ref, qualref.KindConcept)
		if err != nil {
			return app.fail(cmd, err, opts.verbose)
		}
		printRef(app, "concept", cross.Alias, cross.Ref, domain)
		return nil
	}
	parsed, err := qualref.ParseConceptRef(ref)
	if err != nil {
		return app.fail(cmd, err, opts.verbose)
	}
	printRef(app, "concept", "", parsed, domain)
	return nil
}

func printRef(app *App, kind, alias string, ref qualref.QualifiedRef, domain string) {
	full := ref.FullRef()
	if alias != "" {
		full = alias + qualref.CrossPackageMarker + full
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(full))
	fmt.Fprintf(app.stdout, "  kind:       %s\n", kind)
	if alias != "" {
		fmt.Fprintf(app.stdout, "  dependency: %s\n", alias)
	}
	d := ref.DomainPath
	if d == "" {
		d = "(unqualified)"
	}
	fmt.Fprintf(app.stdout, "  domain:     %s\n  code:       %s\n", d, ref.LocalCode)
	if domain != "" && alias == "" {
		locality := "external"
		if ref.IsLocalTo(domain) {
			locality = "local"
		}
		fmt.Fprintf(app.stdout, "  locality:   %s to %s\n", locality, domain)
	}
}
