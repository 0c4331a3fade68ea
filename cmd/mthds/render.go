// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mthds/mthds/internal/issue"

	"github.com/spf13/cobra"
)

// fail renders err with its originating kind and catalog help, then returns
// an ExitError so fang does not print it a second time.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	renderError(a.stderr, err, verbose)
	a.renderIssue(err)
	cmd.SilenceErrors = true
	return &ExitError{Code: 1, Err: err}
}

// renderError prints "error [kind] message", using the ActionableError format
// when one is in the chain.
func renderError(w io.Writer, err error, verbose bool) {
	prefix := ErrorStyle.Render("error")
	if kind := issue.KindOf(err); kind != issue.KindUnknown {
		prefix += " " + kindStyle.Render("["+string(kind)+"]")
	}

	fmt.Fprintf(w, "%s %s\n", prefix, formatErrorForDisplay(err, verbose))
}

func (a *App) renderIssue(err error) {
	entry := issue.ForError(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(a.issueStyle)
	if renderErr != nil {
		slog.Debug("failed to render issue help", "id", entry.Id(), "error", renderErr)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
