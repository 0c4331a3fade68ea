// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Hints shared by the commands that read or write METHODS.toml and methods.lock.
const (
	HintRunLock        = "Run 'mthds lock' to create or refresh methods.lock"
	HintRegenerateLock = "Delete methods.lock and run 'mthds lock' to regenerate it"
	HintValidate       = "Run 'mthds validate' to list every problem in METHODS.toml"
	HintCreateManifest = "Create METHODS.toml at the package root"
	HintConstraints    = "Relax the version constraint or publish a tag that satisfies it"
	HintConflict       = "Align the version constraints the listed packages place on the dependency"
	HintCredentials    = "Check network access; private repositories need GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN"
	HintReference      = "Write references as domain.code, or alias->domain.code for a dependency"
)

// kindHints are attached to an error whose context gives no hint of its own.
var kindHints = map[ErrorKind][]string{
	KindManifest:          {HintValidate},
	KindValidation:        {HintValidate},
	KindQualifiedRef:      {HintReference},
	KindVersionResolution: {HintConstraints},
	KindPackage:           {HintConflict},
	KindVCS:               {HintCredentials},
	KindLockFile:          {HintRegenerateLock},
	KindLockDrift:         {HintRunLock},
	KindNotFound:          {HintCreateManifest},
}

// HintsFor returns the default hints for the kind of err.
func HintsFor(err error) []string {
	return slices.Clone(kindHints[KindOf(err)])
}

type (
	// ActionableError is a failure as the user sees it: the operation that
	// failed, the manifest, lock file or package it concerned, and what to
	// try next.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("read manifest").
	//		WithResource("./METHODS.toml").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "resolve dependencies".
		Operation string
		// Resource is a path or package address; may be empty.
		Resource    string
		Suggestions []string
		Cause       error
	}

	// ErrorContext builds an ActionableError step by step, so a caller can
	// name the operation before it knows what went wrong.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// WrapWithOperation wraps err with the failed operation. A nil err stays nil.
func WrapWithOperation(err error, operation string) error {
	return WrapWithContext(err, operation, "")
}

// WrapWithContext wraps err with the failed operation and the resource it
// concerned, adding the default hints for its kind. A nil err stays nil.
func WrapWithContext(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation:   operation,
		Resource:    resource,
		Suggestions: HintsFor(err),
		Cause:       err,
	}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error with one "hint:" line per suggestion. Verbose
// output adds the cause chain, innermost last, and the kind it was
// classified as.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	for _, s := range e.Suggestions {
		msg.WriteString("\n  hint: ")
		msg.WriteString(s)
	}

	if !verbose || e.Cause == nil {
		return msg.String()
	}

	msg.WriteString("\n\ncaused by:")
	prev := ""
	for depth, err := 1, e.Cause; err != nil; err = errors.Unwrap(err) {
		// Wrappers that add nothing repeat their cause's message.
		if text := err.Error(); text != prev {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, text)
			prev = text
			depth++
		}
	}
	if kind := KindOf(e.Cause); kind != KindUnknown {
		fmt.Fprintf(&msg, "\n  kind: %s", kind)
	}
	return msg.String()
}

// NewErrorContext starts an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets the verb phrase of what failed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the path or address involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a hint. Hints given here replace the kind defaults.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// BuildError returns the ActionableError. Without an operation there is
// nothing to add, and the cause is returned unchanged.
func (c *ErrorContext) BuildError() error {
	if c.operation == "" {
		return c.cause
	}
	suggestions := c.suggestions
	if len(suggestions) == 0 && c.cause != nil {
		suggestions = HintsFor(c.cause)
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: suggestions,
		Cause:       c.cause,
	}
}
