// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// Reasons a version could not be resolved.
const (
	ReasonNoTags        = "no_tags"
	ReasonNoMatch       = "no_match"
	ReasonBadConstraint = "bad_constraint"
)

var (
	// ErrVersionResolution is the sentinel error wrapped by VersionResolutionError.
	ErrVersionResolution = errors.New("version resolution failed")
	// ErrVCS is the sentinel error wrapped by VCSError.
	ErrVCS = errors.New("vcs operation failed")
)

type (
	// VersionResolutionError is returned when no tag can be selected for a constraint.
	VersionResolutionError struct {
		Address    string
		Constraint string
		// Available lists the semantic version tags that were considered.
		Available []string
		Reason    string
	}

	// VCSError wraps a failed network or repository operation.
	VCSError struct {
		Op  string
		URL string
		Err error
		// Retryable is false for unreachable remotes and timeouts: the
		// resolution as a whole fails rather than retrying.
		Retryable bool
	}
)

// Error implements the error interface.
func (e *VersionResolutionError) Error() string {
	subject := ""
	if e.Address != "" {
		subject = " for " + e.Address
	}
	switch e.Reason {
	case ReasonBadConstraint:
		return fmt.Sprintf("invalid version constraint %q%s (use *, X.Y.Z, ^X.Y.Z, ~X.Y.Z or >=X.Y.Z)", e.Constraint, subject)
	case ReasonNoTags:
		return fmt.Sprintf("No version satisfying %q%s: repository has no version tags", e.Constraint, subject)
	default:
		return fmt.Sprintf("No version satisfying %q%s (available: %s)", e.Constraint, subject, strings.Join(e.Available, ", "))
	}
}

// Unwrap returns ErrVersionResolution so callers can use errors.Is for programmatic detection.
func (e *VersionResolutionError) Unwrap() error { return ErrVersionResolution }

// Error implements the error interface.
func (e *VCSError) Error() string {
	return fmt.Sprintf("git %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns both ErrVCS and the underlying cause.
func (e *VCSError) Unwrap() []error { return []error{ErrVCS, e.Err} }
