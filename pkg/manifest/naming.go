// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	snakeCasePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

	// addressPattern: a hostname containing a dot, then at least org/repo.
	addressPattern = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+(/[A-Za-z0-9._-]+){2,}$`)
)

// IsSnakeCase reports whether s is a lower snake_case identifier.
func IsSnakeCase(s string) bool {
	return snakeCasePattern.MatchString(s)
}

// IsValidAddress reports whether address matches host/org/repo[/subpath].
func IsValidAddress(address string) bool {
	if !addressPattern.MatchString(address) {
		return false
	}
	for seg := range strings.SplitSeq(address, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// ValidateSlug checks a method directory name. It returns an empty string when
// the slug is acceptable, or a single human-readable message otherwise.
func ValidateSlug(slug string) string {
	if slug == "" {
		return "method slug must not be empty"
	}
	if !IsSnakeCase(slug) {
		return fmt.Sprintf("method slug %q must be snake_case (lowercase letters, digits and underscores, starting with a letter)", slug)
	}
	return ""
}

// constraintPattern covers the supported constraint grammar: "*", an exact
// version, or a version prefixed with ^, ~ or >=.
var constraintPattern = regexp.MustCompile(`^(\*|(\^|~|>=)?v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?)$`)

// IsValidConstraint reports whether s uses the supported version constraint grammar.
func IsValidConstraint(s string) bool {
	return constraintPattern.MatchString(strings.TrimSpace(s))
}
