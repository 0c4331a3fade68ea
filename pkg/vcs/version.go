// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mthds/mthds/pkg/manifest"
)

type (
	// VersionTag is a Git tag that parses as a semantic version.
	VersionTag struct {
		Version *semver.Version
		// Raw is the tag name as it appears in the repository, e.g. "v1.2.0".
		Raw string
	}

	// Constraint is a parsed version constraint.
	Constraint struct {
		raw         string
		constraints *semver.Constraints
	}
)

// String returns the version without a "v" prefix.
func (t VersionTag) String() string { return t.Version.String() }

// ParseVersionTags keeps the tags that are semantic versions, with or without
// a "v" prefix, and returns them in ascending version order. When two tags
// name the same version only one is kept.
func ParseVersionTags(tags []string) []VersionTag {
	out := make([]VersionTag, 0, len(tags))
	skipped := 0
	for _, tag := range tags {
		v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v"))
		if err != nil {
			skipped++
			continue
		}
		out = append(out, VersionTag{Version: v, Raw: tag})
	}
	if skipped > 0 {
		slog.Debug("ignored non-semver tags", "count", skipped)
	}

	slices.SortFunc(out, func(a, b VersionTag) int {
		if c := a.Version.Compare(b.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Raw, b.Raw)
	})
	return slices.CompactFunc(out, func(a, b VersionTag) bool {
		return a.Version.Equal(b.Version)
	})
}

// ParseConstraint parses one of the supported constraint forms: "*", "X.Y.Z",
// "^X.Y.Z", "~X.Y.Z" or ">=X.Y.Z". Anything else is a
// *VersionResolutionError with reason bad_constraint.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if !manifest.IsValidConstraint(s) {
		return Constraint{}, &VersionResolutionError{Constraint: s, Reason: ReasonBadConstraint}
	}
	c, err := semver.NewConstraint(caretRange(s))
	if err != nil {
		return Constraint{}, &VersionResolutionError{Constraint: s, Reason: ReasonBadConstraint}
	}
	return Constraint{raw: s, constraints: c}, nil
}

// caretRange rewrites "^0.0.Z" as ">=0.0.Z, <0.1.0". Caret keeps the minor
// version fixed for every 0.x release, whereas semver reads ^0.0.Z as an
// exact patch. Other forms are returned unchanged.
func caretRange(s string) string {
	rest, ok := strings.CutPrefix(s, "^")
	if !ok {
		return s
	}
	v, err := semver.NewVersion(rest)
	if err != nil || v.Major() != 0 || v.Minor() != 0 {
		return s
	}
	return ">=" + rest + ", <0.1.0"
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v *semver.Version) bool {
	return c.constraints != nil && c.constraints.Check(v)
}

// String returns the constraint as written.
func (c Constraint) String() string { return c.raw }

// SelectMinimal returns the smallest tag satisfying c. tags must be sorted
// ascending, as returned by ParseVersionTags.
func SelectMinimal(tags []VersionTag, c Constraint) (VersionTag, bool) {
	for _, tag := range tags {
		if c.Check(tag.Version) {
			return tag, true
		}
	}
	return VersionTag{}, false
}

// ResolveVersion selects the minimal tag of address satisfying constraint.
func ResolveVersion(address string, tags []string, constraint string) (VersionTag, error) {
	c, err := ParseConstraint(constraint)
	if err != nil {
		return VersionTag{}, &VersionResolutionError{Address: address, Constraint: constraint, Reason: ReasonBadConstraint}
	}

	candidates := ParseVersionTags(tags)
	if len(candidates) == 0 {
		return VersionTag{}, &VersionResolutionError{Address: address, Constraint: constraint, Reason: ReasonNoTags}
	}

	selected, ok := SelectMinimal(candidates, c)
	if !ok {
		available := make([]string, len(candidates))
		for i, tag := range candidates {
			available[i] = tag.Raw
		}
		return VersionTag{}, &VersionResolutionError{
			Address:    address,
			Constraint: constraint,
			Available:  available,
			Reason:     ReasonNoMatch,
		}
	}
	return selected, nil
}
