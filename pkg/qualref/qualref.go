// SPDX-License-Identifier: MPL-2.0

// Package qualref parses domain-qualified references to pipes and concepts.
//
// A reference is one or more dot-separated segments. The last segment is the
// local code and the segments before it form the domain path:
//
//	summarize                 local pipe, no domain
//	legal.contracts.summarize pipe "summarize" in domain "legal.contracts"
//	legal.Contract            concept "Contract" in domain "legal"
//	scoring->legal.score      pipe "score" in domain "legal" of dependency "scoring"
package qualref

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CrossPackageMarker separates a dependency alias from the reference it qualifies.
const CrossPackageMarker = "->"

// ErrQualifiedRef is the sentinel error wrapped by QualifiedRefError.
var ErrQualifiedRef = errors.New("invalid qualified reference")

var (
	snakeCasePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)
	pascalCasePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// Kind selects the casing rules applied to the local code.
type Kind int

const (
	// KindAny applies only the structural rules.
	KindAny Kind = iota
	// KindConcept requires a PascalCase local code.
	KindConcept
	// KindPipe requires a snake_case local code.
	KindPipe
)

type (
	// QualifiedRef is a parsed reference. An empty DomainPath means the
	// reference is unqualified.
	QualifiedRef struct {
		DomainPath string
		LocalCode  string
	}

	// CrossPackageRef is a reference into a dependency, addressed by the
	// alias the depending manifest gave it.
	CrossPackageRef struct {
		Alias string
		Ref   QualifiedRef
	}

	// QualifiedRefError reports why a reference string was rejected.
	QualifiedRefError struct {
		Ref    string
		Reason string
	}
)

// String returns the kind name used in messages.
func (k Kind) String() string {
	switch k {
	case KindConcept:
		return "concept"
	case KindPipe:
		return "pipe"
	default:
		return "reference"
	}
}

// Error implements the error interface.
func (e *QualifiedRefError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Ref, e.Reason)
}

// Unwrap returns ErrQualifiedRef so callers can use errors.Is for programmatic detection.
func (e *QualifiedRefError) Unwrap() error { return ErrQualifiedRef }

// Parse parses ref applying only the structural rules: no empty string and no
// empty segment.
func Parse(ref string) (QualifiedRef, error) {
	return ParseKind(ref, KindAny)
}

// ParseConceptRef parses a concept reference: PascalCase code, snake_case domain segments.
func ParseConceptRef(ref string) (QualifiedRef, error) {
	return ParseKind(ref, KindConcept)
}

// ParsePipeRef parses a pipe reference: snake_case code, snake_case domain segments.
func ParsePipeRef(ref string) (QualifiedRef, error) {
	return ParseKind(ref, KindPipe)
}

// ParseKind parses ref with the casing rules of kind.
func ParseKind(ref string, kind Kind) (QualifiedRef, error) {
	if ref == "" {
		return QualifiedRef{}, &QualifiedRefError{Ref: ref, Reason: "reference is empty"}
	}
	if strings.HasPrefix(ref, ".") {
		return QualifiedRef{}, &QualifiedRefError{Ref: ref, Reason: "leading dot"}
	}
	if strings.HasSuffix(ref, ".") {
		return QualifiedRef{}, &QualifiedRefError{Ref: ref, Reason: "trailing dot"}
	}

	segments := strings.Split(ref, ".")
	for _, seg := range segments {
		if seg == "" {
			return QualifiedRef{}, &QualifiedRefError{Ref: ref, Reason: "empty segment"}
		}
	}

	code := segments[len(segments)-1]
	domain := segments[:len(segments)-1]

	if kind == KindAny {
		return QualifiedRef{DomainPath: strings.Join(domain, "."), LocalCode: code}, nil
	}

	for _, seg := range domain {
		if !snakeCasePattern.MatchString(seg) {
			return QualifiedRef{}, &QualifiedRefError{
				Ref:    ref,
				Reason: fmt.Sprintf("domain segment %q must be snake_case", seg),
			}
		}
	}
	switch kind {
	case KindConcept:
		if !pascalCasePattern.MatchString(code) {
			return QualifiedRef{}, &QualifiedRefError{
				Ref:    ref,
				Reason: fmt.Sprintf("concept code %q must be PascalCase", code),
			}
		}
	case KindPipe:
		if !snakeCasePattern.MatchString(code) {
			return QualifiedRef{}, &QualifiedRefError{
				Ref:    ref,
				Reason: fmt.Sprintf("pipe code %q must be snake_case", code),
			}
		}
	}

	return QualifiedRef{DomainPath: strings.Join(domain, "."), LocalCode: code}, nil
}

// IsQualified reports whether the reference names a domain.
func (r QualifiedRef) IsQualified() bool { return r.DomainPath != "" }

// IsLocalTo reports whether the reference is unqualified or names exactly domain.
// A parent or child domain does not count.
func (r QualifiedRef) IsLocalTo(domain string) bool {
	return r.DomainPath == "" || r.DomainPath == domain
}

// IsExternalTo is the negation of IsLocalTo.
func (r QualifiedRef) IsExternalTo(domain string) bool { return !r.IsLocalTo(domain) }

// FullRef returns the canonical dotted form.
func (r QualifiedRef) FullRef() string {
	if r.DomainPath == "" {
		return r.LocalCode
	}
	return r.DomainPath + "." + r.LocalCode
}

// String implements fmt.Stringer.
func (r QualifiedRef) String() string { return r.FullRef() }

// HasCrossPackagePrefix reports whether s carries an alias marker. It does not
// validate either side.
func HasCrossPackagePrefix(s string) bool {
	return strings.Contains(s, CrossPackageMarker)
}

// SplitCrossPackageRef splits s into its alias and the remaining reference.
func SplitCrossPackageRef(s string) (alias, remainder string, err error) {
	alias, remainder, found := strings.Cut(s, CrossPackageMarker)
	if !found {
		return "", "", &QualifiedRefError{Ref: s, Reason: fmt.Sprintf("missing %q alias marker", CrossPackageMarker)}
	}
	if alias == "" {
		return "", "", &QualifiedRefError{Ref: s, Reason: "alias before " + CrossPackageMarker + " is empty"}
	}
	if remainder == "" {
		return "", "", &QualifiedRefError{Ref: s, Reason: "reference after " + CrossPackageMarker + " is empty"}
	}
	return alias, remainder, nil
}

// ParseCrossPackageRef parses "alias->domain.code" with the casing rules of kind.
func ParseCrossPackageRef(s string, kind Kind) (CrossPackageRef, error) {
	alias, remainder, err := SplitCrossPackageRef(s)
	if err != nil {
		return CrossPackageRef{}, err
	}
	if !snakeCasePattern.MatchString(alias) {
		return CrossPackageRef{}, &QualifiedRefError{Ref: s, Reason: fmt.Sprintf("alias %q must be snake_case", alias)}
	}
	if HasCrossPackagePrefix(remainder) {
		return CrossPackageRef{}, &QualifiedRefError{Ref: s, Reason: "more than one " + CrossPackageMarker + " marker"}
	}
	ref, err := ParseKind(remainder, kind)
	if err != nil {
		var refErr *QualifiedRefError
		if errors.As(err, &refErr) {
			refErr.Ref = s
		}
		return CrossPackageRef{}, err
	}
	return CrossPackageRef{Alias: alias, Ref: ref}, nil
}

// FullRef returns the canonical "alias->domain.code" form.
func (c CrossPackageRef) FullRef() string {
	return c.Alias + CrossPackageMarker + c.Ref.FullRef()
}

// String implements fmt.Stringer.
func (c CrossPackageRef) String() string { return c.FullRef() }
