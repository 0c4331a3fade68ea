// SPDX-License-Identifier: MPL-2.0

package qualref

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type (
	// ExportLookup answers whether a package exports a pipe.
	// *manifest.Manifest satisfies it.
	ExportLookup interface {
		IsPipeExported(domainPath, code string) bool
	}

	// Scope resolves pipe references as seen from one domain of a package.
	Scope struct {
		// Domain is the dotted domain the references appear in.
		Domain string
		// Dependencies maps dependency aliases to their exports.
		Dependencies map[string]ExportLookup
	}

	// PipeTarget is the pipe a reference points at.
	PipeTarget struct {
		// Alias is set for cross-package targets.
		Alias  string
		Domain string
		Code   string
		// Local is true when the pipe lives in the scope's own domain.
		Local bool
	}
)

// NewScope returns a Scope for domain with the given dependency exports.
func NewScope(domain string, deps map[string]ExportLookup) *Scope {
	return &Scope{Domain: domain, Dependencies: deps}
}

// ResolvePipe resolves a pipe reference. Cross-package references must be
// domain-qualified, name a known alias and point at a pipe that dependency exports.
func (s *Scope) ResolvePipe(ref string) (PipeTarget, error) {
	if !HasCrossPackagePrefix(ref) {
		parsed, err := ParsePipeRef(ref)
		if err != nil {
			return PipeTarget{}, err
		}
		domain := parsed.DomainPath
		if domain == "" {
			domain = s.Domain
		}
		return PipeTarget{Domain: domain, Code: parsed.LocalCode, Local: parsed.IsLocalTo(s.Domain)}, nil
	}

	cross, err := ParseCrossPackageRef(ref, KindPipe)
	if err != nil {
		return PipeTarget{}, err
	}
	if !cross.Ref.IsQualified() {
		return PipeTarget{}, &QualifiedRefError{Ref: ref, Reason: "cross-package reference must name a domain"}
	}
	dep, ok := s.Dependencies[cross.Alias]
	if !ok {
		return PipeTarget{}, &QualifiedRefError{
			Ref:    ref,
			Reason: fmt.Sprintf("unknown dependency alias %q (known: %s)", cross.Alias, s.knownAliases()),
		}
	}
	if !dep.IsPipeExported(cross.Ref.DomainPath, cross.Ref.LocalCode) {
		return PipeTarget{}, &QualifiedRefError{
			Ref:    ref,
			Reason: fmt.Sprintf("dependency %q does not export pipe %q", cross.Alias, cross.Ref.FullRef()),
		}
	}
	return PipeTarget{Alias: cross.Alias, Domain: cross.Ref.DomainPath, Code: cross.Ref.LocalCode}, nil
}

func (s *Scope) knownAliases() string {
	if len(s.Dependencies) == 0 {
		return "none"
	}
	return strings.Join(slices.Sorted(maps.Keys(s.Dependencies)), ", ")
}
