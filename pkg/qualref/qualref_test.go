// SPDX-License-Identifier: MPL-2.0

package qualref

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Structural(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref        string
		wantDomain string
		wantCode   string
		wantErr    string
	}{
		{ref: "summarize", wantCode: "summarize"},
		{ref: "legal.summarize", wantDomain: "legal", wantCode: "summarize"},
		{ref: "legal.contracts.Clause", wantDomain: "legal.contracts", wantCode: "Clause"},
		{ref: "", wantErr: "empty"},
		{ref: ".legal.x", wantErr: "leading dot"},
		{ref: "legal.x.", wantErr: "trailing dot"},
		{ref: "legal..x", wantErr: "empty segment"},
		{ref: ".", wantErr: "leading dot"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.ref)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Parse(%q) = %+v, want error", tt.ref, got)
				}
				if !errors.Is(err, ErrQualifiedRef) {
					t.Errorf("errors.Is(err, ErrQualifiedRef) = false for %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.ref, err)
			}
			if got.DomainPath != tt.wantDomain || got.LocalCode != tt.wantCode {
				t.Errorf("Parse(%q) = %+v, want domain %q code %q", tt.ref, got, tt.wantDomain, tt.wantCode)
			}
		})
	}
}

func TestParseConceptRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"Contract", false},
		{"legal.Contract", false},
		{"legal.contracts.ClauseV2", false},
		{"legal.contract", true},
		{"legal.Contract_Clause", true},
		{"Legal.Contract", true},
		{"legal-x.Contract", true},
		{"legal..Contract", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			_, err := ParseConceptRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseConceptRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrQualifiedRef) {
				t.Errorf("errors.Is(err, ErrQualifiedRef) = false for %v", err)
			}
		})
	}
}

func TestParsePipeRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"summarize", false},
		{"legal.extract_clause", false},
		{"legal.contracts.step2", false},
		{"legal.Summarize", true},
		{"Legal.summarize", true},
		{"legal.contracts.extract-clause", true},
		{"legal.", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePipeRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePipeRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func TestFullRef_RoundTrip(t *testing.T) {
	t.Parallel()

	refs := []struct {
		ref  string
		kind Kind
	}{
		{"legal.summarize", KindPipe},
		{"legal.contracts.extract_clause", KindPipe},
		{"a.b.c.d.e", KindPipe},
		{"legal.Contract", KindConcept},
		{"x.y.Z9", KindConcept},
		{"anything.Goes-here", KindAny},
	}

	for _, tt := range refs {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKind(tt.ref, tt.kind)
			if err != nil {
				t.Fatalf("ParseKind(%q, %v) error = %v", tt.ref, tt.kind, err)
			}
			if got.FullRef() != tt.ref {
				t.Errorf("FullRef() = %q, want %q", got.FullRef(), tt.ref)
			}
			if !got.IsQualified() {
				t.Errorf("IsQualified() = false for %q", tt.ref)
			}
		})
	}
}

func TestQualifiedRef_Locality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref       string
		domain    string
		wantLocal bool
	}{
		{"summarize", "legal", true},
		{"legal.summarize", "legal", true},
		{"scoring.score", "legal", false},
		{"legal.contracts.extract", "legal", false},
		{"legal.summarize", "legal.contracts", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref+"@"+tt.domain, func(t *testing.T) {
			t.Parallel()

			ref, err := ParsePipeRef(tt.ref)
			if err != nil {
				t.Fatalf("ParsePipeRef() error = %v", err)
			}
			if got := ref.IsLocalTo(tt.domain); got != tt.wantLocal {
				t.Errorf("IsLocalTo(%q) = %v, want %v", tt.domain, got, tt.wantLocal)
			}
			if got := ref.IsExternalTo(tt.domain); got == tt.wantLocal {
				t.Errorf("IsExternalTo(%q) = %v, want %v", tt.domain, got, !tt.wantLocal)
			}
		})
	}
}

func TestCrossPackageRefs(t *testing.T) {
	t.Parallel()

	if !HasCrossPackagePrefix("scoring->legal.score") {
		t.Error("HasCrossPackagePrefix() = false for aliased ref")
	}
	if HasCrossPackagePrefix("legal.score") {
		t.Error("HasCrossPackagePrefix() = true for plain ref")
	}

	alias, rest, err := SplitCrossPackageRef("scoring->legal.score")
	if err != nil {
		t.Fatalf("SplitCrossPackageRef() error = %v", err)
	}
	if alias != "scoring" || rest != "legal.score" {
		t.Errorf("SplitCrossPackageRef() = (%q, %q), want (scoring, legal.score)", alias, rest)
	}

	for _, bad := range []string{"legal.score", "->legal.score", "scoring->"} {
		if _, _, err := SplitCrossPackageRef(bad); !errors.Is(err, ErrQualifiedRef) {
			t.Errorf("SplitCrossPackageRef(%q) error = %v, want ErrQualifiedRef", bad, err)
		}
	}

	cross, err := ParseCrossPackageRef("scoring->legal.Score", KindConcept)
	if err != nil {
		t.Fatalf("ParseCrossPackageRef() error = %v", err)
	}
	if cross.Alias != "scoring" || cross.Ref.DomainPath != "legal" || cross.Ref.LocalCode != "Score" {
		t.Errorf("ParseCrossPackageRef() = %+v", cross)
	}
	if cross.FullRef() != "scoring->legal.Score" {
		t.Errorf("FullRef() = %q", cross.FullRef())
	}

	badCross := []string{
		"Scoring->legal.score",
		"scoring->legal.Score",
		"a->b->legal.score",
		"scoring->legal..score",
	}
	for _, bad := range badCross {
		_, err := ParseCrossPackageRef(bad, KindPipe)
		var refErr *QualifiedRefError
		if !errors.As(err, &refErr) {
			t.Errorf("ParseCrossPackageRef(%q) error = %v, want *QualifiedRefError", bad, err)
			continue
		}
		if refErr.Ref != bad {
			t.Errorf("QualifiedRefError.Ref = %q, want full input %q", refErr.Ref, bad)
		}
	}
}
