// SPDX-License-Identifier: MPL-2.0

package qualref

import (
	"errors"
	"strings"
	"testing"
)

type fakeExports map[string][]string

func (f fakeExports) IsPipeExported(domainPath, code string) bool {
	for _, c := range f[domainPath] {
		if c == code {
			return true
		}
	}
	return false
}

func TestScope_ResolvePipe(t *testing.T) {
	t.Parallel()

	scope := NewScope("legal", map[string]ExportLookup{
		"scoring": fakeExports{"scoring.core": {"score"}},
	})

	tests := []struct {
		ref     string
		want    PipeTarget
		wantErr string
	}{
		{
			ref:  "summarize",
			want: PipeTarget{Domain: "legal", Code: "summarize", Local: true},
		},
		{
			ref:  "legal.summarize",
			want: PipeTarget{Domain: "legal", Code: "summarize", Local: true},
		},
		{
			ref:  "finance.forecast",
			want: PipeTarget{Domain: "finance", Code: "forecast"},
		},
		{
			ref:  "scoring->scoring.core.score",
			want: PipeTarget{Alias: "scoring", Domain: "scoring.core", Code: "score"},
		},
		{ref: "scoring->score", wantErr: "must name a domain"},
		{ref: "missing->x.score", wantErr: `unknown dependency alias "missing" (known: scoring)`},
		{ref: "scoring->scoring.core.hidden", wantErr: "does not export"},
		{ref: "legal.Bad", wantErr: "snake_case"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			got, err := scope.ResolvePipe(tt.ref)
			if tt.wantErr != "" {
				if !errors.Is(err, ErrQualifiedRef) {
					t.Fatalf("ResolvePipe(%q) error = %v, want ErrQualifiedRef", tt.ref, err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolvePipe(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ResolvePipe(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestScope_NoDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewScope("legal", nil).ResolvePipe("dep->a.b")
	if err == nil || !strings.Contains(err.Error(), "known: none") {
		t.Errorf("ResolvePipe() error = %v, want unknown alias with no known aliases", err)
	}
}
