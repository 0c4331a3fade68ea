// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestParseVersionTags(t *testing.T) {
	t.Parallel()

	tags := ParseVersionTags([]string{"v2.0.0", "latest", "1.0.0", "v1.5.0", "1.5", "release-3", "v1.0.0", "0.9.0-rc.1"})

	var got []string
	for _, tag := range tags {
		got = append(got, tag.Raw)
	}
	want := []string{"0.9.0-rc.1", "1.0.0", "v1.5.0", "v2.0.0"}
	if !slices.Equal(got, want) {
		t.Errorf("ParseVersionTags() = %v, want %v", got, want)
	}
}

func TestParseConstraint(t *testing.T) {
	t.Parallel()

	valid := []string{"*", "1.0.0", "v1.0.0", "^1.0.0", "~1.2.0", ">=0.3.0", "1.0.0-beta.2"}
	for _, c := range valid {
		if _, err := ParseConstraint(c); err != nil {
			t.Errorf("ParseConstraint(%q) error = %v", c, err)
		}
	}

	invalid := []string{"", "latest", "<2.0.0", "1.x", "^1.0", ">=1.0.0 <2.0.0"}
	for _, c := range invalid {
		_, err := ParseConstraint(c)
		var vre *VersionResolutionError
		if !errors.As(err, &vre) {
			t.Errorf("ParseConstraint(%q) error = %v, want *VersionResolutionError", c, err)
			continue
		}
		if vre.Reason != ReasonBadConstraint {
			t.Errorf("ParseConstraint(%q) reason = %q, want %q", c, vre.Reason, ReasonBadConstraint)
		}
	}
}

func TestConstraint_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"^1.0.0", "1.9.9", true},
		{"^1.0.0", "2.0.0", false},
		{"^0.2.0", "0.2.5", true},
		{"^0.2.0", "0.3.0", false},
		{"^0.0.3", "0.0.3", true},
		{"^0.0.3", "0.0.5", true},
		{"^0.0.3", "0.0.2", false},
		{"^0.0.3", "0.1.0", false},
		{"^v0.0.3", "0.0.9", true},
		{"~1.2.0", "1.2.9", true},
		{"~1.2.0", "1.3.0", false},
		{">=1.5.0", "3.0.0", true},
		{">=1.5.0", "1.4.0", false},
		{"1.0.0", "1.0.0", true},
		{"1.0.0", "1.0.1", false},
		{"*", "42.0.0", true},
		{"^1.0.0", "1.5.0-beta.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.constraint+"/"+tt.version, func(t *testing.T) {
			t.Parallel()

			c, err := ParseConstraint(tt.constraint)
			if err != nil {
				t.Fatalf("ParseConstraint() error = %v", err)
			}
			if got := c.Check(semver.MustParse(tt.version)); got != tt.want {
				t.Errorf("Check(%s) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestResolveVersion_Minimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tags       []string
		constraint string
		want       string
	}{
		{"caret picks lowest", []string{"1.0.0", "1.5.0", "2.0.0"}, "^1.0.0", "1.0.0"},
		{"caret skips below minimum", []string{"0.9.0", "1.5.0", "2.0.0"}, "^1.0.0", "1.5.0"},
		{"tilde", []string{"1.2.0", "1.2.3", "1.3.0"}, "~1.2.1", "1.2.3"},
		{"at least", []string{"v1.0.0", "v1.5.0", "v1.6.0"}, ">=1.5.0", "v1.5.0"},
		{"exact with v tag", []string{"v1.0.0", "v2.0.0"}, "2.0.0", "v2.0.0"},
		{"wildcard", []string{"3.0.0", "0.1.0", "junk"}, "*", "0.1.0"},
		{"unordered input", []string{"2.0.0", "1.7.0", "1.6.0"}, "^1.0.0", "1.6.0"},
		{"caret on 0.0.x keeps the minor", []string{"0.0.4", "0.0.5", "0.1.0"}, "^0.0.3", "0.0.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveVersion("github.com/a/b", tt.tags, tt.constraint)
			if err != nil {
				t.Fatalf("ResolveVersion() error = %v", err)
			}
			if got.Raw != tt.want {
				t.Errorf("ResolveVersion() = %q, want %q", got.Raw, tt.want)
			}
		})
	}
}

func TestResolveVersion_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tags       []string
		constraint string
		reason     string
		contains   string
	}{
		{"no tags", nil, "^1.0.0", ReasonNoTags, `No version satisfying "^1.0.0"`},
		{"only non-semver tags", []string{"latest", "stable"}, "^1.0.0", ReasonNoTags, `No version satisfying "^1.0.0"`},
		{"no match", []string{"0.1.0", "0.2.0"}, "^1.0.0", ReasonNoMatch, `No version satisfying "^1.0.0"`},
		{"caret on 0.0.x stops at the next minor", []string{"0.0.2", "0.1.0"}, "^0.0.3", ReasonNoMatch, `No version satisfying "^0.0.3"`},
		{"bad constraint", []string{"1.0.0"}, "one point oh", ReasonBadConstraint, `"one point oh"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ResolveVersion("github.com/a/b", tt.tags, tt.constraint)
			if !errors.Is(err, ErrVersionResolution) {
				t.Fatalf("ResolveVersion() error = %v, want ErrVersionResolution", err)
			}
			var vre *VersionResolutionError
			if !errors.As(err, &vre) {
				t.Fatalf("error type = %T", err)
			}
			if vre.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", vre.Reason, tt.reason)
			}
			if vre.Address != "github.com/a/b" {
				t.Errorf("Address = %q", vre.Address)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestResolveVersion_NoMatchListsAvailable(t *testing.T) {
	t.Parallel()

	_, err := ResolveVersion("github.com/a/b", []string{"v0.2.0", "0.1.0"}, "^1.0.0")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "available: 0.1.0, v0.2.0") {
		t.Errorf("error %q does not list available versions in order", err.Error())
	}
}
