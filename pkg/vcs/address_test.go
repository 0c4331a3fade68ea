// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"path/filepath"
	"testing"
)

func TestAddressToCloneURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    string
	}{
		{"github.com/org/repo", "https://github.com/org/repo.git"},
		{"github.com/org/repo.git", "https://github.com/org/repo.git"},
		{"https://github.com/org/repo.git", "https://github.com/org/repo.git"},
		{"github.com/org/repo/methods/legal", "https://github.com/org/repo.git"},
		{"git@github.com:org/repo.git", "https://github.com/org/repo.git"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			got := AddressToCloneURL(tt.address)
			if got != tt.want {
				t.Errorf("AddressToCloneURL(%q) = %q, want %q", tt.address, got, tt.want)
			}
			if again := AddressToCloneURL(got); again != got {
				t.Errorf("AddressToCloneURL is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSubpath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    string
	}{
		{"github.com/org/repo", ""},
		{"github.com/org/repo.git", ""},
		{"github.com/org/repo/legal", "legal"},
		{"github.com/org/repo/methods/legal", "methods/legal"},
	}

	for _, tt := range tests {
		if got := Subpath(tt.address); got != tt.want {
			t.Errorf("Subpath(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}

func TestCachePath(t *testing.T) {
	t.Parallel()

	got := CachePath("/cache", "github.com/org/repo/sub", "v1.2.0")
	want := filepath.Join("/cache", "github.com", "org", "repo", "v1.2.0")
	if got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}
