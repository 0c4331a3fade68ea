// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeFetcher struct {
	tags      map[string][]string
	layout    map[string]string // file path relative to the clone -> content
	listCalls atomic.Int32
	clones    atomic.Int32
	failClone error
}

func (f *fakeFetcher) ListTags(_ context.Context, url string) ([]string, error) {
	f.listCalls.Add(1)
	return f.tags[url], nil
}

func (f *fakeFetcher) CloneAtTag(_ context.Context, _, _, dest string) (string, error) {
	f.clones.Add(1)
	if f.failClone != nil {
		return "", f.failClone
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return "", err
	}
	for rel, content := range f.layout {
		path := filepath.Join(dest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return "0123456789abcdef0123456789abcdef01234567", nil
}

func TestGitSource_ListTags(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{tags: map[string][]string{
		"https://github.com/org/repo.git": {"v1.0.0", "v1.1.0"},
	}}
	src := NewGitSource(t.TempDir(), fetcher)

	got, err := src.ListTags(t.Context(), "github.com/org/repo/sub")
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListTags() = %v, want two tags from the repository URL", got)
	}
}

func TestGitSource_Fetch(t *testing.T) {
	t.Parallel()

	cache := t.TempDir()
	fetcher := &fakeFetcher{layout: map[string]string{
		"METHODS.toml":               "root",
		"methods/legal/METHODS.toml": "legal",
	}}
	src := NewGitSource(cache, fetcher)

	root, err := src.Fetch(t.Context(), "github.com/org/repo", "v1.0.0")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if want := CachePath(cache, "github.com/org/repo", "v1.0.0"); root != want {
		t.Errorf("Fetch() = %q, want %q", root, want)
	}

	sub, err := src.Fetch(t.Context(), "github.com/org/repo/methods/legal", "v1.0.0")
	if err != nil {
		t.Fatalf("Fetch(subpath) error = %v", err)
	}
	if filepath.Base(sub) != "legal" {
		t.Errorf("Fetch(subpath) = %q, want directory ending in legal", sub)
	}
	if n := fetcher.clones.Load(); n != 1 {
		t.Errorf("clones = %d, want 1 (second fetch hits the cache)", n)
	}

	if _, err := src.Fetch(t.Context(), "github.com/org/repo/missing", "v1.0.0"); err == nil {
		t.Error("Fetch() expected error for missing subpath")
	}
}

func TestGitSource_FetchConcurrent(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{layout: map[string]string{"METHODS.toml": "x"}}
	src := NewGitSource(t.TempDir(), fetcher)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if _, err := src.Fetch(t.Context(), "github.com/org/repo", "1.0.0"); err != nil {
				t.Errorf("Fetch() error = %v", err)
			}
		})
	}
	wg.Wait()

	if n := fetcher.clones.Load(); n != 1 {
		t.Errorf("clones = %d, want exactly 1", n)
	}
}

func TestGitSource_FetchError(t *testing.T) {
	t.Parallel()

	cause := &VCSError{Op: "clone", URL: "https://github.com/org/repo.git", Err: errors.New("unreachable")}
	src := NewGitSource(t.TempDir(), &fakeFetcher{failClone: cause})

	_, err := src.Fetch(t.Context(), "github.com/org/repo", "1.0.0")
	if !errors.Is(err, ErrVCS) {
		t.Errorf("Fetch() error = %v, want ErrVCS", err)
	}
}
