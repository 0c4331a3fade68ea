// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"
)

type (
	// Fetcher is the subset of GitFetcher that GitSource needs.
	Fetcher interface {
		ListTags(ctx context.Context, url string) ([]string, error)
		CloneAtTag(ctx context.Context, url, tag, dest string) (string, error)
	}

	// GitSource serves package tags and checkouts by address, backed by a
	// Fetcher and an on-disk cache of checkouts keyed by repository and tag.
	GitSource struct {
		CacheDir string
		Fetcher  Fetcher

		// Packages sharing a repository share its tag listing and checkouts.
		tags   singleflight.Group
		clones singleflight.Group
	}
)

// NewGitSource creates a GitSource caching checkouts below cacheDir.
func NewGitSource(cacheDir string, fetcher Fetcher) *GitSource {
	return &GitSource{CacheDir: cacheDir, Fetcher: fetcher}
}

// ListTags returns the tag names of the repository holding address.
func (s *GitSource) ListTags(ctx context.Context, address string) ([]string, error) {
	url := AddressToCloneURL(address)
	v, err, _ := s.tags.Do(url, func() (any, error) {
		slog.Debug("listing tags", "address", address, "url", url)
		return s.Fetcher.ListTags(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	tags, _ := v.([]string)
	return tags, nil
}

// Fetch makes the package at address available at tag and returns the
// directory holding its manifest. An existing checkout is reused.
func (s *GitSource) Fetch(ctx context.Context, address, tag string) (string, error) {
	dest := CachePath(s.CacheDir, address, tag)

	_, err, _ := s.clones.Do(dest, func() (any, error) {
		if isCheckout(dest) {
			slog.Debug("using cached checkout", "address", address, "tag", tag, "path", dest)
			return nil, nil
		}
		url := AddressToCloneURL(address)
		slog.Debug("cloning", "url", url, "tag", tag, "path", dest)
		commit, err := s.Fetcher.CloneAtTag(ctx, url, tag, dest)
		if err != nil {
			return nil, err
		}
		slog.Debug("cloned", "url", url, "tag", tag, "commit", commit)
		return nil, nil
	})
	if err != nil {
		return "", err
	}

	root := dest
	if sub := Subpath(address); sub != "" {
		root = filepath.Join(dest, filepath.FromSlash(sub))
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("package %s: directory %s not found in %s at %s", address, Subpath(address), RepoAddress(address), tag)
	}
	return root, nil
}

func isCheckout(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}
