// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"path/filepath"
	"strings"
)

// repoSegments is host/org/repo: the part of an address naming the repository.
const repoSegments = 3

// normalizeAddress strips a URL scheme, an scp-style user and a trailing .git.
func normalizeAddress(address string) string {
	s := strings.TrimSpace(address)
	if _, rest, found := strings.Cut(s, "://"); found {
		s = rest
	}
	s = strings.TrimPrefix(s, "git@")
	s = strings.Replace(s, ":", "/", 1)
	s = strings.Trim(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// RepoAddress returns the host/org/repo part of address, without any subpath.
func RepoAddress(address string) string {
	segments := strings.Split(normalizeAddress(address), "/")
	if len(segments) > repoSegments {
		segments = segments[:repoSegments]
	}
	return strings.TrimSuffix(strings.Join(segments, "/"), ".git")
}

// Subpath returns the directory inside the repository that holds the package,
// or "" when the package lives at the repository root.
func Subpath(address string) string {
	segments := strings.Split(normalizeAddress(address), "/")
	if len(segments) <= repoSegments {
		return ""
	}
	return strings.Join(segments[repoSegments:], "/")
}

// AddressToCloneURL returns the HTTPS clone URL for the repository holding
// address. It always ends in exactly one ".git" and is idempotent.
func AddressToCloneURL(address string) string {
	return "https://" + RepoAddress(address) + ".git"
}

// CachePath returns where the repository of address is checked out at tag
// below cacheDir: <cacheDir>/<host>/<org>/<repo>/<tag>.
func CachePath(cacheDir, address, tag string) string {
	parts := append([]string{cacheDir}, strings.Split(RepoAddress(address), "/")...)
	parts = append(parts, tag)
	return filepath.Join(parts...)
}
