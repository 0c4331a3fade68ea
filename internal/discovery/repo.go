// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/vcs"
)

const (
	// SourceLocal marks a repository read from the local filesystem.
	SourceLocal SourceKind = "local"
	// SourceGit marks a repository fetched from a Git remote.
	SourceGit SourceKind = "git"
)

type (
	// SourceKind tells where a repository was read from.
	SourceKind string

	// Fetcher checks out a package at a tag. *vcs.GitSource implements it.
	Fetcher interface {
		Fetch(ctx context.Context, address, tag string) (string, error)
	}

	// ResolvedRepo is the outcome of discovering the methods of one repository.
	ResolvedRepo struct {
		Methods    []Method
		Skipped    []SkippedMethod
		SourceKind SourceKind
		RepoName   string
		// Dir is where the repository content lives on disk.
		Dir string
	}

	// Method is an admitted method directory.
	Method struct {
		// Slug is the directory name, or the repository name for a manifest
		// at the repository root.
		Slug     string
		Dir      string
		Manifest *manifest.Manifest
	}

	// SkippedMethod is a method directory rejected by validation.
	SkippedMethod struct {
		Identifier string
		Errors     []string
	}
)

// DiscoverLocal enumerates the methods of the repository at root.
func DiscoverLocal(root string) (ResolvedRepo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return ResolvedRepo{}, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	repo := ResolvedRepo{SourceKind: SourceLocal, RepoName: filepath.Base(abs), Dir: abs}
	if err := repo.scan(); err != nil {
		return ResolvedRepo{}, err
	}
	return repo, nil
}

// DiscoverRemote fetches the repository holding address at tag and enumerates its methods.
func DiscoverRemote(ctx context.Context, fetcher Fetcher, address, tag string) (ResolvedRepo, error) {
	repoAddress := vcs.RepoAddress(address)
	dir, err := fetcher.Fetch(ctx, repoAddress, tag)
	if err != nil {
		return ResolvedRepo{}, fmt.Errorf("failed to fetch %s@%s: %w", repoAddress, tag, err)
	}
	repo := ResolvedRepo{SourceKind: SourceGit, RepoName: repoName(repoAddress), Dir: dir}
	if err := repo.scan(); err != nil {
		return ResolvedRepo{}, err
	}
	return repo, nil
}

func repoName(address string) string {
	return address[strings.LastIndex(address, "/")+1:]
}

// scan admits the root method, if any, then each immediate subdirectory
// holding a manifest, in name order.
func (r *ResolvedRepo) scan() error {
	if exists(filepath.Join(r.Dir, manifest.FileName)) {
		r.admit(r.RepoName, r.Dir, false)
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.Dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		dir := filepath.Join(r.Dir, name)
		if !exists(filepath.Join(dir, manifest.FileName)) {
			continue
		}
		r.admit(name, dir, true)
	}

	slog.Debug("discovered methods", "repo", r.RepoName, "methods", len(r.Methods), "skipped", len(r.Skipped))
	return nil
}

func (r *ResolvedRepo) admit(slug, dir string, checkSlug bool) {
	var problems []string
	if checkSlug {
		if msg := manifest.ValidateSlug(slug); msg != "" {
			problems = append(problems, msg)
		}
	}
	result := manifest.ValidateFile(filepath.Join(dir, manifest.FileName))
	problems = append(problems, result.Errors...)

	if len(problems) > 0 {
		slog.Debug("skipping method", "slug", slug, "errors", len(problems))
		r.Skipped = append(r.Skipped, SkippedMethod{Identifier: slug, Errors: problems})
		return
	}
	r.Methods = append(r.Methods, Method{Slug: slug, Dir: dir, Manifest: result.Manifest})
}

// Find returns the admitted method with the given slug.
func (r *ResolvedRepo) Find(slug string) (Method, bool) {
	i := slices.IndexFunc(r.Methods, func(m Method) bool { return m.Slug == slug })
	if i < 0 {
		return Method{}, false
	}
	return r.Methods[i], true
}
