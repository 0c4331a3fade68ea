// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mthds/mthds/internal/issue"
	"github.com/mthds/mthds/pkg/lockfile"
	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/qualref"
	"github.com/mthds/mthds/pkg/resolver"
)

// ErrInvalidOptions is the sentinel error wrapped by InvalidOptionsError.
var ErrInvalidOptions = errors.New("invalid install options")

type (
	// Options configures Lock, Install and Resolve.
	Options struct {
		// Dir is the package root holding METHODS.toml. Empty means ".".
		Dir string
		// Source fetches versioned dependencies. It may be nil when every
		// dependency is local.
		Source resolver.Source
		// Concurrency bounds parallel Source calls. Zero means the resolver default.
		Concurrency int
		// ToolVersion, when set, is checked against each package's mthds_version.
		ToolVersion string
		// Check makes Lock report drift instead of writing the lock file.
		Check bool
	}

	// InvalidOptionsError is returned when Options has invalid fields.
	InvalidOptionsError struct {
		FieldErrors []error
	}

	// Result describes a completed workflow.
	Result struct {
		ManifestPath string
		LockPath     string
		Root         *manifest.Manifest
		Dependencies []resolver.ResolvedDependency
		// Lock is the lock file matching Dependencies.
		Lock *lockfile.LockFile
		// Changes lists how Lock differs from the lock file found on disk.
		Changes []lockfile.Change
		// Written reports whether Lock was saved.
		Written bool
	}
)

// Error implements the error interface.
func (e *InvalidOptionsError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid install options: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidOptions for errors.Is() compatibility.
func (e *InvalidOptionsError) Unwrap() error { return ErrInvalidOptions }

// Validate checks the options before any file is read.
func (o Options) Validate() error {
	var errs []error
	if o.Dir != "" && strings.TrimSpace(o.Dir) == "" {
		errs = append(errs, errors.New("dir: must not be blank"))
	}
	if o.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must not be negative, got %d", o.Concurrency))
	}
	if len(errs) > 0 {
		return &InvalidOptionsError{FieldErrors: errs}
	}
	return nil
}

func (o Options) dir() string {
	if o.Dir == "" {
		return "."
	}
	return o.Dir
}

// Resolve reads the root manifest and resolves its dependencies without
// touching the lock file.
func Resolve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dir := opts.dir()
	res := &Result{
		ManifestPath: filepath.Join(dir, manifest.FileName),
		LockPath:     filepath.Join(dir, manifest.LockFileName),
	}

	root, err := manifest.ParseFile(res.ManifestPath)
	if err != nil {
		ec := issue.NewErrorContext().WithOperation("read manifest").WithResource(res.ManifestPath)
		if errors.Is(err, fs.ErrNotExist) {
			ec.WithSuggestion("Run mthds from the directory holding METHODS.toml, or pass --dir")
		}
		return nil, ec.Wrap(err).BuildError()
	}
	res.Root = root

	r := resolver.New(opts.Source,
		resolver.WithConcurrency(opts.Concurrency),
		resolver.WithToolVersion(opts.ToolVersion),
	)
	deps, err := r.Resolve(ctx, root, dir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve dependencies").
			WithResource(root.Address).
			Wrap(err).
			BuildError()
	}
	res.Dependencies = deps

	lock, err := lockfile.Generate(root, dir, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock file: %w", err)
	}
	res.Lock = lock

	slog.Debug("resolved dependencies", "root", root.Address, "count", len(deps))
	return res, nil
}

// Lock resolves the root package and writes methods.lock. Nothing is written
// when resolution fails or, with Check set, at all; Check returns a
// *lockfile.DriftError when the file on disk is stale.
func Lock(ctx context.Context, opts Options) (*Result, error) {
	res, err := Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	current, exists, err := loadExisting(res.LockPath)
	if err != nil {
		return nil, err
	}
	res.Changes = lockfile.Diff(current, res.Lock)

	if opts.Check {
		if !exists {
			return res, issue.NewErrorContext().
				WithOperation("check lock file").
				WithResource(res.LockPath).
				WithSuggestion(issue.HintRunLock).
				Wrap(fmt.Errorf("lock file not found: %w", fs.ErrNotExist)).
				BuildError()
		}
		return res, lockfile.Check(res.LockPath, current, res.Lock)
	}

	if exists && len(res.Changes) == 0 {
		slog.Debug("lock file up to date", "path", res.LockPath)
		return res, nil
	}
	if err := res.Lock.Save(res.LockPath); err != nil {
		return nil, issue.WrapWithContext(err, "write lock file", res.LockPath)
	}
	res.Written = true
	return res, nil
}

// Install resolves the root package, which fetches every versioned dependency
// into the cache, and verifies the result against methods.lock. A missing or
// stale lock file is an error: run Lock first.
func Install(ctx context.Context, opts Options) (*Result, error) {
	dir := opts.dir()
	lockPath := filepath.Join(dir, manifest.LockFileName)
	current, exists, err := loadExisting(lockPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, issue.NewErrorContext().
			WithOperation("install dependencies").
			WithResource(lockPath).
			WithSuggestion(issue.HintRunLock).
			Wrap(fmt.Errorf("lock file not found: %w", fs.ErrNotExist)).
			BuildError()
	}

	res, err := Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	res.Changes = lockfile.Diff(current, res.Lock)
	if err := lockfile.Check(res.LockPath, current, res.Lock); err != nil {
		return res, err
	}

	for _, dep := range res.Dependencies {
		slog.Debug("installed package", "address", dep.Address, "version", dep.Version, "root", dep.PackageRoot)
	}
	return res, nil
}

// loadExisting reads the lock file at path, reporting whether it exists.
func loadExisting(path string) (*lockfile.LockFile, bool, error) {
	lock, err := lockfile.Load(path)
	switch {
	case err == nil:
		return lock, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	default:
		return nil, false, issue.NewErrorContext().
			WithOperation("read lock file").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
}

// Scope returns a reference scope for domain whose dependencies are the root
// package's direct dependencies, keyed by the aliases the root declares.
func (r *Result) Scope(domain string) *qualref.Scope {
	byAddress := make(map[string]*manifest.Manifest, len(r.Dependencies))
	for _, dep := range r.Dependencies {
		byAddress[dep.Address] = dep.Manifest
	}
	deps := make(map[string]qualref.ExportLookup, len(r.Root.Dependencies))
	for alias, spec := range r.Root.Dependencies {
		if m, ok := byAddress[spec.Address]; ok {
			deps[alias] = m
		}
	}
	return qualref.NewScope(domain, deps)
}
