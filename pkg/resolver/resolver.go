// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/vcs"
)

// DefaultConcurrency bounds parallel tag listings and fetches.
const DefaultConcurrency = 4

// rootEdge names edges declared by the root manifest.
const rootEdge = "root"

type (
	// Source provides tags and checkouts of packages by address.
	// *vcs.GitSource is the production implementation.
	Source interface {
		ListTags(ctx context.Context, address string) ([]string, error)
		// Fetch returns the directory holding the package's manifest at tag.
		Fetch(ctx context.Context, address, tag string) (string, error)
	}

	// Resolver resolves the transitive dependencies of a root manifest.
	Resolver struct {
		Source Source
		// Concurrency bounds parallel Source calls. Zero means DefaultConcurrency.
		Concurrency int
		// ToolVersion, when set, is checked against each dependency's mthds_version.
		ToolVersion string
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// ResolvedDependency is one package of the resolved closure.
	ResolvedDependency struct {
		// Alias is the name the first declaring manifest gave the dependency.
		Alias   string
		Address string
		// Version is the selected version without a "v" prefix. For local
		// dependencies it is the version the package's manifest declares.
		Version string
		// Tag is the Git tag fetched; empty for local dependencies.
		Tag         string
		Manifest    *manifest.Manifest
		PackageRoot string
		Local       bool
		// Constraints lists the distinct constraints placed on the address.
		Constraints []string
	}
)

// WithConcurrency sets the number of parallel Source calls.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.Concurrency = n }
}

// WithToolVersion enables mthds_version compatibility checks.
func WithToolVersion(v string) Option {
	return func(r *Resolver) { r.ToolVersion = v }
}

// New creates a Resolver reading packages from source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{Source: source, Concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the dependencies of root, whose manifest lives in rootDir, and
// returns the full closure sorted by alias, then address. Any failure aborts
// the whole resolution and no partial result is returned.
func (r *Resolver) Resolve(ctx context.Context, root *manifest.Manifest, rootDir string) ([]ResolvedDependency, error) {
	st := newGraph(root.Address)
	if err := st.addEdges(root, rootDir, rootEdge); err != nil {
		return nil, err
	}

	for wave := 1; ; wave++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.listTags(ctx, st); err != nil {
			return nil, err
		}
		jobs, err := st.plan()
		if err != nil {
			return nil, err
		}
		if len(jobs) == 0 {
			break
		}
		slog.Debug("resolving wave", "wave", wave, "fetches", len(jobs))

		results, err := r.fetchAll(ctx, jobs)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if err := st.apply(res); err != nil {
				return nil, err
			}
		}
	}

	return st.resolved(), nil
}

func (r *Resolver) limit() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

// listTags lists tags for every versioned address not yet listed.
func (r *Resolver) listTags(ctx context.Context, st *graph) error {
	var pending []*node
	for _, addr := range st.addresses() {
		if n := st.nodes[addr]; !n.local && !n.listed {
			pending = append(pending, n)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if r.Source == nil {
		return &PackageError{Address: pending[0].address, Message: "no package source configured for versioned dependencies"}
	}

	tags := make([][]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit())
	for i, n := range pending {
		g.Go(func() error {
			slog.Debug("listing tags", "address", n.address)
			list, err := r.Source.ListTags(gctx, n.address)
			if err != nil {
				return fmt.Errorf("listing tags of %s: %w", n.address, err)
			}
			tags[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, n := range pending {
		n.tags = vcs.ParseVersionTags(tags[i])
		n.listed = true
	}
	return nil
}

func (r *Resolver) fetchAll(ctx context.Context, jobs []fetchJob) ([]fetchResult, error) {
	results := make([]fetchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit())
	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.fetchOne(gctx, job)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) fetchOne(ctx context.Context, job fetchJob) (fetchResult, error) {
	root := job.dir
	if !job.local {
		slog.Debug("fetching", "address", job.address, "tag", job.tag)
		var err error
		root, err = r.Source.Fetch(ctx, job.address, job.tag)
		if err != nil {
			return fetchResult{}, &PackageError{Address: job.address, Message: "fetch " + job.tag, Err: err}
		}
	}

	result := manifest.ValidateFile(filepath.Join(root, manifest.FileName))
	if !result.Valid {
		return fetchResult{}, &PackageError{
			Address: job.address,
			Message: "unusable manifest in " + root,
			Err:     result.Err(),
		}
	}
	m := result.Manifest
	if m.Address != job.address {
		return fetchResult{}, &PackageError{
			Address: job.address,
			Message: fmt.Sprintf("manifest in %s declares address %s", root, m.Address),
		}
	}
	if r.ToolVersion != "" {
		if err := m.CheckCompatibility(r.ToolVersion); err != nil {
			return fetchResult{}, &PackageError{Address: job.address, Message: "incompatible", Err: err}
		}
	}
	return fetchResult{job: job, manifest: m, root: root}, nil
}

// resolved builds the output list from every fetched node.
func (st *graph) resolved() []ResolvedDependency {
	deps := make([]ResolvedDependency, 0, len(st.nodes))
	for _, n := range st.nodes {
		if n.manifest == nil {
			continue
		}
		dep := ResolvedDependency{
			Alias:       n.alias,
			Address:     n.address,
			Manifest:    n.manifest,
			PackageRoot: n.root,
			Local:       n.local,
			Constraints: n.constraintStrings(),
		}
		if n.local {
			dep.Version = n.manifest.Version
		} else {
			dep.Version = n.selected.String()
			dep.Tag = n.selected.Raw
		}
		deps = append(deps, dep)
	}
	SortDependencies(deps)
	return deps
}

// SortDependencies orders deps by alias, then address.
func SortDependencies(deps []ResolvedDependency) {
	slices.SortFunc(deps, func(a, b ResolvedDependency) int {
		return cmp.Or(
			strings.Compare(sortKey(a), sortKey(b)),
			strings.Compare(a.Address, b.Address),
		)
	})
}

func sortKey(d ResolvedDependency) string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Address
}

func (n *node) constraintStrings() []string {
	seen := make(map[string]bool, len(n.edges))
	for _, e := range n.edges {
		seen[e.raw] = true
	}
	return slices.Sorted(maps.Keys(seen))
}
