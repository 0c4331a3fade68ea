// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/vcs"
)

type (
	// graph is the per-invocation table of addresses. Only the coordinating
	// goroutine in Resolve reads or writes it.
	graph struct {
		rootAddress string
		nodes       map[string]*node
	}

	node struct {
		address string
		alias   string
		local   bool
		// declaredBy is the package whose declaration created the node.
		declaredBy string
		// dir is the absolute directory of a local dependency.
		dir   string
		edges []edge

		listed   bool
		tags     []vcs.VersionTag
		selected vcs.VersionTag

		fetched    bool
		fetchedTag string
		manifest   *manifest.Manifest
		root       string
	}

	// edge is one constraint placed on an address by a declaring package.
	edge struct {
		from       string
		raw        string
		constraint vcs.Constraint
	}

	fetchJob struct {
		address string
		tag     string
		local   bool
		dir     string
	}

	fetchResult struct {
		job      fetchJob
		manifest *manifest.Manifest
		root     string
	}
)

func newGraph(rootAddress string) *graph {
	return &graph{rootAddress: rootAddress, nodes: make(map[string]*node)}
}

func (st *graph) addresses() []string {
	return slices.Sorted(maps.Keys(st.nodes))
}

// addEdges records the dependencies declared by m, a package rooted at
// pkgRoot and identified in messages as from.
func (st *graph) addEdges(m *manifest.Manifest, pkgRoot, from string) error {
	for _, alias := range m.DependencyAliases() {
		spec := m.Dependencies[alias]
		if spec.Address == st.rootAddress {
			slog.Debug("skipping dependency on the root package", "from", from, "alias", alias)
			continue
		}

		n, seen := st.nodes[spec.Address]
		if !seen {
			n = &node{address: spec.Address, alias: alias, local: spec.IsLocal(), declaredBy: from}
			if n.local {
				n.dir = localDir(pkgRoot, spec.Path)
			}
			st.nodes[spec.Address] = n
		}

		// An address is either local or versioned everywhere in the graph,
		// whichever declaration is seen first.
		if spec.IsLocal() != n.local {
			return mixedDeclarationError(n, spec, from)
		}

		if spec.IsLocal() {
			if dir := localDir(pkgRoot, spec.Path); dir != n.dir {
				return &PackageError{
					Address: spec.Address,
					Message: fmt.Sprintf("declared at two local paths: %s and %s", n.dir, dir),
				}
			}
			if spec.Version != "" {
				slog.Debug("local dependency ignores version constraint", "address", spec.Address, "from", from, "constraint", spec.Version)
			}
			continue
		}

		c, err := vcs.ParseConstraint(spec.Version)
		if err != nil {
			return fmt.Errorf("dependency %q of %s: %w", alias, from,
				&vcs.VersionResolutionError{Address: spec.Address, Constraint: spec.Version, Reason: vcs.ReasonBadConstraint})
		}
		if !slices.ContainsFunc(n.edges, func(e edge) bool { return e.from == from && e.raw == spec.Version }) {
			n.edges = append(n.edges, edge{from: from, raw: spec.Version, constraint: c})
		}
	}
	return nil
}

func mixedDeclarationError(n *node, spec manifest.DependencySpec, from string) error {
	localFrom, versionedFrom := n.declaredBy, from
	if spec.IsLocal() {
		localFrom, versionedFrom = from, n.declaredBy
	}
	return &PackageError{
		Address: n.address,
		Message: fmt.Sprintf("declared as a local path by %s and as a versioned dependency by %s", localFrom, versionedFrom),
	}
}

// plan selects a version for every address and returns the fetches needed to
// bring the table up to date. An empty plan means resolution is complete.
func (st *graph) plan() ([]fetchJob, error) {
	var jobs []fetchJob
	for _, addr := range st.addresses() {
		n := st.nodes[addr]
		if n.local {
			if !n.fetched {
				jobs = append(jobs, fetchJob{address: addr, local: true, dir: n.dir})
			}
			continue
		}

		target, err := n.selectVersion()
		if err != nil {
			return nil, err
		}
		if n.fetched && target.Raw == n.fetchedTag {
			continue
		}
		if n.fetched {
			slog.Debug("raising selected version", "address", addr, "from", n.selected.String(), "to", target.String())
		}
		n.selected = target
		jobs = append(jobs, fetchJob{address: addr, tag: target.Raw})
	}
	return jobs, nil
}

// selectVersion applies minimal version selection across every edge: the
// smallest tag at or above the highest per-edge minimum that satisfies all
// edges at once.
func (n *node) selectVersion() (vcs.VersionTag, error) {
	if len(n.tags) == 0 {
		return vcs.VersionTag{}, fmt.Errorf("required by %s: %w", n.edges[0].from,
			&vcs.VersionResolutionError{Address: n.address, Constraint: n.edges[0].raw, Reason: vcs.ReasonNoTags})
	}

	var floor vcs.VersionTag
	for _, e := range n.edges {
		minimal, ok := vcs.SelectMinimal(n.tags, e.constraint)
		if !ok {
			available := make([]string, len(n.tags))
			for i, tag := range n.tags {
				available[i] = tag.Raw
			}
			return vcs.VersionTag{}, fmt.Errorf("required by %s: %w", e.from, &vcs.VersionResolutionError{
				Address:    n.address,
				Constraint: e.raw,
				Available:  available,
				Reason:     vcs.ReasonNoMatch,
			})
		}
		if floor.Version == nil || minimal.Version.GreaterThan(floor.Version) {
			floor = minimal
		}
	}

	for _, tag := range n.tags {
		if tag.Version.LessThan(floor.Version) {
			continue
		}
		if n.satisfiedBy(tag) {
			return tag, nil
		}
	}

	return vcs.VersionTag{}, &PackageError{
		Address: n.address,
		Message: "no version satisfies all constraints " + n.describeEdges(),
	}
}

func (n *node) satisfiedBy(tag vcs.VersionTag) bool {
	for _, e := range n.edges {
		if !e.constraint.Check(tag.Version) {
			return false
		}
	}
	return true
}

func (n *node) describeEdges() string {
	parts := make([]string, len(n.edges))
	for i, e := range n.edges {
		parts[i] = fmt.Sprintf("%q (from %s)", e.raw, e.from)
	}
	return strings.Join(parts, ", ")
}

// apply records a fetch and queues the fetched package's own dependencies.
func (st *graph) apply(res fetchResult) error {
	n := st.nodes[res.job.address]
	n.manifest = res.manifest
	n.root = res.root
	n.fetched = true
	n.fetchedTag = res.job.tag

	from := n.address
	if !n.local {
		from += "@" + n.selected.String()
	}
	return st.addEdges(res.manifest, res.root, from)
}

func localDir(pkgRoot, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(pkgRoot, path)
}
