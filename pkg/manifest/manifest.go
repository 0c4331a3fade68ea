// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// FileName is the manifest file name at the root of a package or method directory.
	FileName = "METHODS.toml"
	// LockFileName is the lock file written next to the manifest.
	LockFileName = "methods.lock"
	// BundleExt is the file extension of bundle files.
	BundleExt = ".mthds"
)

type (
	// Manifest is a parsed METHODS.toml.
	Manifest struct {
		Address      string
		Version      string
		Description  string
		Authors      []string
		License      string
		MthdsVersion string
		// Exports maps a top-level domain segment to its export node.
		Exports map[string]*ExportNode
		// Dependencies maps an alias to its dependency spec.
		Dependencies map[string]DependencySpec
	}

	// ExportNode lists the pipes a domain exports. Children hold nested
	// sub-domains keyed by their segment name.
	ExportNode struct {
		Pipes    []string
		Children map[string]*ExportNode
	}

	// DependencySpec is one entry of the [dependencies] table.
	DependencySpec struct {
		Address string
		Version string
		// Path overrides VCS resolution with a local directory, relative to
		// the declaring package's root unless absolute.
		Path string
	}
)

// IsLocal reports whether the dependency resolves from a local path.
func (d DependencySpec) IsLocal() bool { return d.Path != "" }

// DependencyAliases returns the dependency aliases in sorted order.
func (m *Manifest) DependencyAliases() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

// ExportedPipes flattens the export tree into dotted domain paths mapped to
// their sorted pipe codes. Domains that export no pipes directly are omitted.
func (m *Manifest) ExportedPipes() map[string][]string {
	out := make(map[string][]string)
	for name, node := range m.Exports {
		flattenExports(name, node, out)
	}
	return out
}

func flattenExports(path string, node *ExportNode, out map[string][]string) {
	if node == nil {
		return
	}
	if len(node.Pipes) > 0 {
		out[path] = slices.Sorted(slices.Values(node.Pipes))
	}
	for name, child := range node.Children {
		flattenExports(path+"."+name, child, out)
	}
}

// IsPipeExported reports whether the pipe code is exported by the given dotted domain path.
func (m *Manifest) IsPipeExported(domainPath, code string) bool {
	node := m.ExportNode(domainPath)
	return node != nil && slices.Contains(node.Pipes, code)
}

// ExportNode returns the export node for a dotted domain path, or nil.
func (m *Manifest) ExportNode(domainPath string) *ExportNode {
	segments := strings.Split(domainPath, ".")
	node := m.Exports[segments[0]]
	for _, seg := range segments[1:] {
		if node == nil {
			return nil
		}
		node = node.Children[seg]
	}
	return node
}

// CheckCompatibility checks the manifest's mthds_version constraint against the
// running tool version. A manifest without a constraint is always compatible.
func (m *Manifest) CheckCompatibility(toolVersion string) error {
	if m.MthdsVersion == "" {
		return nil
	}
	c, err := semver.NewConstraint(m.MthdsVersion)
	if err != nil {
		return fmt.Errorf("package %s: invalid mthds_version %q: %w", m.Address, m.MthdsVersion, err)
	}
	v, err := semver.NewVersion(toolVersion)
	if err != nil {
		return fmt.Errorf("invalid tool version %q: %w", toolVersion, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("package %s requires mthds %s, running %s", m.Address, m.MthdsVersion, toolVersion)
	}
	return nil
}
