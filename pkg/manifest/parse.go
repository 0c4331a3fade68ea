// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/mthds/mthds/pkg/cueutil"
	"github.com/mthds/mthds/pkg/fspath"
)

const pipesKey = "pipes"

// ErrManifest is the sentinel error wrapped by ManifestError.
var ErrManifest = errors.New("invalid manifest")

type (
	// ManifestError is returned when manifest text cannot be trusted. Errors
	// lists every problem found, not only the first one.
	ManifestError struct {
		// Source names the file or input the manifest came from; may be empty.
		Source string
		Errors []string
	}

	document struct {
		Package      *packageSection              `toml:"package"`
		Exports      map[string]any               `toml:"exports"`
		Dependencies map[string]dependencySection `toml:"dependencies"`
	}

	packageSection struct {
		Address      string   `toml:"address"`
		Version      string   `toml:"version"`
		Description  string   `toml:"description,omitempty"`
		Authors      []string `toml:"authors,omitempty"`
		License      string   `toml:"license,omitempty"`
		MthdsVersion string   `toml:"mthds_version,omitempty"`
	}

	dependencySection struct {
		Address string `toml:"address"`
		Version string `toml:"version,omitempty"`
		Path    string `toml:"path,omitempty"`
	}

	outputDocument struct {
		Package      packageSection               `toml:"package"`
		Exports      map[string]any               `toml:"exports,omitempty"`
		Dependencies map[string]dependencySection `toml:"dependencies,omitempty"`
	}
)

// Error implements the error interface.
func (e *ManifestError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid manifest")
	if e.Source != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Source)
	}
	sb.WriteString(": ")
	sb.WriteString(strings.Join(e.Errors, "; "))
	return sb.String()
}

// Unwrap returns ErrManifest so callers can use errors.Is for programmatic detection.
func (e *ManifestError) Unwrap() error { return ErrManifest }

// Parse parses METHODS.toml content. Any violation rejects the whole manifest.
func Parse(data []byte) (*Manifest, error) {
	return parse(data, "")
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, &ManifestError{Source: path, Errors: []string{err.Error()}}
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*Manifest, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &ManifestError{Source: source, Errors: []string{err.Error()}}
	}
	m, problems := buildManifest(doc)
	if len(problems) > 0 {
		return nil, &ManifestError{Source: source, Errors: problems}
	}
	return m, nil
}

func decodeDocument(data []byte) (*document, error) {
	var doc document
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, describeDecodeError(err)
	}
	return &doc, nil
}

func describeDecodeError(err error) error {
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		keys := make([]string, 0, len(strictErr.Errors))
		for _, e := range strictErr.Errors {
			keys = append(keys, strings.Join(e.Key(), "."))
		}
		return fmt.Errorf("unknown field(s): %s", strings.Join(keys, ", "))
	}
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, col := decErr.Position()
		return fmt.Errorf("syntax error at line %d, column %d: %s", row, col, decErr.Error())
	}
	return err
}

// buildManifest converts a decoded document into a Manifest, collecting every
// rule violation along the way.
func buildManifest(doc *document) (*Manifest, []string) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if doc.Package == nil {
		return nil, []string{"missing [package] section"}
	}
	pkg := doc.Package

	switch {
	case pkg.Address == "":
		addf("package.address is required")
	case !IsValidAddress(pkg.Address):
		addf("package.address %q must look like host/org/repo[/subpath]", pkg.Address)
	}
	switch {
	case pkg.Version == "":
		addf("package.version is required")
	default:
		if _, err := semver.StrictNewVersion(pkg.Version); err != nil {
			addf("package.version %q is not a valid semantic version", pkg.Version)
		}
	}
	if pkg.MthdsVersion != "" {
		if _, err := semver.NewConstraint(pkg.MthdsVersion); err != nil {
			addf("package.mthds_version %q is not a valid version constraint", pkg.MthdsVersion)
		}
	}

	m := &Manifest{
		Address:      pkg.Address,
		Version:      pkg.Version,
		Description:  pkg.Description,
		Authors:      nilIfEmpty(pkg.Authors),
		License:      pkg.License,
		MthdsVersion: pkg.MthdsVersion,
	}

	for _, domain := range slices.Sorted(maps.Keys(doc.Exports)) {
		if domain == pipesKey {
			addf("exports.pipes must be declared under a domain, e.g. [exports.<domain>]")
			continue
		}
		node, nodeProblems := buildExportNode("exports."+domain, domain, doc.Exports[domain])
		problems = append(problems, nodeProblems...)
		if node != nil {
			if m.Exports == nil {
				m.Exports = make(map[string]*ExportNode)
			}
			m.Exports[domain] = node
		}
	}

	seenAddress := make(map[string]string)
	for _, alias := range slices.Sorted(maps.Keys(doc.Dependencies)) {
		dep := doc.Dependencies[alias]
		if !IsSnakeCase(alias) {
			addf("dependency alias %q must be snake_case", alias)
		}
		switch {
		case dep.Address == "":
			addf("dependencies.%s.address is required", alias)
		case !IsValidAddress(dep.Address):
			addf("dependencies.%s.address %q must look like host/org/repo[/subpath]", alias, dep.Address)
		case dep.Address == pkg.Address:
			addf("dependencies.%s refers to the package itself", alias)
		}
		if other, dup := seenAddress[dep.Address]; dup && dep.Address != "" {
			addf("dependencies %s and %s both point to %s", other, alias, dep.Address)
		} else {
			seenAddress[dep.Address] = alias
		}
		switch {
		case dep.Version == "" && dep.Path == "":
			addf("dependencies.%s.version is required unless path is set", alias)
		case dep.Version != "" && !IsValidConstraint(dep.Version):
			addf("dependencies.%s.version %q is not a supported constraint (use *, X.Y.Z, ^X.Y.Z, ~X.Y.Z or >=X.Y.Z)", alias, dep.Version)
		}
		if m.Dependencies == nil {
			m.Dependencies = make(map[string]DependencySpec)
		}
		m.Dependencies[alias] = DependencySpec(dep)
	}

	return m, problems
}

func buildExportNode(path, segment string, raw any) (*ExportNode, []string) {
	var problems []string
	if !IsSnakeCase(segment) {
		problems = append(problems, fmt.Sprintf("%s: domain %q must be snake_case", path, segment))
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, append(problems, fmt.Sprintf("%s must be a table", path))
	}

	node := &ExportNode{}
	for _, key := range slices.Sorted(maps.Keys(table)) {
		if key == pipesKey {
			pipes, pipeProblems := buildPipeList(path, table[key])
			problems = append(problems, pipeProblems...)
			node.Pipes = pipes
			continue
		}
		child, childProblems := buildExportNode(path+"."+key, key, table[key])
		problems = append(problems, childProblems...)
		if child != nil {
			if node.Children == nil {
				node.Children = make(map[string]*ExportNode)
			}
			node.Children[key] = child
		}
	}
	return node, problems
}

func buildPipeList(path string, raw any) ([]string, []string) {
	items, ok := raw.([]any)
	if !ok {
		return nil, []string{fmt.Sprintf("%s.pipes must be an array of pipe codes", path)}
	}
	var (
		pipes    []string
		problems []string
		seen     = make(map[string]bool, len(items))
	)
	for _, item := range items {
		code, ok := item.(string)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s.pipes contains a non-string value %v", path, item))
			continue
		}
		if !IsSnakeCase(code) {
			problems = append(problems, fmt.Sprintf("%s.pipes: pipe code %q must be snake_case", path, code))
		}
		if seen[code] {
			problems = append(problems, fmt.Sprintf("%s.pipes: duplicate pipe code %q", path, code))
			continue
		}
		seen[code] = true
		pipes = append(pipes, code)
	}
	return pipes, problems
}

// Serialize renders m as METHODS.toml content. Keys are emitted in sorted
// order, so the output is stable for equal manifests.
func Serialize(m *Manifest) ([]byte, error) {
	out := outputDocument{
		Package: packageSection{
			Address:      m.Address,
			Version:      m.Version,
			Description:  m.Description,
			Authors:      m.Authors,
			License:      m.License,
			MthdsVersion: m.MthdsVersion,
		},
	}
	if len(m.Exports) > 0 {
		out.Exports = make(map[string]any, len(m.Exports))
		for name, node := range m.Exports {
			out.Exports[name] = exportTable(node)
		}
	}
	if len(m.Dependencies) > 0 {
		out.Dependencies = make(map[string]dependencySection, len(m.Dependencies))
		for alias, dep := range m.Dependencies {
			out.Dependencies[alias] = dependencySection(dep)
		}
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func exportTable(node *ExportNode) map[string]any {
	table := make(map[string]any)
	if node == nil {
		table[pipesKey] = []string{}
		return table
	}
	// An empty table may be dropped by the encoder; keep the node visible.
	if len(node.Pipes) > 0 || len(node.Children) == 0 {
		pipes := node.Pipes
		if pipes == nil {
			pipes = []string{}
		}
		table[pipesKey] = pipes
	}
	for name, child := range node.Children {
		table[name] = exportTable(child)
	}
	return table
}

// WriteFile serializes m and writes it to path atomically.
func WriteFile(path string, m *Manifest) error {
	data, err := Serialize(m)
	if err != nil {
		return err
	}
	return fspath.WriteFileAtomic(path, data, 0o644)
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
