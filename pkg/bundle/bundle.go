// SPDX-License-Identifier: MPL-2.0

// Package bundle scans .mthds bundle files to infer what each domain exports.
//
// A bundle file is a TOML document naming its domain and defining pipes under
// the [pipe] table:
//
//	domain = "legal.contracts"
//	main_pipe = "review"
//
//	[pipe.review]
//	...
//
// Scanning is best effort. A file that cannot be read or lacks a valid domain
// adds a message to ScanResult.Errors and the remaining files are still scanned.
package bundle

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mthds/mthds/pkg/manifest"
)

type (
	// ScanResult aggregates the pipes of every scanned file by domain.
	ScanResult struct {
		Domains map[string]*DomainExports
		// Errors lists problems found while scanning, sorted.
		Errors []string
	}

	// DomainExports lists what one domain exports across all its files.
	DomainExports struct {
		Domain string
		// MainPipe is the first main_pipe declared for the domain, if any.
		MainPipe string
		// Pipes is sorted and always contains MainPipe when it is set.
		Pipes []string
	}

	bundleDocument struct {
		Domain   any            `toml:"domain"`
		MainPipe any            `toml:"main_pipe"`
		Pipe     map[string]any `toml:"pipe"`
	}

	// scanner accumulates file contents in encounter order.
	scanner struct {
		pipes    map[string]map[string]bool
		mainPipe map[string]string
		mainFrom map[string]string
		errors   []string
	}
)

func newScanner() *scanner {
	return &scanner{
		pipes:    make(map[string]map[string]bool),
		mainPipe: make(map[string]string),
		mainFrom: make(map[string]string),
	}
}

// ScanFiles scans the bundle files at paths, in the given order.
func ScanFiles(paths []string) ScanResult {
	s := newScanner()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.errorf("%s: %v", path, err)
			continue
		}
		s.add(path, data)
	}
	return s.result()
}

// ScanDir scans every .mthds file below dir in lexical path order. Hidden
// directories are skipped.
func ScanDir(dir string) (ScanResult, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == manifest.BundleExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return ScanFiles(paths), nil
}

// ScanSources scans in-memory bundle contents keyed by name, in name order.
func ScanSources(sources map[string][]byte) ScanResult {
	s := newScanner()
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		s.add(name, sources[name])
	}
	return s.result()
}

func (s *scanner) errorf(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func (s *scanner) add(name string, data []byte) {
	var doc bundleDocument
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		s.errorf("%s: %v", name, err)
		return
	}

	domain, ok := doc.Domain.(string)
	switch {
	case doc.Domain == nil:
		s.errorf("%s: missing domain", name)
		return
	case !ok:
		s.errorf("%s: domain must be a string", name)
		return
	case !IsValidDomain(domain):
		s.errorf("%s: invalid domain %q (expected dot-separated snake_case segments)", name, domain)
		return
	}
	slog.Debug("scanned bundle", "file", name, "domain", domain, "pipes", len(doc.Pipe))

	set := s.pipes[domain]
	if set == nil {
		set = make(map[string]bool)
		s.pipes[domain] = set
	}
	for _, code := range slices.Sorted(maps.Keys(doc.Pipe)) {
		if !manifest.IsSnakeCase(code) {
			s.errorf("%s: pipe code %q must be snake_case", name, code)
			continue
		}
		set[code] = true
	}

	if doc.MainPipe == nil {
		return
	}
	mainPipe, ok := doc.MainPipe.(string)
	if !ok || !manifest.IsSnakeCase(mainPipe) {
		s.errorf("%s: invalid main_pipe %v", name, doc.MainPipe)
		return
	}
	existing, seen := s.mainPipe[domain]
	switch {
	case !seen:
		s.mainPipe[domain] = mainPipe
		s.mainFrom[domain] = name
	case existing != mainPipe:
		s.errorf("%s: main_pipe %q for domain %q conflicts with %q from %s; keeping %q",
			name, mainPipe, domain, existing, s.mainFrom[domain], existing)
	}
}

func (s *scanner) result() ScanResult {
	res := ScanResult{Domains: make(map[string]*DomainExports, len(s.pipes))}
	for domain, set := range s.pipes {
		main := s.mainPipe[domain]
		if main != "" {
			set[main] = true
		}
		res.Domains[domain] = &DomainExports{
			Domain:   domain,
			MainPipe: main,
			Pipes:    slices.Sorted(maps.Keys(set)),
		}
	}
	if len(s.errors) > 0 {
		res.Errors = slices.Sorted(slices.Values(s.errors))
	}
	return res
}

// DomainNames returns the scanned domains in sorted order.
func (r ScanResult) DomainNames() []string {
	return slices.Sorted(maps.Keys(r.Domains))
}

// Exports converts the result into manifest export nodes, nesting dotted
// domains: "legal.contracts" becomes Exports["legal"].Children["contracts"].
func (r ScanResult) Exports() map[string]*manifest.ExportNode {
	if len(r.Domains) == 0 {
		return nil
	}
	out := make(map[string]*manifest.ExportNode)
	for _, name := range r.DomainNames() {
		segments := strings.Split(name, ".")
		node := out[segments[0]]
		if node == nil {
			node = &manifest.ExportNode{}
			out[segments[0]] = node
		}
		for _, seg := range segments[1:] {
			child := node.Children[seg]
			if child == nil {
				if node.Children == nil {
					node.Children = make(map[string]*manifest.ExportNode)
				}
				child = &manifest.ExportNode{}
				node.Children[seg] = child
			}
			node = child
		}
		if pipes := r.Domains[name].Pipes; len(pipes) > 0 {
			node.Pipes = slices.Clone(pipes)
		}
	}
	return out
}

// IsValidDomain reports whether domain is one or more dot-separated snake_case segments.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	for seg := range strings.SplitSeq(domain, ".") {
		if !manifest.IsSnakeCase(seg) {
			return false
		}
	}
	return true
}
