// SPDX-License-Identifier: MPL-2.0

// Package lockfile generates, reads and compares methods.lock files.
//
// A lock file is a full snapshot of a resolution: one entry per package
// address with the selected version, where it came from and a digest of its
// manifest. It is always regenerated as a whole, and its serialized form
// depends only on its content, never on input order or the clock.
package lockfile

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/mthds/mthds/pkg/fspath"
	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/resolver"
	"github.com/mthds/mthds/pkg/vcs"
)

const (
	header = "# methods.lock: generated by mthds, do not edit.\n"

	// LocalSourcePrefix marks a package resolved from a local directory.
	LocalSourcePrefix = "path:"
	// DigestPrefix names the digest algorithm.
	DigestPrefix = "xxh64:"
)

// ErrLockFile is returned when lock file content cannot be read.
var ErrLockFile = errors.New("invalid lock file")

type (
	// LockFile is the content of methods.lock.
	LockFile struct {
		// Root is the address of the package the lock was generated for.
		Root string `toml:"root"`
		// Packages maps a package address to its locked entry.
		Packages map[string]LockedPackage `toml:"packages"`
	}

	// LockedPackage pins one package of the resolution.
	LockedPackage struct {
		Alias   string `toml:"alias"`
		Version string `toml:"version"`
		// Source is the clone URL, or "path:<dir>" for a local package with
		// dir relative to the root package.
		Source string `toml:"source"`
		// Digest fingerprints the package manifest in canonical form.
		Digest string `toml:"digest"`
	}
)

// Generate builds the lock file for root from a completed resolution. rootDir
// anchors the relative paths recorded for local packages.
func Generate(root *manifest.Manifest, rootDir string, deps []resolver.ResolvedDependency) (*LockFile, error) {
	lock := &LockFile{Root: root.Address, Packages: make(map[string]LockedPackage, len(deps))}
	for _, dep := range deps {
		digest, err := Digest(dep.Manifest)
		if err != nil {
			return nil, fmt.Errorf("digest of %s: %w", dep.Address, err)
		}
		entry := LockedPackage{
			Alias:   dep.Alias,
			Version: dep.Version,
			Source:  vcs.AddressToCloneURL(dep.Address),
			Digest:  digest,
		}
		if dep.Local {
			entry.Source = LocalSourcePrefix + relativeSource(rootDir, dep.PackageRoot)
		}
		if prev, dup := lock.Packages[dep.Address]; dup && prev != entry {
			return nil, fmt.Errorf("address %s resolved twice with different results", dep.Address)
		}
		lock.Packages[dep.Address] = entry
	}
	return lock, nil
}

// Digest fingerprints m by hashing its serialized form, so formatting and
// comments in the source file do not affect it.
func Digest(m *manifest.Manifest) (string, error) {
	if m == nil {
		return "", errors.New("no manifest")
	}
	data, err := manifest.Serialize(m)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%016x", DigestPrefix, xxhash.Sum64(data)), nil
}

func relativeSource(rootDir, dir string) string {
	if rel, err := filepath.Rel(rootDir, dir); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(dir)
}

// Addresses returns the locked addresses in sorted order.
func (l *LockFile) Addresses() []string {
	return slices.Sorted(maps.Keys(l.Packages))
}

// Marshal renders the lock file. Entries are sorted by address and an empty
// lock still carries an explicit [packages] table.
func (l *LockFile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	fmt.Fprintf(&buf, "root = %s\n\n[packages]\n", strconv.Quote(l.Root))

	for _, addr := range l.Addresses() {
		entry, err := toml.Marshal(l.Packages[addr])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", addr, err)
		}
		fmt.Fprintf(&buf, "\n[packages.%s]\n", strconv.Quote(addr))
		buf.Write(entry)
	}
	return buf.Bytes(), nil
}

// Parse reads lock file content.
func Parse(data []byte) (*LockFile, error) {
	var lock LockFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lock); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockFile, err)
	}
	if lock.Packages == nil {
		lock.Packages = make(map[string]LockedPackage)
	}
	return &lock, nil
}

// Load reads the lock file at path.
func Load(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	lock, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lock, nil
}

// Save writes the lock file to path atomically.
func (l *LockFile) Save(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return fspath.WriteFileAtomic(path, data, 0o644)
}
