// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrDrift is the sentinel error wrapped by DriftError.
var ErrDrift = errors.New("lock file is out of date")

// DriftError reports a lock file that no longer matches the resolved graph.
type DriftError struct {
	Path    string
	Changes []Change
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	lines := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		lines[i] = c.String()
	}
	return fmt.Sprintf("%s is out of date (%d change(s)): %s", e.Path, len(e.Changes), strings.Join(lines, "; "))
}

// Unwrap returns ErrDrift for errors.Is() compatibility.
func (e *DriftError) Unwrap() error { return ErrDrift }

// Check returns a *DriftError when desired differs from current, nil otherwise.
func Check(path string, current, desired *LockFile) error {
	if changes := Diff(current, desired); len(changes) > 0 {
		return &DriftError{Path: path, Changes: changes}
	}
	return nil
}

// ChangeKind classifies a difference between two lock files.
type ChangeKind string

// Change kinds reported by Diff.
const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeVersion ChangeKind = "version"
	ChangeSource  ChangeKind = "source"
	ChangeDigest  ChangeKind = "digest"
	ChangeAlias   ChangeKind = "alias"
	ChangeRoot    ChangeKind = "root"
)

// Change is one difference found by Diff.
type Change struct {
	Address string
	Kind    ChangeKind
	Old     string
	New     string
}

// String renders the change for display.
func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+ %s %s", c.Address, c.New)
	case ChangeRemoved:
		return fmt.Sprintf("- %s %s", c.Address, c.Old)
	default:
		return fmt.Sprintf("~ %s %s: %s -> %s", c.Address, c.Kind, c.Old, c.New)
	}
}

// Diff lists what changes when going from current to desired, sorted by
// address. Nil current counts as an empty lock file.
func Diff(current, desired *LockFile) []Change {
	if current == nil {
		current = &LockFile{}
	}
	var changes []Change
	if current.Root != "" && current.Root != desired.Root {
		changes = append(changes, Change{Address: desired.Root, Kind: ChangeRoot, Old: current.Root, New: desired.Root})
	}

	all := make(map[string]bool, len(current.Packages)+len(desired.Packages))
	for addr := range current.Packages {
		all[addr] = true
	}
	for addr := range desired.Packages {
		all[addr] = true
	}

	for _, addr := range slices.Sorted(maps.Keys(all)) {
		old, inOld := current.Packages[addr]
		cur, inNew := desired.Packages[addr]
		switch {
		case !inOld:
			changes = append(changes, Change{Address: addr, Kind: ChangeAdded, New: cur.Version})
		case !inNew:
			changes = append(changes, Change{Address: addr, Kind: ChangeRemoved, Old: old.Version})
		default:
			changes = append(changes, entryChanges(addr, old, cur)...)
		}
	}
	return changes
}

func entryChanges(addr string, old, cur LockedPackage) []Change {
	var changes []Change
	if old.Version != cur.Version {
		changes = append(changes, Change{Address: addr, Kind: ChangeVersion, Old: old.Version, New: cur.Version})
	}
	if old.Source != cur.Source {
		changes = append(changes, Change{Address: addr, Kind: ChangeSource, Old: old.Source, New: cur.Source})
	}
	// A version change already implies a different manifest.
	if old.Digest != cur.Digest && old.Version == cur.Version {
		changes = append(changes, Change{Address: addr, Kind: ChangeDigest, Old: old.Digest, New: cur.Digest})
	}
	if old.Alias != cur.Alias {
		changes = append(changes, Change{Address: addr, Kind: ChangeAlias, Old: old.Alias, New: cur.Alias})
	}
	return changes
}
