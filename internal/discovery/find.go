// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mthds/mthds/pkg/manifest"
)

// vcsMarker marks a repository root; the manifest search never crosses it.
const vcsMarker = ".git"

// FindManifest returns the path and parsed content of the nearest manifest
// above bundlePath. The search checks each directory from the bundle's own
// up to and including the first one containing .git, or the filesystem root.
// When no manifest is found it returns an empty path, a nil manifest and no
// error. A manifest that exists but does not parse is an error.
func FindManifest(bundlePath string) (string, *manifest.Manifest, error) {
	abs, err := filepath.Abs(bundlePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve %s: %w", bundlePath, err)
	}

	dir := abs
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		candidate := filepath.Join(dir, manifest.FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			m, err := manifest.ParseFile(candidate)
			if err != nil {
				return "", nil, err
			}
			return candidate, m, nil
		}
		if exists(filepath.Join(dir, vcsMarker)) {
			return "", nil, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
