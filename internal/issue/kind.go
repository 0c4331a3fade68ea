// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"

	"github.com/mthds/mthds/pkg/lockfile"
	"github.com/mthds/mthds/pkg/manifest"
	"github.com/mthds/mthds/pkg/qualref"
	"github.com/mthds/mthds/pkg/resolver"
	"github.com/mthds/mthds/pkg/vcs"
)

// ErrorKind names the component an error originated from.
type ErrorKind string

const (
	KindUnknown           ErrorKind = ""
	KindManifest          ErrorKind = "manifest"
	KindValidation        ErrorKind = "validation"
	KindQualifiedRef      ErrorKind = "qualified_ref"
	KindVersionResolution ErrorKind = "version_resolution"
	KindPackage           ErrorKind = "package"
	KindVCS               ErrorKind = "vcs"
	KindLockFile          ErrorKind = "lock_file"
	KindLockDrift         ErrorKind = "lock_drift"
	KindNotFound          ErrorKind = "not_found"
)

// kindOrder lists sentinels from the outermost meaning inward: a package
// error caused by a fetch failure is still a package error.
var kindOrder = []struct {
	sentinel error
	kind     ErrorKind
	issue    Id
}{
	{resolver.ErrPackage, KindPackage, DependencyConflictId},
	{vcs.ErrVersionResolution, KindVersionResolution, VersionResolutionFailedId},
	{vcs.ErrVCS, KindVCS, FetchFailedId},
	{qualref.ErrQualifiedRef, KindQualifiedRef, InvalidReferenceId},
	{manifest.ErrValidation, KindValidation, ManifestInvalidId},
	{manifest.ErrManifest, KindManifest, ManifestInvalidId},
	{lockfile.ErrDrift, KindLockDrift, LockFileDriftId},
	{lockfile.ErrLockFile, KindLockFile, LockFileInvalidId},
	{fs.ErrNotExist, KindNotFound, ManifestNotFoundId},
}

// KindOf reports which component err came from, or KindUnknown.
func KindOf(err error) ErrorKind {
	for _, k := range kindOrder {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindUnknown
}

// ForError returns the catalog entry that helps with err, or nil.
func ForError(err error) *Issue {
	for _, k := range kindOrder {
		if errors.Is(err, k.sentinel) {
			return Get(k.issue)
		}
	}
	return nil
}
