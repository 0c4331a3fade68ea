// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
)

// ErrPackage is the sentinel error wrapped by PackageError.
var ErrPackage = errors.New("package resolution failed")

// PackageError reports a failure that aborts the whole resolution, such as
// irreconcilable constraints or a dependency whose manifest cannot be used.
type PackageError struct {
	Address string
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	msg := fmt.Sprintf("package %s: %s", e.Address, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrPackage and the underlying cause.
func (e *PackageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPackage}
	}
	return []error{ErrPackage, e.Err}
}
