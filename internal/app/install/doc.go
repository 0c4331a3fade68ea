// SPDX-License-Identifier: MPL-2.0

// Package install orchestrates the lock and install workflows: it reads the
// root manifest, resolves the dependency graph, and reconciles the result with
// methods.lock. Configuration is read by the caller and passed in explicitly.
package install
