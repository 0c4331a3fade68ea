// SPDX-License-Identifier: MPL-2.0

// Package manifest models METHODS.toml, the package manifest of a method bundle.
//
// A manifest identifies a package by its address (host/org/repo[/subpath]),
// declares the version the author publishes, the pipes each domain exports and
// the dependencies the package needs:
//
//	[package]
//	address = "github.com/acme/legal"
//	version = "1.2.0"
//
//	[exports.legal.contracts]
//	pipes = ["extract_clause"]
//
//	[dependencies]
//	scoring = { address = "github.com/acme/scoring", version = "^1.0.0" }
//
// Two failure policies coexist:
//   - [Parse] is all-or-nothing. A malformed manifest is rejected wholesale with a
//     [*ManifestError] listing every problem found.
//   - [Validate] never fails. It returns a [ValidationResult] so discovery can skip
//     one broken method directory and keep going with the others.
package manifest
