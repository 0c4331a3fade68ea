// SPDX-License-Identifier: MPL-2.0

// Package resolver builds the flat, deduplicated dependency list of a package.
//
// Resolution proceeds in waves. Each wave lists tags for newly seen addresses,
// selects a version per address and fetches what changed, fanning out to the
// Source with bounded concurrency. Between waves a single coordinator owns the
// table of addresses, their constraint edges and their selected versions, so
// no locking is needed on that state.
//
// Version selection follows minimal version selection: each edge asks for the
// smallest tag satisfying its constraint and an address settles on the highest
// of those minimums. An address is fetched at most once per selected version,
// which is what makes dependency cycles harmless.
package resolver
