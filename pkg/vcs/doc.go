// SPDX-License-Identifier: MPL-2.0

// Package vcs maps package addresses to Git repositories, selects versions
// from their tags and fetches them into a local cache.
//
// Version selection is minimal: for a constraint, the smallest tag that
// satisfies it wins. A dependent only moves to a newer release when some
// manifest raises its required minimum. Selection is pure and works on an
// in-memory tag list; only GitFetcher touches the network.
package vcs
