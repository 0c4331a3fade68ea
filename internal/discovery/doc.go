// SPDX-License-Identifier: MPL-2.0

// Package discovery locates method manifests on disk.
//
// It covers two jobs:
//   - FindManifest walks up from a bundle file to the nearest METHODS.toml,
//     stopping at the repository root.
//   - DiscoverLocal and DiscoverRemote enumerate the method directories of a
//     repository. A method with a bad slug or manifest is reported in
//     ResolvedRepo.Skipped and never blocks the others.
package discovery
