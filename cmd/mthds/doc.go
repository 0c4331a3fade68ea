// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the mthds command line interface.
//
// The CLI is a thin layer over the engine packages: it loads configuration,
// wires a Git-backed package source, and renders results and errors. Every
// command takes an App so tests can swap the configuration provider and the
// package source.
package cmd
