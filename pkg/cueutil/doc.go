// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE schema utilities.
//
// Two flows are supported:
//
//  1. CUE text documents (the mthds config file): compile the embedded schema,
//     compile the user data, unify, validate and decode ([ParseAndDecode]).
//  2. Documents that were decoded from another format (METHODS.toml): encode the
//     Go value into CUE, unify with the schema and report every violation as a
//     path-prefixed message ([ValidateValue]).
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schema string
//
//	msgs, err := cueutil.ValidateValue(schema, raw, "#Manifest",
//	    cueutil.WithFilename("METHODS.toml"))
//	if err != nil {
//	    return err // schema itself is broken
//	}
//	for _, m := range msgs {
//	    fmt.Println(m) // package.version: conflicting values ...
//	}
package cueutil
