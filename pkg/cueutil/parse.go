// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the unified CUE value, available for callers that need to
	// inspect defaults or additional fields after decoding.
	Unified cue.Value
}

// ParseAndDecode performs the 3-step CUE parsing flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to T
//
// schemaPath is the root definition inside the schema (e.g. "#Config").
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaRoot, err := lookupSchema(ctx, schema, schemaPath)
	if err != nil {
		return nil, err
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	unified := schemaRoot.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

// ParseAndDecodeString is a convenience wrapper that accepts schema as string.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

// ValidateValue checks an already-decoded Go value (maps, slices, scalars) against
// the schema definition at schemaPath.
//
// Violations are returned as messages, one per CUE error, each prefixed with the
// JSON-style path of the offending field. The error return is reserved for a
// broken schema: callers treat violations as data, not as failures.
func ValidateValue(schema string, value any, schemaPath string, opts ...Option) ([]string, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	ctx := cuecontext.New()

	schemaRoot, err := lookupSchema(ctx, []byte(schema), schemaPath)
	if err != nil {
		return nil, err
	}

	data := ctx.Encode(value)
	if data.Err() != nil {
		return ErrorMessages(data.Err()), nil
	}

	unified := schemaRoot.Unify(data)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return ErrorMessages(err), nil
	}

	return nil, nil
}

// lookupSchema compiles schema and returns the definition at schemaPath.
func lookupSchema(ctx *cue.Context, schema []byte, schemaPath string) (cue.Value, error) {
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	return root, nil
}
