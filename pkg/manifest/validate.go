// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mthds/mthds/pkg/cueutil"
)

// ErrValidation is the sentinel error for manifests rejected during discovery.
var ErrValidation = errors.New("manifest validation failed")

//go:embed manifest_schema.cue
var manifestSchema string

// ValidationResult is the outcome of Validate. Exactly one of Manifest
// (when Valid) or Errors (when not) is populated.
type ValidationResult struct {
	Valid    bool
	Manifest *Manifest
	Errors   []string
}

// Err returns nil for a valid result, otherwise an error wrapping ErrValidation.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, r.Errors)
}

// Validate checks manifest text against the structural schema and the naming
// rules. It never returns an error: problems are reported in the result so a
// caller scanning many methods can skip this one and carry on.
func Validate(data []byte) ValidationResult {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return invalid(describeDecodeError(err).Error())
	}

	messages, err := cueutil.ValidateValue(manifestSchema, raw, "#Manifest")
	if err != nil {
		return invalid(err.Error())
	}
	if len(messages) > 0 {
		return invalid(messages...)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return invalid(err.Error())
	}
	m, problems := buildManifest(doc)
	if len(problems) > 0 {
		return invalid(problems...)
	}
	return ValidationResult{Valid: true, Manifest: m}
}

// ValidateFile reads path and validates its content. A read failure is
// reported as an invalid result.
func ValidateFile(path string) ValidationResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return invalid(fmt.Sprintf("failed to read %s: %v", path, err))
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return invalid(err.Error())
	}
	return Validate(data)
}

func invalid(messages ...string) ValidationResult {
	return ValidationResult{Errors: messages}
}
