// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:         string
	count:        int & >=0
	enabled:      bool
	description?: string
}
`

type testSettings struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid document parses successfully", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "test"
count: 42
enabled: true
description: "A test document"
`)
		result, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if result.Value.Name != "test" || result.Value.Count != 42 || !result.Value.Enabled {
			t.Errorf("unexpected decoded value: %+v", *result.Value)
		}
	})

	t.Run("decodes into a map", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "m", count: 1, enabled: false`)
		result, err := ParseAndDecodeString[map[string]any](testSchema, data, "#Settings")
		if err != nil {
			t.Fatalf("ParseAndDecodeString failed: %v", err)
		}
		if (*result.Value)["name"] != "m" {
			t.Errorf("name = %v, want m", (*result.Value)["name"])
		}
	})

	t.Run("invalid type returns error with filename", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "test"
count: "not a number"
enabled: true
`)
		_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings", WithFilename("my-config.cue"))
		if err == nil {
			t.Fatal("expected error for invalid type")
		}
		if !strings.Contains(err.Error(), "my-config.cue") {
			t.Errorf("error should contain filename, got: %v", err)
		}
	})

	t.Run("oversized input is rejected", func(t *testing.T) {
		t.Parallel()

		data := []byte(`name: "test", count: 1, enabled: true`)
		_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings", WithMaxFileSize(4))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Errorf("expected size error, got %v", err)
		}
	})

	t.Run("unknown definition is an internal error", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`name: "x"`), "#Missing")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Errorf("expected internal error, got %v", err)
		}
	})
}

func TestValidateValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     map[string]any
		wantValid bool
		wantPath  string
	}{
		{
			name:      "valid value",
			value:     map[string]any{"name": "n", "count": int64(3), "enabled": true},
			wantValid: true,
		},
		{
			name:     "wrong type",
			value:    map[string]any{"name": "n", "count": "three", "enabled": true},
			wantPath: "count",
		},
		{
			name:     "bound violation",
			value:    map[string]any{"name": "n", "count": int64(-1), "enabled": true},
			wantPath: "count",
		},
		{
			name:     "missing required field",
			value:    map[string]any{"name": "n", "count": int64(1)},
			wantPath: "enabled",
		},
		{
			name:     "unknown field on closed definition",
			value:    map[string]any{"name": "n", "count": int64(1), "enabled": true, "extra": 1},
			wantPath: "extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msgs, err := ValidateValue(testSchema, tt.value, "#Settings")
			if err != nil {
				t.Fatalf("ValidateValue() error = %v", err)
			}
			if tt.wantValid {
				if len(msgs) != 0 {
					t.Errorf("expected no messages, got %v", msgs)
				}
				return
			}
			if len(msgs) == 0 {
				t.Fatal("expected validation messages")
			}
			if !strings.Contains(strings.Join(msgs, "\n"), tt.wantPath) {
				t.Errorf("messages %v should mention %q", msgs, tt.wantPath)
			}
		})
	}
}

func TestValidateValue_BrokenSchema(t *testing.T) {
	t.Parallel()

	if _, err := ValidateValue("#Broken: {", map[string]any{}, "#Broken"); err == nil {
		t.Error("expected error for schema that does not compile")
	}
}
