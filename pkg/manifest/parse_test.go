// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const fullManifest = `
[package]
address = "github.com/acme/legal"
version = "1.2.0"
description = "Contract analysis methods"
authors = ["Ada <ada@example.com>", "Grace <grace@example.com>"]
license = "MIT"
mthds_version = ">=0.5.0"

[exports.legal]
pipes = ["summarize"]

[exports.legal.contracts]
pipes = ["extract_clause", "classify_clause"]

[exports.scoring]
pipes = ["score"]

[dependencies]
scoring = { address = "github.com/acme/scoring", version = "^1.0.0" }
helpers = { address = "github.com/acme/helpers", version = "0.1.0", path = "../helpers" }
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(fullManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Address != "github.com/acme/legal" {
		t.Errorf("Address = %q, want %q", m.Address, "github.com/acme/legal")
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.0")
	}
	if len(m.Authors) != 2 || m.Authors[0] != "Ada <ada@example.com>" {
		t.Errorf("Authors = %v, want ordered list starting with Ada", m.Authors)
	}
	if m.MthdsVersion != ">=0.5.0" {
		t.Errorf("MthdsVersion = %q, want %q", m.MthdsVersion, ">=0.5.0")
	}

	legal := m.Exports["legal"]
	if legal == nil {
		t.Fatal("Exports[legal] is nil")
	}
	if !reflect.DeepEqual(legal.Pipes, []string{"summarize"}) {
		t.Errorf("legal pipes = %v, want [summarize]", legal.Pipes)
	}
	contracts := legal.Children["contracts"]
	if contracts == nil {
		t.Fatal("legal.contracts is nil")
	}
	if !reflect.DeepEqual(contracts.Pipes, []string{"extract_clause", "classify_clause"}) {
		t.Errorf("contracts pipes = %v, want declaration order preserved", contracts.Pipes)
	}

	scoring, ok := m.Dependencies["scoring"]
	if !ok {
		t.Fatal("dependency scoring missing")
	}
	if scoring.IsLocal() {
		t.Error("scoring.IsLocal() = true, want false")
	}
	helpers := m.Dependencies["helpers"]
	if helpers.Path != "../helpers" || !helpers.IsLocal() {
		t.Errorf("helpers = %+v, want local path ../helpers", helpers)
	}
}

func TestParse_Minimal(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(`
[package]
address = "gitlab.com/team/pkg/sub"
version = "0.1.0-beta.1"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Exports != nil || m.Dependencies != nil || m.Authors != nil {
		t.Errorf("expected nil collections, got exports=%v deps=%v authors=%v", m.Exports, m.Dependencies, m.Authors)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "syntax error",
			input:    "[package\naddress = ",
			contains: []string{"syntax error"},
		},
		{
			name:     "missing package section",
			input:    "[dependencies]\n",
			contains: []string{"missing [package] section"},
		},
		{
			name:     "missing required fields",
			input:    "[package]\ndescription = \"x\"\n",
			contains: []string{"package.address is required", "package.version is required"},
		},
		{
			name:     "invalid address",
			input:    "[package]\naddress = \"not-an-address\"\nversion = \"1.0.0\"\n",
			contains: []string{`package.address "not-an-address"`},
		},
		{
			name:     "invalid version",
			input:    "[package]\naddress = \"github.com/a/b\"\nversion = \"1.0\"\n",
			contains: []string{`package.version "1.0" is not a valid semantic version`},
		},
		{
			name:     "v prefixed version rejected",
			input:    "[package]\naddress = \"github.com/a/b\"\nversion = \"v1.0.0\"\n",
			contains: []string{"not a valid semantic version"},
		},
		{
			name:     "unknown field",
			input:    "[package]\naddress = \"github.com/a/b\"\nversion = \"1.0.0\"\nhomepage = \"x\"\n",
			contains: []string{"unknown field"},
		},
		{
			name: "dependency problems are all reported",
			input: `[package]
address = "github.com/a/b"
version = "1.0.0"

[dependencies]
BadAlias = { address = "github.com/a/c", version = "^1.0.0" }
other = { address = "nope", version = "1.x" }
`,
			contains: []string{
				`dependency alias "BadAlias" must be snake_case`,
				`dependencies.other.address "nope"`,
				`dependencies.other.version "1.x" is not a supported constraint`,
			},
		},
		{
			name: "dependency on itself",
			input: `[package]
address = "github.com/a/b"
version = "1.0.0"

[dependencies]
me = { address = "github.com/a/b", version = "*" }
`,
			contains: []string{"refers to the package itself"},
		},
		{
			name: "two aliases for one address",
			input: `[package]
address = "github.com/a/b"
version = "1.0.0"

[dependencies]
one = { address = "github.com/a/c", version = "*" }
two = { address = "github.com/a/c", version = "*" }
`,
			contains: []string{"dependencies one and two both point to github.com/a/c"},
		},
		{
			name: "bad export names",
			input: `[package]
address = "github.com/a/b"
version = "1.0.0"

[exports.Legal]
pipes = ["Summarize", "ok_pipe", "ok_pipe"]
`,
			contains: []string{
				`domain "Legal" must be snake_case`,
				`pipe code "Summarize" must be snake_case`,
				`duplicate pipe code "ok_pipe"`,
			},
		},
		{
			name: "pipes at exports root",
			input: `[package]
address = "github.com/a/b"
version = "1.0.0"

[exports]
pipes = ["x"]
`,
			contains: []string{"exports.pipes must be declared under a domain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !errors.Is(err, ErrManifest) {
				t.Errorf("errors.Is(err, ErrManifest) = false for %v", err)
			}
			var manifestErr *ManifestError
			if !errors.As(err, &manifestErr) {
				t.Fatalf("error type = %T, want *ManifestError", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not contain %q", err.Error(), want)
				}
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"full": fullManifest,
		"minimal": `[package]
address = "github.com/a/b"
version = "2.0.0"
`,
		"nested only": `[package]
address = "github.com/a/b"
version = "2.0.0"

[exports.a.b.c]
pipes = ["deep_pipe"]
`,
		"empty node": `[package]
address = "github.com/a/b"
version = "2.0.0"

[exports.placeholder]
`,
		"path without version": `[package]
address = "github.com/a/b"
version = "2.0.0"

[dependencies]
local = { address = "github.com/a/local", path = "./local" }
`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			first, err := Parse([]byte(input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			data, err := Serialize(first)
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			second, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse(Serialize()) error = %v\n%s", err, data)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("round trip mismatch\nfirst:  %+v\nsecond: %+v\nserialized:\n%s", first, second, data)
			}
		})
	}
}

func TestSerialize_OmitsEmptyPath(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Address: "github.com/a/b",
		Version: "1.0.0",
		Dependencies: map[string]DependencySpec{
			"dep": {Address: "github.com/a/c", Version: "^1.0.0"},
		},
	}
	data, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if strings.Contains(string(data), "path") {
		t.Errorf("serialized dependency contains path:\n%s", data)
	}
	if strings.Contains(string(data), "license") {
		t.Errorf("serialized package contains empty license:\n%s", data)
	}
}

func TestSerialize_Deterministic(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(fullManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first, err := Serialize(m)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	for range 5 {
		again, err := Serialize(m)
		if err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("Serialize() not deterministic:\n%s\nvs\n%s", first, again)
		}
	}
}

func TestWriteFileAndParseFile(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(fullManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("ParseFile() = %+v, want %+v", got, m)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only %s in directory, found %d entries", FileName, len(entries))
	}
}

func TestParseFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(filepath.Join(t.TempDir(), FileName))
	if err == nil {
		t.Fatal("ParseFile() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("errors.Is(err, os.ErrNotExist) = false for %v", err)
	}
}

func TestManifestError_Source(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[package]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ParseFile(path)
	var manifestErr *ManifestError
	if !errors.As(err, &manifestErr) {
		t.Fatalf("error type = %T, want *ManifestError", err)
	}
	if manifestErr.Source != path {
		t.Errorf("Source = %q, want %q", manifestErr.Source, path)
	}
	if len(manifestErr.Errors) != 2 {
		t.Errorf("Errors = %v, want address and version problems", manifestErr.Errors)
	}
}
