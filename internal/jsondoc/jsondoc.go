// Package jsondoc encodes and decodes the generated JSON documents.
//
// Map keys are sorted and numbers in untyped documents are kept as
// json.Number, so a template that is read and written back is unchanged and
// identical input always produces identical bytes.
package jsondoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Indentation used by the generated files.
const (
	IndentSFC      = 4
	IndentSiteWise = 2
)

var api = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Marshal encodes v with indent spaces per level and a trailing newline.
func Marshal(v any, indent int) ([]byte, error) {
	data, err := api.MarshalIndent(v, "", strings.Repeat(" ", indent))
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// MarshalCompact encodes v without indentation or trailing newline.
func MarshalCompact(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal decodes data into v. Numbers decoded into interfaces are json.Number.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// ReadFile decodes the JSON file at path into v.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WriteFile encodes v and writes it to path, creating parent directories.
func WriteFile(path string, v any, indent int) error {
	data, err := Marshal(v, indent)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Clone deep-copies an untyped JSON value (maps, slices and scalars).
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		// string, bool, json.Number, float64 and nil are immutable
		return v
	}
}
