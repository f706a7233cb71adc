// Package formfile reads and writes form definitions and form-data
// snapshots as JSON, YAML or TOML, chosen by file extension.
package formfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/solatis/formulary/internal/types"
)

// Format is a supported file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFormat accepts a format name or extension (json, yaml, yml, toml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, s)
	}
}

// Load reads a form definition file. Unknown keys are rejected so typos in
// hand-written definitions surface instead of silently dropping a variable.
func Load(path string) (*types.FormDefinition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	form, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return form, nil
}

// Decode parses a form definition in the given format.
func Decode(data []byte, format Format) (*types.FormDefinition, error) {
	var form types.FormDefinition
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&form); err != nil {
			return nil, fmt.Errorf("invalid form json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&form); err != nil && err != io.EOF {
			return nil, fmt.Errorf("invalid form yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &form)
		if err != nil {
			return nil, fmt.Errorf("invalid form toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("invalid form toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
	if form.ID != "" {
		if _, err := types.ParseFormID(string(form.ID)); err != nil {
			return nil, fmt.Errorf("form id %q: %w", form.ID, err)
		}
	}
	return &form, nil
}

// LoadData reads a form-data snapshot: a single object of field id to value.
func LoadData(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	values, err := DecodeData(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// DecodeData parses a form-data snapshot. Values are returned as decoded;
// formula.NewContext normalizes them into the formula value space.
func DecodeData(data []byte, format Format) (map[string]any, error) {
	values := map[string]any{}
	switch format {
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return values, nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("invalid data json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("invalid data yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &values); err != nil {
			return nil, fmt.Errorf("invalid data toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// Encode writes form in the given format.
func Encode(w io.Writer, form *types.FormDefinition, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(form)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(form); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(form)
	default:
		return fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
}
