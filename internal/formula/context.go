package formula

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/solatis/formulary/internal/types"
)

/*
 * Evaluation context.
 *
 * A Context maps field and variable ids to values in the formula value
 * space. NewContext copies its input and normalizes values so the functions
 * only ever see nil, float64, string, bool and []any:
 *
 *   - integer types and json.Number become float64
 *   - NaN and infinities become nil
 *   - typed slices become []any, recursively, down to MaxFlattenDepth
 *   - objects and any other type become nil (the value space has no objects)
 *
 * Every evaluation pass builds its own Context; nothing is shared.
 */

// Context maps identifiers to their current values.
type Context map[string]any

// NewContext builds a normalized copy of data.
func NewContext(data map[string]any) Context {
	ctx := make(Context, len(data))
	for k, v := range data {
		ctx[k] = Normalize(v)
	}
	return ctx
}

// ContextFromJSON decodes a JSON object of form data into a Context.
func ContextFromJSON(raw json.RawMessage) (Context, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Context{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode form data: %w", err)
	}
	return NewContext(data), nil
}

// Lookup returns the value bound to id.
func (c Context) Lookup(id string) (any, bool) {
	v, ok := c[id]
	return v, ok
}

// Clone returns an independent copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// With returns a copy of c with id bound to v.
func (c Context) With(id string, v any) Context {
	out := c.Clone()
	out[id] = Normalize(v)
	return out
}

// Normalize converts v into the formula value space.
func Normalize(v any) any {
	return normalize(v, 0)
}

func normalize(v any, depth int) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool:
		return t
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return normalizeNumber(t)
	case []any:
		return normalizeSlice(t, depth)
	case []string:
		return normalizeSlice(toAnySlice(t), depth)
	case []float64:
		return normalizeSlice(toAnySlice(t), depth)
	case []int:
		return normalizeSlice(toAnySlice(t), depth)
	case []bool:
		return normalizeSlice(toAnySlice(t), depth)
	default:
		return nil
	}
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	}
	if f, ok := ToNumber(v); ok {
		return f
	}
	return nil
}

func normalizeSlice(values []any, depth int) any {
	if depth+1 >= types.MaxFlattenDepth {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalize(v, depth+1)
	}
	return out
}

func toAnySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
