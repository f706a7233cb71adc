package formula

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/solatis/formulary/internal/types"
)

/*
 * Value coercion shared by every built-in function and by the evaluator.
 *
 * The value space is deliberately small: nil (blank), float64, string, bool
 * and []any of those. There is no error value. A failed coercion yields
 * ok=false and callers turn that into nil, which is the blank cell of the
 * spreadsheet analogy.
 *
 * Blank rule: nil and "" are blank. Whitespace-only strings are not blank.
 *
 * Truthiness rule (IsTruthy):
 *   - blank -> false
 *   - bool passthrough
 *   - number -> nonzero
 *   - "false", "no", "0" (case-insensitive) -> false, other strings -> true
 *   - arrays -> non-empty
 *
 * Numeric rule (ToNumber):
 *   - numbers pass through when finite
 *   - strings are trimmed and parsed; non-numeric text fails
 *   - booleans map to 1/0
 *   - blank and arrays fail
 */

// ToNumber coerces v to a finite float64.
// ok=false means v carries no numeric value.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, isFinite(n)
	case float32:
		return float64(n), isFinite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, isFinite(f)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToText renders v as text. Blank renders as "".
// Arrays join their elements with "," and numbers use the shortest exact form.
func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = ToText(elem)
		}
		return strings.Join(parts, ",")
	default:
		if f, ok := ToNumber(v); ok {
			return formatNumber(f)
		}
		return ""
	}
}

// IsBlank reports whether v is nil or the empty string.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// IsTruthy applies the shared truthiness rule.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		if t == "" {
			return false
		}
		switch strings.ToLower(t) {
		case "false", "no", "0":
			return false
		}
		return true
	case []any:
		return len(t) > 0
	default:
		f, ok := ToNumber(v)
		return ok && f != 0
	}
}

// IsNumber reports whether v is a numeric value (not a numeric string).
func IsNumber(v any) bool {
	switch n := v.(type) {
	case float64:
		return isFinite(n)
	case float32:
		return isFinite(float64(n))
	case int, int64, int32:
		return true
	default:
		return false
	}
}

// Flatten expands nested arrays into a single list of scalars.
// Nesting deeper than types.MaxFlattenDepth is dropped.
func Flatten(values []any) []any {
	out := make([]any, 0, len(values))
	return flattenInto(out, values, 0)
}

func flattenInto(out []any, values []any, depth int) []any {
	for _, v := range values {
		if arr, ok := v.([]any); ok {
			if depth+1 >= types.MaxFlattenDepth {
				continue
			}
			out = flattenInto(out, arr, depth+1)
			continue
		}
		out = append(out, v)
	}
	return out
}

// numbers flattens args and keeps every leaf that coerces to a number.
// Blank and non-numeric leaves are dropped.
func numbers(args []any) []float64 {
	flat := Flatten(args)
	out := make([]float64, 0, len(flat))
	for _, v := range flat {
		if f, ok := ToNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Equal is strict value equality used by SWITCH and CONTAINS.
// Numbers compare numerically regardless of Go type; no cross-type coercion,
// so "1" does not equal 1.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumber(a) || IsNumber(b) {
		if !IsNumber(a) || !IsNumber(b) {
			return false
		}
		na, _ := ToNumber(a)
		nb, _ := ToNumber(b)
		return na == nb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// number wraps a float result, mapping NaN and infinities to blank.
func number(f float64) any {
	if !isFinite(f) {
		return nil
	}
	if f == 0 {
		return 0.0 // normalizes negative zero
	}
	return f
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// formatNumber renders f without exponent for the magnitudes forms deal with.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	if math.Abs(f) >= 1e21 || math.Abs(f) < 1e-7 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
