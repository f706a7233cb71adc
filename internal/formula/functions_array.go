package formula

import "strings"

// Array functions accept scalars too. A scalar behaves like a one-element
// array unless it is blank, in which case it behaves like an empty one.

// fnCount counts non-blank leaves across all arguments.
func fnCount(args []any) any {
	count := 0
	for _, v := range Flatten(args) {
		if !IsBlank(v) {
			count++
		}
	}
	return float64(count)
}

func fnIsEmpty(args []any) any {
	switch v := arg(args, 0).(type) {
	case []any:
		return len(v) == 0
	default:
		return IsBlank(v)
	}
}

// fnContains checks array membership, or direct equality for a scalar haystack.
func fnContains(args []any) any {
	haystack := arg(args, 0)
	needle := arg(args, 1)
	arr, ok := haystack.([]any)
	if !ok {
		return Equal(haystack, needle)
	}
	for _, v := range Flatten(arr) {
		if Equal(v, needle) {
			return true
		}
	}
	return false
}

// fnJoin joins the non-blank leaves of an array with sep (default ", ").
// A non-array value returns its text form.
func fnJoin(args []any) any {
	arr, ok := arg(args, 0).([]any)
	if !ok {
		return textArg(args, 0)
	}
	sep := ", "
	if len(args) > 1 && args[1] != nil {
		sep = ToText(args[1])
	}
	var b strings.Builder
	for _, v := range Flatten(arr) {
		if IsBlank(v) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(ToText(v))
	}
	return b.String()
}
