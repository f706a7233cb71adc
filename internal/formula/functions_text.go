package formula

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/solatis/formulary/internal/types"
)

// Text functions operate on runes. Blank arguments render as "".
// MID, REPLACE, FIND and SEARCH use 1-based positions.

func fnConcat(args []any) any {
	var b strings.Builder
	for _, v := range Flatten(args) {
		b.WriteString(ToText(v))
	}
	return b.String()
}

func fnUpper(args []any) any {
	return strings.ToUpper(textArg(args, 0))
}

func fnLower(args []any) any {
	return strings.ToLower(textArg(args, 0))
}

func fnTrim(args []any) any {
	return strings.TrimSpace(textArg(args, 0))
}

func fnLen(args []any) any {
	return float64(utf8.RuneCountInString(textArg(args, 0)))
}

func fnLeft(args []any) any {
	text := []rune(textArg(args, 0))
	count, ok := intArg(args, 1, 1)
	if !ok || count < 0 {
		return ""
	}
	if count > len(text) {
		count = len(text)
	}
	return string(text[:count])
}

func fnRight(args []any) any {
	text := []rune(textArg(args, 0))
	count, ok := intArg(args, 1, 1)
	if !ok || count < 0 {
		return ""
	}
	if count > len(text) {
		count = len(text)
	}
	return string(text[len(text)-count:])
}

func fnMid(args []any) any {
	text := []rune(textArg(args, 0))
	start, ok := intArg(args, 1, 1)
	if !ok || start < 1 {
		return ""
	}
	count, ok := intArg(args, 2, 0)
	if !ok || count < 0 {
		return ""
	}
	from := start - 1
	if from >= len(text) {
		return ""
	}
	to := from + count
	if to > len(text) {
		to = len(text)
	}
	return string(text[from:to])
}

// fnReplace swaps count characters starting at start for the new text.
// Invalid positions or counts leave the input unmodified.
func fnReplace(args []any) any {
	original := textArg(args, 0)
	text := []rune(original)
	start, ok := intArg(args, 1, 1)
	if !ok || start < 1 {
		return original
	}
	count, ok := intArg(args, 2, 0)
	if !ok || count < 0 {
		return original
	}
	from := min(start-1, len(text))
	to := min(from+count, len(text))
	return string(text[:from]) + textArg(args, 3) + string(text[to:])
}

// fnSubstitute replaces every occurrence of old, or only the Nth when an
// instance is given. An empty old string is a no-op.
func fnSubstitute(args []any) any {
	text := textArg(args, 0)
	old := textArg(args, 1)
	replacement := textArg(args, 2)
	if old == "" {
		return text
	}
	if IsBlank(arg(args, 3)) {
		return strings.ReplaceAll(text, old, replacement)
	}
	instance, ok := intArg(args, 3, 0)
	if !ok || instance < 1 {
		return text
	}
	offset := 0
	for n := 1; ; n++ {
		idx := strings.Index(text[offset:], old)
		if idx < 0 {
			return text
		}
		at := offset + idx
		if n == instance {
			return text[:at] + replacement + text[at+len(old):]
		}
		offset = at + len(old)
	}
}

func fnFind(args []any) any {
	return findText(textArg(args, 0), textArg(args, 1), args)
}

func fnSearch(args []any) any {
	return findText(strings.ToLower(textArg(args, 0)), strings.ToLower(textArg(args, 1)), args)
}

// findText returns the 1-based rune position of search in text starting at
// the optional third argument, or nil when absent or the start is invalid.
func findText(search, text string, args []any) any {
	start, ok := intArg(args, 2, 1)
	if !ok || start < 1 {
		return nil
	}
	runes := []rune(text)
	if start-1 > len(runes) {
		return nil
	}
	rest := string(runes[start-1:])
	idx := strings.Index(rest, search)
	if idx < 0 {
		return nil
	}
	return float64(start + utf8.RuneCountInString(rest[:idx]))
}

// fnRept repeats text, capped at types.MaxRepeatCount repetitions.
func fnRept(args []any) any {
	text := textArg(args, 0)
	count, ok := intArg(args, 1, 0)
	if !ok || count <= 0 {
		return ""
	}
	if count > types.MaxRepeatCount {
		count = types.MaxRepeatCount
	}
	return strings.Repeat(text, count)
}

// fnText formats a number with a minimal spreadsheet-style format.
//
// A format containing "%" renders a percentage whose decimals are the number
// of characters after the first "." minus one (the "%" itself), so "0.00%"
// gives two decimals and "0%" or "00%" give none. A format containing "."
// renders fixed decimals, one per character after the ".". Anything else, or
// a value without a numeric form, renders the plain text form.
func fnText(args []any) any {
	value := arg(args, 0)
	format := textArg(args, 1)
	n, ok := ToNumber(value)
	if !ok {
		return ToText(value)
	}
	switch {
	case strings.Contains(format, "%"):
		decimals := clampDecimals(utf8.RuneCountInString(afterDecimalPoint(format)) - 1)
		return strconv.FormatFloat(n*100, 'f', decimals, 64) + "%"
	case strings.Contains(format, "."):
		decimals := clampDecimals(utf8.RuneCountInString(afterDecimalPoint(format)))
		return strconv.FormatFloat(n, 'f', decimals, 64)
	default:
		return ToText(value)
	}
}

func afterDecimalPoint(format string) string {
	_, after, found := strings.Cut(format, ".")
	if !found {
		return ""
	}
	return after
}

func clampDecimals(d int) int {
	if d < 0 {
		return 0
	}
	if d > 20 {
		return 20
	}
	return d
}
