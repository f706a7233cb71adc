package formula

import (
	"errors"
	"fmt"
	"strings"
)

/*
 * Static formula validation for the form editor.
 *
 * Validation is stricter than evaluation. Evaluation turns every problem
 * into nil; validation reports every problem it can find, in order:
 *
 *   1. the fatal syntax error, if the formula does not parse
 *   2. unknown function names and argument-count mismatches
 *   3. references that are neither a known field nor a known variable,
 *      and references to the variable being validated
 *
 * References are checked even when parsing fails, because extraction is
 * textual and does not need a syntax tree.
 *
 * A formula that is valid but blank at runtime (say, it references a field
 * the user has not filled in yet) is not a validation error.
 */

// ValidateOptions describes what a formula may reference.
type ValidateOptions struct {
	FieldIDs    []string
	VariableIDs []string // sibling variables, excluding the one being validated
	VariableID  string   // id of the variable that owns the formula, if any
}

// FormulaError is one validation problem. Position is the 1-based character
// offset into the formula, or 0 when the problem has no single location.
type FormulaError struct {
	Message  string `json:"message"`
	Position int    `json:"position,omitempty"`
}

// ValidationResult lists every problem found in a formula.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Errors []FormulaError `json:"errors"`
}

// Validate checks syntax, function names, arity and reference resolvability.
func Validate(src string, opts ValidateOptions) ValidationResult {
	result := ValidationResult{Errors: []FormulaError{}}

	if strings.TrimSpace(src) == "" {
		result.Errors = append(result.Errors, FormulaError{Message: "formula cannot be empty"})
		return result
	}

	prog, err := Compile(src)
	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			result.Errors = append(result.Errors, formulaError(src, syntaxErr.Message, syntaxErr.Pos))
		} else {
			result.Errors = append(result.Errors, FormulaError{Message: err.Error()})
		}
	} else {
		for _, d := range prog.Diagnostics() {
			result.Errors = append(result.Errors, formulaError(src, d.Message, d.Pos))
		}
	}

	known := make(map[string]bool, len(opts.FieldIDs)+len(opts.VariableIDs))
	for _, id := range opts.FieldIDs {
		known[id] = true
	}
	for _, id := range opts.VariableIDs {
		if id != opts.VariableID {
			known[id] = true
		}
	}
	for _, ref := range ExtractReferences(src) {
		switch {
		case opts.VariableID != "" && ref.ID == opts.VariableID:
			result.Errors = append(result.Errors, formulaError(src, "formula cannot reference itself", ref.Pos))
		case !known[ref.ID]:
			result.Errors = append(result.Errors, formulaError(src, fmt.Sprintf("unknown field or variable {%s}", ref.ID), ref.Pos))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// formulaError converts a byte offset into a 1-based character position.
func formulaError(src string, message string, pos int) FormulaError {
	if pos > len(src) {
		pos = len(src)
	}
	return FormulaError{Message: message, Position: len([]rune(src[:pos])) + 1}
}
