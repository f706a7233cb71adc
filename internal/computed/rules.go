package computed

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/solatis/formulary/internal/depgraph"
	"github.com/solatis/formulary/internal/formula"
	"github.com/solatis/formulary/internal/types"
)

/*
 * Set-level rules for computed variables, checked before a form is stored.
 *
 * Per variable, at most one error is reported for each of id, name and
 * result_type; formula problems are reported individually because the
 * author fixes them one by one:
 *
 *   id           required, matches cv_*, unique
 *   name         required, at most MaxVariableNameLength characters,
 *                unique case-insensitively (the later declaration is flagged)
 *   formula      required, at most MaxFormulaLength characters, then
 *                everything formula.Validate reports
 *   result_type  number, text, auto or empty
 *
 * Across the set only the first dependency cycle is reported. Self
 * references are skipped there because formula validation already flags
 * them on the variable itself.
 */

// Field names used in VariableError.Field.
const (
	FieldID         = "id"
	FieldName       = "name"
	FieldFormula    = "formula"
	FieldResultType = "result_type"
)

// VariableError is one rule violation, located by variable index and field.
type VariableError struct {
	Index      int      `json:"index"`
	VariableID string   `json:"variable_id"`
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Position   int      `json:"position,omitempty"` // 1-based, formula errors only
	Cycle      []string `json:"cycle,omitempty"`
}

func (e VariableError) Error() string {
	return fmt.Sprintf("variables[%d].%s: %s", e.Index, e.Field, e.Message)
}

// ValidateVariables checks a whole variable set against the form's fields.
// An empty result means the set can be stored and evaluated.
func ValidateVariables(vars []types.ComputedVariable, fields []types.FieldDescriptor) []VariableError {
	var errs []VariableError

	fieldIDs := make([]string, 0, len(fields))
	for _, f := range fields {
		fieldIDs = append(fieldIDs, f.ID)
	}
	variableIDs := make([]string, 0, len(vars))
	for _, v := range vars {
		if v.ID != "" {
			variableIDs = append(variableIDs, v.ID)
		}
	}

	seenIDs := make(map[string]bool, len(vars))
	seenNames := make(map[string]bool, len(vars))

	for i, v := range vars {
		add := func(field, msg string) {
			errs = append(errs, VariableError{Index: i, VariableID: v.ID, Field: field, Message: msg})
		}

		switch {
		case v.ID == "":
			add(FieldID, "id is required")
		case !types.IsVariableID(v.ID):
			add(FieldID, fmt.Sprintf("id %q must start with cv_ followed by letters, digits or underscores", v.ID))
		case seenIDs[v.ID]:
			add(FieldID, fmt.Sprintf("duplicate variable id %q", v.ID))
		}
		seenIDs[v.ID] = true

		name := strings.TrimSpace(v.Name)
		key := strings.ToLower(name)
		switch {
		case name == "":
			add(FieldName, "name is required")
		case utf8.RuneCountInString(name) > types.MaxVariableNameLength:
			add(FieldName, fmt.Sprintf("name must be at most %d characters", types.MaxVariableNameLength))
		case seenNames[key]:
			add(FieldName, fmt.Sprintf("duplicate variable name %q", name))
		}
		if name != "" {
			seenNames[key] = true
		}

		switch {
		case strings.TrimSpace(v.Formula) == "":
			add(FieldFormula, "formula is required")
		case utf8.RuneCountInString(v.Formula) > types.MaxFormulaLength:
			add(FieldFormula, fmt.Sprintf("formula must be at most %d characters", types.MaxFormulaLength))
		default:
			res := formula.Validate(v.Formula, formula.ValidateOptions{
				FieldIDs:    fieldIDs,
				VariableIDs: variableIDs,
				VariableID:  v.ID,
			})
			for _, fe := range res.Errors {
				errs = append(errs, VariableError{
					Index:      i,
					VariableID: v.ID,
					Field:      FieldFormula,
					Message:    fe.Message,
					Position:   fe.Position,
				})
			}
		}

		if !v.ResultType.Valid() {
			add(FieldResultType, fmt.Sprintf("result_type %q must be one of number, text, auto", v.ResultType))
		}
	}

	if cerr, ok := firstCycleError(vars); ok {
		errs = append(errs, cerr)
	}
	return errs
}

// firstCycleError reports the first cycle spanning more than one variable.
func firstCycleError(vars []types.ComputedVariable) (VariableError, bool) {
	g := depgraph.Build(vars)
	for _, cycle := range g.DetectCycles() {
		if len(cycle) <= 2 {
			continue
		}
		names := make([]string, len(cycle))
		for i, id := range cycle {
			names[i] = id
			if v, ok := g.Variable(id); ok && strings.TrimSpace(v.Name) != "" {
				names[i] = strings.TrimSpace(v.Name)
			}
		}
		index := 0
		for i, v := range vars {
			if v.ID == cycle[0] {
				index = i
				break
			}
		}
		return VariableError{
			Index:      index,
			VariableID: cycle[0],
			Field:      FieldFormula,
			Message:    "circular dependency: " + strings.Join(names, " -> "),
			Cycle:      cycle,
		}, true
	}
	return VariableError{}, false
}
