// Package types provides domain models shared across formulary components.
//
// Form definitions arrive from the form editor as JSON (or YAML/TOML files on
// the command line). The structs here carry tags for every decoder so the
// same value flows unchanged from a file, a database row, or a gRPC request
// into the formula engine.
package types

// FieldDescriptor describes one form field that formulas may reference.
// Type is opaque metadata; the engine never branches on it.
type FieldDescriptor struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type" yaml:"type" toml:"type"`
}

// ResultType shapes the value a computed variable produces.
type ResultType string

const (
	ResultTypeNumber ResultType = "number"
	ResultTypeText   ResultType = "text"
	ResultTypeAuto   ResultType = "auto"
)

// Valid reports whether r is one of the known result types.
// The empty string is accepted and means auto.
func (r ResultType) Valid() bool {
	switch r {
	case "", ResultTypeNumber, ResultTypeText, ResultTypeAuto:
		return true
	default:
		return false
	}
}

// Normalize maps the empty result type to auto.
func (r ResultType) Normalize() ResultType {
	if r == "" {
		return ResultTypeAuto
	}
	return r
}

// ComputedVariable is a named, formula-derived value defined alongside form fields.
type ComputedVariable struct {
	ID         string     `json:"id" yaml:"id" toml:"id"`
	Name       string     `json:"name" yaml:"name" toml:"name"`
	Formula    string     `json:"formula" yaml:"formula" toml:"formula"`
	ResultType ResultType `json:"result_type,omitempty" yaml:"result_type,omitempty" toml:"result_type,omitempty"`
}

// FormDefinition bundles the fields and computed variables of one form.
type FormDefinition struct {
	ID        FormID             `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name      string             `json:"name" yaml:"name" toml:"name"`
	Fields    []FieldDescriptor  `json:"fields" yaml:"fields" toml:"fields"`
	Variables []ComputedVariable `json:"variables" yaml:"variables" toml:"variables"`
}

// FieldIDs returns the ids of all fields in declaration order.
func (f *FormDefinition) FieldIDs() []string {
	ids := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		ids = append(ids, field.ID)
	}
	return ids
}

// Limits enforced by the formula engine and the variable rules.
const (
	// MaxFormulaLength bounds formula source length at authoring time.
	MaxFormulaLength = 2000

	// MaxVariableNameLength bounds computed variable names.
	MaxVariableNameLength = 100

	// MaxRepeatCount caps REPT so a single call cannot allocate unbounded memory.
	MaxRepeatCount = 100

	// MaxFlattenDepth caps recursive array flattening; deeper elements are dropped.
	MaxFlattenDepth = 32

	// MaxNestingDepth caps parser recursion (parentheses, calls, unary chains).
	MaxNestingDepth = 64
)
