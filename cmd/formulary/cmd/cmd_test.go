package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/formulary/internal/formula"
)

const invoiceYAML = `name: Invoice
fields:
  - id: quantity
    name: Quantity
    type: number
  - id: unit_price
    name: Unit price
    type: number
variables:
  - id: cv_subtotal
    name: Subtotal
    formula: "{quantity} * {unit_price}"
    result_type: number
  - id: cv_label
    name: Label
    formula: 'IF({cv_subtotal} > 100, "large", "small")'
`

// execute runs the root command with fresh flag state and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configFile, dbURL, jsonOutput = "", "", false
	evalDataFile, evalFormID, evalFormula = "", "", ""
	validateFormID, validateFormula, validateOwnVariable = "", "", ""
	validateFields, validateVariables = nil, nil
	functionsCategory, importSkipValidation, showFormat = "", false, "yaml"

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEval_FormFile(t *testing.T) {
	dir := t.TempDir()
	form := writeFile(t, dir, "invoice.yaml", invoiceYAML)
	data := writeFile(t, dir, "data.json", `{"quantity": 30, "unit_price": 5}`)

	out, err := execute(t, "eval", form, "--data", data)
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}
	for _, want := range []string{"cv_subtotal", "150", "cv_label", `"large"`} {
		if !strings.Contains(out, want) {
			t.Errorf("eval output missing %q:\n%s", want, out)
		}
	}
}

func TestEval_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	form := writeFile(t, dir, "invoice.yaml", invoiceYAML)

	out, err := execute(t, "eval", form, "--json")
	if err != nil {
		t.Fatalf("eval error = %v", err)
	}

	var result struct {
		Values map[string]any `json:"values"`
		Order  []string       `json:"order"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if result.Values["cv_subtotal"] != nil {
		t.Errorf("cv_subtotal = %v, want blank without data", result.Values["cv_subtotal"])
	}
	if result.Values["cv_label"] != "small" {
		t.Errorf("cv_label = %v, want small", result.Values["cv_label"])
	}
}

func TestEval_SingleFormula(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "data.toml", "a = 5\nname = \"Ada\"\n")

	tests := []struct {
		formula string
		want    string
	}{
		{formula: "{a} * 2", want: "10"},
		{formula: `UPPER({name})`, want: `"ADA"`},
		{formula: "{a} / 0", want: blankCell},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			out, err := execute(t, "eval", "--formula", tt.formula, "--data", data)
			if err != nil {
				t.Fatalf("eval error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("eval --formula %q = %q, want %q", tt.formula, got, tt.want)
			}
		})
	}
}

func TestEval_RequiresForm(t *testing.T) {
	if _, err := execute(t, "eval"); err == nil {
		t.Error("eval without a form succeeded, want error")
	}
}

func TestValidate_FormFile(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "invoice.yaml", invoiceYAML)
	out, err := execute(t, "validate", valid)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "2 computed variable(s) valid") {
		t.Errorf("validate output = %q", out)
	}

	invalid := writeFile(t, dir, "broken.json", `{
		"name": "Broken",
		"fields": [],
		"variables": [
			{"id": "cv_a", "name": "A", "formula": "{cv_b} + 1"},
			{"id": "cv_b", "name": "B", "formula": "{cv_a} + 1"}
		]
	}`)
	out, err = execute(t, "validate", invalid)
	if err == nil {
		t.Fatal("validate of a cyclic form succeeded, want error")
	}
	if !strings.Contains(out, "circular dependency: A -> B -> A") {
		t.Errorf("validate output missing cycle:\n%s", out)
	}
}

func TestValidate_SingleFormula(t *testing.T) {
	if _, err := execute(t, "validate", "--formula", "{a} + {cv_b}", "--field", "a", "--variable", "cv_b"); err != nil {
		t.Errorf("valid formula rejected: %v", err)
	}

	out, err := execute(t, "validate", "--formula", "SUM(", "--json")
	if err == nil {
		t.Fatal("invalid formula accepted")
	}
	var result formula.ValidationResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if result.Valid || len(result.Errors) == 0 {
		t.Errorf("result = %+v, want errors", result)
	}
}

func TestFunctions(t *testing.T) {
	out, err := execute(t, "functions", "--json")
	if err != nil {
		t.Fatalf("functions error = %v", err)
	}
	var defs []formula.FunctionDef
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(defs) != len(formula.Builtins.All()) {
		t.Errorf("listed %d functions, want %d", len(defs), len(formula.Builtins.All()))
	}

	out, err = execute(t, "functions", "--category", "text")
	if err != nil {
		t.Fatalf("functions --category error = %v", err)
	}
	if !strings.Contains(out, "SUBSTITUTE") || strings.Contains(out, "AVERAGE") {
		t.Errorf("text category output:\n%s", out)
	}

	if _, err := execute(t, "functions", "--category", "finance"); err == nil {
		t.Error("unknown category accepted")
	}
}

func TestFormsLifecycle(t *testing.T) {
	dir := t.TempDir()
	database := "sqlite://" + filepath.Join(dir, "formulary.db")
	form := writeFile(t, dir, "invoice.yaml", invoiceYAML)
	data := writeFile(t, dir, "data.yaml", "quantity: 2\nunit_price: 10\n")

	if _, err := execute(t, "migrate", "up", "--db-url", database); err != nil {
		t.Fatalf("migrate up error = %v", err)
	}
	out, err := execute(t, "migrate", "status", "--db-url", database)
	if err != nil {
		t.Fatalf("migrate status error = %v", err)
	}
	if !strings.Contains(out, "001_initial_schema.sql") || !strings.Contains(out, "applied") {
		t.Errorf("migrate status output:\n%s", out)
	}

	out, err = execute(t, "forms", "import", form, "--db-url", database)
	if err != nil {
		t.Fatalf("forms import error = %v", err)
	}
	id := strings.TrimSpace(out)

	out, err = execute(t, "forms", "list", "--db-url", database)
	if err != nil {
		t.Fatalf("forms list error = %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "Invoice") {
		t.Errorf("forms list output:\n%s", out)
	}

	out, err = execute(t, "forms", "show", id, "--format", "json", "--db-url", database)
	if err != nil {
		t.Fatalf("forms show error = %v", err)
	}
	if !strings.Contains(out, `"cv_subtotal"`) {
		t.Errorf("forms show output:\n%s", out)
	}

	out, err = execute(t, "eval", "--form-id", id, "--data", data, "--db-url", database)
	if err != nil {
		t.Fatalf("eval --form-id error = %v", err)
	}
	if !strings.Contains(out, "20") {
		t.Errorf("eval --form-id output:\n%s", out)
	}

	if _, err := execute(t, "forms", "delete", id, "--db-url", database); err != nil {
		t.Fatalf("forms delete error = %v", err)
	}
	if _, err := execute(t, "forms", "show", id, "--db-url", database); err == nil {
		t.Error("forms show after delete succeeded, want error")
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, blankCell},
		{"text", `"text"`},
		{42.0, "42"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got := displayValue(tt.in); got != tt.want {
			t.Errorf("displayValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
