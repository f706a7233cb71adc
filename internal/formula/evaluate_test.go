package formula

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEvaluate(t *testing.T) {
	ctx := NewContext(map[string]any{
		"price":   100,
		"qty":     "2",
		"name":    "Ada",
		"empty":   "",
		"tags":    []any{"a", "b"},
		"a":       10,
		"b":       0,
		"checked": true,
	})

	tests := []struct {
		name string
		src  string
		want any
	}{
		{name: "arithmetic", src: "{price} * {qty}", want: 200.0},
		{name: "precedence", src: "1 + 2 * 3", want: 7.0},
		{name: "parentheses", src: "(1 + 2) * 3", want: 9.0},
		{name: "power is right-associative", src: "2 ^ 3 ^ 2", want: 512.0},
		{name: "unary minus binds below power", src: "-2 ^ 2", want: -4.0},
		{name: "modulo operator", src: "7 % 4", want: 3.0},
		{name: "division by zero is blank", src: "{a} / {b}", want: nil},
		{name: "missing reference is blank", src: "{missing}", want: nil},
		{name: "missing reference in arithmetic", src: "{missing} + 1", want: nil},
		{name: "IF on missing field", src: `IF({missing_field}, "yes", "no")`, want: "no"},
		{name: "concatenation", src: `"Hello, " & {name} & "!"`, want: "Hello, Ada!"},
		{name: "comparison", src: "{price} >= 100", want: true},
		{name: "equality coerces numbers", src: `{qty} = 2`, want: true},
		{name: "double equals", src: `{qty} == 3`, want: false},
		{name: "not equal", src: `{name} <> "Bob"`, want: true},
		{name: "logical and", src: "{checked} && {price} > 50", want: true},
		{name: "logical or with blank", src: "{empty} || {missing}", want: false},
		{name: "negation", src: "!{empty}", want: true},
		{name: "single-quoted string", src: `'it' & "s"`, want: "its"},
		{name: "adjacent literals are a syntax error", src: `'it''s'`, want: nil},
		{name: "escaped quote", src: `"say \"hi\""`, want: `say "hi"`},
		{name: "boolean literal", src: "TRUE", want: true},
		{name: "null literal", src: "null", want: nil},
		{name: "array literal", src: "[1, 'a', {missing}]", want: []any{1.0, "a", nil}},
		{name: "function call", src: "ROUND({price} / 3, 2)", want: 33.33},
		{name: "case-insensitive function", src: "sum(1, 2, 3)", want: 6.0},
		{name: "nested functions", src: `UPPER(LEFT({name}, 2))`, want: "AD"},
		{name: "array reference", src: `JOIN({tags}, "|")`, want: "a|b"},
		{name: "count array reference", src: "COUNT({tags})", want: 2.0},
		{name: "unknown function is blank", src: "FOO(1)", want: nil},
		{name: "unknown function inside IFERROR", src: `IFERROR(FOO(1), "fallback")`, want: "fallback"},
		{name: "arity mismatch is blank", src: "ABS(1, 2)", want: nil},
		{name: "syntax error is blank", src: "(1 + 2", want: nil},
		{name: "reference with spaces", src: "{ price } + 1", want: 101.0},
		{name: "decimal literal", src: ".5 + 1.5e1", want: 15.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.src, ctx)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	if got := Evaluate("false && 1/0 > 0", nil); got != false {
		t.Errorf("got %#v, want false", got)
	}
	if got := Evaluate("true || 1/0 > 0", nil); got != true {
		t.Errorf("got %#v, want true", got)
	}
}

func TestEvaluate_DoesNotMutateContext(t *testing.T) {
	ctx := NewContext(map[string]any{"tags": []any{"b", "a"}, "x": 1})
	before := ctx.Clone()
	_ = Evaluate(`JOIN({tags}) & SUM({x}, 1)`, ctx)
	if !reflect.DeepEqual(ctx, before) {
		t.Errorf("context mutated: %#v, want %#v", ctx, before)
	}
}

func TestProgram_EvalReusable(t *testing.T) {
	prog, err := Compile("{x} * 2")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	for i := 1; i <= 3; i++ {
		got := prog.Eval(Context{"x": float64(i)})
		if got != float64(i*2) {
			t.Errorf("Eval(x=%d) = %#v, want %d", i, got, i*2)
		}
	}
}

func TestEvaluate_PropertyNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	fragments := []string{
		"1", "2.5", `"x"`, "{a}", "{b}", "{missing}", "(", ")", "+", "-", "*", "/", "^", "&",
		"=", "<", ">=", "&&", "||", "!", ",", "[", "]", "SUM(", "IF(", "MID(", "REPT(", "TRUE", "}", "{",
	}

	properties.Property("evaluation of arbitrary token soup never panics", prop.ForAll(
		func(picks []int) bool {
			src := ""
			for _, p := range picks {
				src += fragments[p%len(fragments)] + " "
			}
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Evaluate(%q) panicked: %v", src, r)
				}
			}()
			_ = Evaluate(src, Context{"a": 1.0, "b": "text"})
			_ = Validate(src, ValidateOptions{FieldIDs: []string{"a", "b"}})
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("arbitrary strings never panic", prop.ForAll(
		func(src string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Evaluate(%q) panicked: %v", src, r)
				}
			}()
			_ = Evaluate(src, nil)
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestEvaluate_PropertyIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same formula and context give the same result", prop.ForAll(
		func(x, y int, s string) bool {
			ctx := NewContext(map[string]any{"x": x, "y": y, "s": s})
			src := `IF({x} > {y}, ROUND({x} / ({y} + 0.5), 3), CONCAT({s}, "-", {y}))`
			return reflect.DeepEqual(Evaluate(src, ctx), Evaluate(src, ctx))
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
