package formula

import "testing"

func TestBuiltinTableComplete(t *testing.T) {
	seen := make(map[string]Function)
	for f := FuncUnknown + 1; f < functionCount; f++ {
		def := builtinTable[f]
		if def.Name == "" || def.impl == nil {
			t.Errorf("function %d has no table entry", f)
			continue
		}
		if def.Category == "" || def.Syntax == "" || def.Description == "" {
			t.Errorf("%s is missing metadata", def.Name)
		}
		if def.MaxArgs != Variadic && def.MaxArgs < def.MinArgs {
			t.Errorf("%s: MaxArgs %d < MinArgs %d", def.Name, def.MaxArgs, def.MinArgs)
		}
		if prev, dup := seen[def.Name]; dup {
			t.Errorf("%s registered twice (%d and %d)", def.Name, prev, f)
		}
		seen[def.Name] = f
	}
}

func TestRegistry_Lookup(t *testing.T) {
	for _, name := range []string{"SUM", "sum", "Sum"} {
		f, ok := Builtins.Lookup(name)
		if !ok || f != FuncSum {
			t.Errorf("Lookup(%q) = %v, %v; want SUM", name, f, ok)
		}
	}
	if Builtins.Has("EVAL") {
		t.Error("Has(EVAL) = true, want false")
	}
}

func TestRegistry_Get(t *testing.T) {
	def, ok := Builtins.Get("mid")
	if !ok {
		t.Fatal("Get(mid) not found")
	}
	if def.Function != FuncMid || def.Name != "MID" || def.Category != CategoryText {
		t.Errorf("Get(mid) = %+v", def)
	}
	if def.MinArgs != 3 || def.MaxArgs != 3 {
		t.Errorf("MID arity = [%d, %d], want [3, 3]", def.MinArgs, def.MaxArgs)
	}
	if _, ok := Builtins.Get("nope"); ok {
		t.Error("Get(nope) found a definition")
	}
}

func TestRegistry_All(t *testing.T) {
	all := Builtins.All()
	if len(all) != int(functionCount)-1 {
		t.Fatalf("All() returned %d definitions, want %d", len(all), functionCount-1)
	}
	for i, def := range all {
		if def.Function != FuncUnknown+1+Function(i) {
			t.Errorf("All()[%d].Function = %v, want declaration order", i, def.Function)
		}
	}

	total := 0
	for _, c := range []Category{CategoryMath, CategoryText, CategoryLogic, CategoryArray} {
		defs := Builtins.ByCategory(c)
		if len(defs) == 0 {
			t.Errorf("ByCategory(%s) is empty", c)
		}
		total += len(defs)
	}
	if total != len(all) {
		t.Errorf("categories cover %d functions, want %d", total, len(all))
	}
}

func TestFunction_String(t *testing.T) {
	if FuncSubstitute.String() != "SUBSTITUTE" {
		t.Errorf("FuncSubstitute.String() = %q", FuncSubstitute.String())
	}
	if FuncUnknown.String() != "UNKNOWN" || functionCount.String() != "UNKNOWN" {
		t.Error("out-of-range functions must render as UNKNOWN")
	}
}

func TestFunctionDef_Accepts(t *testing.T) {
	def, _ := FuncIf.Def()
	for n, want := range map[int]bool{1: false, 2: true, 3: true, 4: false} {
		if got := def.Accepts(n); got != want {
			t.Errorf("IF.Accepts(%d) = %v, want %v", n, got, want)
		}
	}
	sum, _ := FuncSum.Def()
	if !sum.Accepts(0) || !sum.Accepts(1000) {
		t.Error("SUM must accept any argument count")
	}
}

func TestFunction_CallRecoversPanic(t *testing.T) {
	saved := builtinTable[FuncAbs].impl
	defer func() { builtinTable[FuncAbs].impl = saved }()
	builtinTable[FuncAbs].impl = func([]any) any { panic("boom") }

	if got := FuncAbs.Call([]any{1.0}); got != nil {
		t.Errorf("Call() after panic = %#v, want nil", got)
	}
}
