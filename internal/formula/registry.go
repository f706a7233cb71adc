package formula

import (
	"strings"
)

/*
 * Built-in function registry.
 *
 * The function set is closed: Function is an enum and builtinTable is an
 * array indexed by it, so adding a constant without a table entry leaves a
 * zero FunctionDef that TestBuiltinTableComplete catches. Names resolve
 * case-insensitively through the uppercase index.
 *
 * Call is the failure boundary. An argument count outside [MinArgs, MaxArgs]
 * or a panic inside an implementation produces nil, never an error, so one
 * broken call cannot abort the surrounding evaluation.
 */

// Function identifies a built-in formula function.
type Function int

const (
	FuncUnknown Function = iota

	// Math
	FuncSum
	FuncAverage
	FuncMin
	FuncMax
	FuncRound
	FuncFloor
	FuncCeil
	FuncAbs
	FuncMod
	FuncPower
	FuncSqrt

	// Text
	FuncConcat
	FuncUpper
	FuncLower
	FuncTrim
	FuncLen
	FuncLeft
	FuncRight
	FuncMid
	FuncReplace
	FuncSubstitute
	FuncFind
	FuncSearch
	FuncRept
	FuncText

	// Logic
	FuncIf
	FuncAnd
	FuncOr
	FuncNot
	FuncXor
	FuncIsBlank
	FuncIsNumber
	FuncIsText
	FuncIfError
	FuncIfBlank
	FuncCoalesce
	FuncSwitch
	FuncIfs
	FuncChoose

	// Array
	FuncCount
	FuncIsEmpty
	FuncContains
	FuncJoin

	functionCount
)

// Category groups functions for documentation and autocomplete.
type Category string

const (
	CategoryMath  Category = "math"
	CategoryText  Category = "text"
	CategoryLogic Category = "logic"
	CategoryArray Category = "array"
)

// Variadic marks a FunctionDef without an upper argument bound.
const Variadic = -1

// FunctionDef describes one built-in: presentation metadata plus implementation.
type FunctionDef struct {
	Function    Function `json:"-"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	MinArgs     int      `json:"min_args"`
	MaxArgs     int      `json:"max_args"` // Variadic for unlimited
	Syntax      string   `json:"syntax"`
	Description string   `json:"description"`

	impl func(args []any) any
}

// Accepts reports whether n arguments satisfy the arity bounds.
func (d FunctionDef) Accepts(n int) bool {
	if n < d.MinArgs {
		return false
	}
	return d.MaxArgs == Variadic || n <= d.MaxArgs
}

var builtinTable = [functionCount]FunctionDef{
	FuncSum:     {Name: "SUM", Category: CategoryMath, MinArgs: 0, MaxArgs: Variadic, Syntax: "SUM(value1, value2, ...)", Description: "Adds all numeric values; arrays are flattened and blanks ignored. Returns 0 for no values.", impl: fnSum},
	FuncAverage: {Name: "AVERAGE", Category: CategoryMath, MinArgs: 0, MaxArgs: Variadic, Syntax: "AVERAGE(value1, value2, ...)", Description: "Arithmetic mean of the numeric values, or blank when there are none.", impl: fnAverage},
	FuncMin:     {Name: "MIN", Category: CategoryMath, MinArgs: 0, MaxArgs: Variadic, Syntax: "MIN(value1, value2, ...)", Description: "Smallest numeric value, or blank when there are none.", impl: fnMin},
	FuncMax:     {Name: "MAX", Category: CategoryMath, MinArgs: 0, MaxArgs: Variadic, Syntax: "MAX(value1, value2, ...)", Description: "Largest numeric value, or blank when there are none.", impl: fnMax},
	FuncRound:   {Name: "ROUND", Category: CategoryMath, MinArgs: 1, MaxArgs: 2, Syntax: "ROUND(value, decimals)", Description: "Rounds half away from zero to the given number of decimals (default 0).", impl: fnRound},
	FuncFloor:   {Name: "FLOOR", Category: CategoryMath, MinArgs: 1, MaxArgs: 1, Syntax: "FLOOR(value)", Description: "Largest integer not greater than value.", impl: fnFloor},
	FuncCeil:    {Name: "CEIL", Category: CategoryMath, MinArgs: 1, MaxArgs: 1, Syntax: "CEIL(value)", Description: "Smallest integer not less than value.", impl: fnCeil},
	FuncAbs:     {Name: "ABS", Category: CategoryMath, MinArgs: 1, MaxArgs: 1, Syntax: "ABS(value)", Description: "Absolute value.", impl: fnAbs},
	FuncMod:     {Name: "MOD", Category: CategoryMath, MinArgs: 2, MaxArgs: 2, Syntax: "MOD(value, divisor)", Description: "Remainder of value divided by divisor; blank when divisor is 0.", impl: fnMod},
	FuncPower:   {Name: "POWER", Category: CategoryMath, MinArgs: 2, MaxArgs: 2, Syntax: "POWER(base, exponent)", Description: "base raised to exponent.", impl: fnPower},
	FuncSqrt:    {Name: "SQRT", Category: CategoryMath, MinArgs: 1, MaxArgs: 1, Syntax: "SQRT(value)", Description: "Square root; blank for negative values.", impl: fnSqrt},

	FuncConcat:     {Name: "CONCAT", Category: CategoryText, MinArgs: 0, MaxArgs: Variadic, Syntax: "CONCAT(text1, text2, ...)", Description: "Joins all values as text.", impl: fnConcat},
	FuncUpper:      {Name: "UPPER", Category: CategoryText, MinArgs: 1, MaxArgs: 1, Syntax: "UPPER(text)", Description: "Converts text to upper case.", impl: fnUpper},
	FuncLower:      {Name: "LOWER", Category: CategoryText, MinArgs: 1, MaxArgs: 1, Syntax: "LOWER(text)", Description: "Converts text to lower case.", impl: fnLower},
	FuncTrim:       {Name: "TRIM", Category: CategoryText, MinArgs: 1, MaxArgs: 1, Syntax: "TRIM(text)", Description: "Removes leading and trailing whitespace.", impl: fnTrim},
	FuncLen:        {Name: "LEN", Category: CategoryText, MinArgs: 1, MaxArgs: 1, Syntax: "LEN(text)", Description: "Number of characters in text.", impl: fnLen},
	FuncLeft:       {Name: "LEFT", Category: CategoryText, MinArgs: 1, MaxArgs: 2, Syntax: "LEFT(text, count)", Description: "First count characters (default 1).", impl: fnLeft},
	FuncRight:      {Name: "RIGHT", Category: CategoryText, MinArgs: 1, MaxArgs: 2, Syntax: "RIGHT(text, count)", Description: "Last count characters (default 1).", impl: fnRight},
	FuncMid:        {Name: "MID", Category: CategoryText, MinArgs: 3, MaxArgs: 3, Syntax: "MID(text, start, count)", Description: "count characters starting at the 1-based position start.", impl: fnMid},
	FuncReplace:    {Name: "REPLACE", Category: CategoryText, MinArgs: 4, MaxArgs: 4, Syntax: "REPLACE(text, start, count, new_text)", Description: "Replaces count characters at the 1-based position start with new_text.", impl: fnReplace},
	FuncSubstitute: {Name: "SUBSTITUTE", Category: CategoryText, MinArgs: 3, MaxArgs: 4, Syntax: "SUBSTITUTE(text, old_text, new_text, instance)", Description: "Replaces occurrences of old_text, or only the Nth when instance is given.", impl: fnSubstitute},
	FuncFind:       {Name: "FIND", Category: CategoryText, MinArgs: 2, MaxArgs: 3, Syntax: "FIND(search, text, start)", Description: "1-based position of search in text (case-sensitive), or blank.", impl: fnFind},
	FuncSearch:     {Name: "SEARCH", Category: CategoryText, MinArgs: 2, MaxArgs: 3, Syntax: "SEARCH(search, text, start)", Description: "1-based position of search in text (case-insensitive), or blank.", impl: fnSearch},
	FuncRept:       {Name: "REPT", Category: CategoryText, MinArgs: 2, MaxArgs: 2, Syntax: "REPT(text, count)", Description: "Repeats text count times, at most 100.", impl: fnRept},
	FuncText:       {Name: "TEXT", Category: CategoryText, MinArgs: 2, MaxArgs: 2, Syntax: "TEXT(value, format)", Description: "Formats a number as a percentage (\"0.00%\") or with fixed decimals (\"0.00\").", impl: fnText},

	FuncIf:       {Name: "IF", Category: CategoryLogic, MinArgs: 2, MaxArgs: 3, Syntax: "IF(condition, if_true, if_false)", Description: "if_true when condition is truthy, otherwise if_false (default empty text).", impl: fnIf},
	FuncAnd:      {Name: "AND", Category: CategoryLogic, MinArgs: 0, MaxArgs: Variadic, Syntax: "AND(value1, value2, ...)", Description: "True when every value is truthy; true for no values.", impl: fnAnd},
	FuncOr:       {Name: "OR", Category: CategoryLogic, MinArgs: 0, MaxArgs: Variadic, Syntax: "OR(value1, value2, ...)", Description: "True when any value is truthy; false for no values.", impl: fnOr},
	FuncNot:      {Name: "NOT", Category: CategoryLogic, MinArgs: 1, MaxArgs: 1, Syntax: "NOT(value)", Description: "Logical negation.", impl: fnNot},
	FuncXor:      {Name: "XOR", Category: CategoryLogic, MinArgs: 0, MaxArgs: Variadic, Syntax: "XOR(value1, value2, ...)", Description: "True when an odd number of values are truthy.", impl: fnXor},
	FuncIsBlank:  {Name: "ISBLANK", Category: CategoryLogic, MinArgs: 1, MaxArgs: 1, Syntax: "ISBLANK(value)", Description: "True for blank values (null or empty text).", impl: fnIsBlank},
	FuncIsNumber: {Name: "ISNUMBER", Category: CategoryLogic, MinArgs: 1, MaxArgs: 1, Syntax: "ISNUMBER(value)", Description: "True for numeric values.", impl: fnIsNumber},
	FuncIsText:   {Name: "ISTEXT", Category: CategoryLogic, MinArgs: 1, MaxArgs: 1, Syntax: "ISTEXT(value)", Description: "True for non-empty text.", impl: fnIsText},
	FuncIfError:  {Name: "IFERROR", Category: CategoryLogic, MinArgs: 2, MaxArgs: 2, Syntax: "IFERROR(value, fallback)", Description: "fallback when value failed to evaluate (null).", impl: fnIfError},
	FuncIfBlank:  {Name: "IFBLANK", Category: CategoryLogic, MinArgs: 2, MaxArgs: 2, Syntax: "IFBLANK(value, fallback)", Description: "fallback when value is blank; 0 and false are kept.", impl: fnIfBlank},
	FuncCoalesce: {Name: "COALESCE", Category: CategoryLogic, MinArgs: 0, MaxArgs: Variadic, Syntax: "COALESCE(value1, value2, ...)", Description: "First non-blank value.", impl: fnCoalesce},
	FuncSwitch:   {Name: "SWITCH", Category: CategoryLogic, MinArgs: 3, MaxArgs: Variadic, Syntax: "SWITCH(value, case1, result1, ..., default)", Description: "Result of the first case equal to value, else the trailing default.", impl: fnSwitch},
	FuncIfs:      {Name: "IFS", Category: CategoryLogic, MinArgs: 2, MaxArgs: Variadic, Syntax: "IFS(condition1, result1, ...)", Description: "Result paired with the first truthy condition.", impl: fnIfs},
	FuncChoose:   {Name: "CHOOSE", Category: CategoryLogic, MinArgs: 2, MaxArgs: Variadic, Syntax: "CHOOSE(index, value1, value2, ...)", Description: "The value at the 1-based index, or blank when out of range.", impl: fnChoose},

	FuncCount:    {Name: "COUNT", Category: CategoryArray, MinArgs: 0, MaxArgs: Variadic, Syntax: "COUNT(value1, value2, ...)", Description: "Number of non-blank values; arrays count their elements.", impl: fnCount},
	FuncIsEmpty:  {Name: "ISEMPTY", Category: CategoryArray, MinArgs: 1, MaxArgs: 1, Syntax: "ISEMPTY(value)", Description: "True for blank values and empty arrays.", impl: fnIsEmpty},
	FuncContains: {Name: "CONTAINS", Category: CategoryArray, MinArgs: 2, MaxArgs: 2, Syntax: "CONTAINS(array, value)", Description: "True when the array holds value; scalars compare directly.", impl: fnContains},
	FuncJoin:     {Name: "JOIN", Category: CategoryArray, MinArgs: 1, MaxArgs: 2, Syntax: "JOIN(array, separator)", Description: "Joins array elements with separator (default \", \").", impl: fnJoin},
}

// String returns the canonical upper-case function name.
func (f Function) String() string {
	if f <= FuncUnknown || f >= functionCount {
		return "UNKNOWN"
	}
	return builtinTable[f].Name
}

// Def returns the function's definition.
func (f Function) Def() (FunctionDef, bool) {
	if f <= FuncUnknown || f >= functionCount {
		return FunctionDef{}, false
	}
	def := builtinTable[f]
	def.Function = f
	return def, true
}

// Call invokes the function. Arity mismatches and panics produce nil.
func (f Function) Call(args []any) (result any) {
	def, ok := f.Def()
	if !ok || def.impl == nil || !def.Accepts(len(args)) {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return def.impl(args)
}

// Registry resolves function names to built-ins.
type Registry struct {
	byName map[string]Function
}

// Builtins is the registry of every built-in function.
var Builtins = newRegistry()

func newRegistry() *Registry {
	r := &Registry{byName: make(map[string]Function, functionCount)}
	for f := FuncUnknown + 1; f < functionCount; f++ {
		r.byName[builtinTable[f].Name] = f
	}
	return r
}

// Lookup resolves name case-insensitively.
func (r *Registry) Lookup(name string) (Function, bool) {
	f, ok := r.byName[strings.ToUpper(name)]
	return f, ok
}

// Has reports whether name is a built-in.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (FunctionDef, bool) {
	f, ok := r.Lookup(name)
	if !ok {
		return FunctionDef{}, false
	}
	return f.Def()
}

// Call invokes the named function; unknown names produce nil.
func (r *Registry) Call(name string, args []any) any {
	f, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return f.Call(args)
}

// All returns every definition grouped by category in declaration order.
func (r *Registry) All() []FunctionDef {
	defs := make([]FunctionDef, 0, functionCount-1)
	for f := FuncUnknown + 1; f < functionCount; f++ {
		def, _ := f.Def()
		defs = append(defs, def)
	}
	return defs
}

// ByCategory returns the definitions in one category.
func (r *Registry) ByCategory(c Category) []FunctionDef {
	var defs []FunctionDef
	for _, d := range r.All() {
		if d.Category == c {
			defs = append(defs, d)
		}
	}
	return defs
}
