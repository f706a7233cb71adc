package formula

import (
	"math"
	"strings"
)

/*
 * Operator semantics for the expression grammar.
 *
 * Arithmetic operators coerce both operands with ToNumber. Any operand
 * without a numeric value, a zero divisor, or a non-finite result yields nil.
 * Nothing here returns an error: a broken sub-expression is blank, not fatal.
 *
 * Comparison:
 *   - = and != treat two blanks as equal and a blank as unequal to anything
 *     else; otherwise compare numerically when both sides coerce to numbers,
 *     falling back to exact text comparison.
 *   - < <= > >= return false when either side is blank; numeric when both
 *     sides coerce, lexicographic on text otherwise.
 *
 * Logical operators use IsTruthy and always produce a bool.
 */

// Operator identifies a unary or binary operator.
type Operator int

const (
	OpUnspecified Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpConcat
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpNeg
	OpPos
	OpNot
)

var operatorSymbols = map[Operator]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpPow:    "^",
	OpConcat: "&",
	OpEq:     "=",
	OpNeq:    "!=",
	OpLt:     "<",
	OpLte:    "<=",
	OpGt:     ">",
	OpGte:    ">=",
	OpAnd:    "&&",
	OpOr:     "||",
	OpNeg:    "-",
	OpPos:    "+",
	OpNot:    "!",
}

func (op Operator) String() string {
	if s, ok := operatorSymbols[op]; ok {
		return s
	}
	return "?"
}

// Apply evaluates a binary operator on already-evaluated operands.
func Apply(op Operator, left, right any) any {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return arithmetic(op, left, right)
	case OpConcat:
		return ToText(left) + ToText(right)
	case OpEq:
		return looseEqual(left, right)
	case OpNeq:
		return !looseEqual(left, right)
	case OpLt:
		c, ok := compareOrdered(left, right)
		return ok && c < 0
	case OpLte:
		c, ok := compareOrdered(left, right)
		return ok && c <= 0
	case OpGt:
		c, ok := compareOrdered(left, right)
		return ok && c > 0
	case OpGte:
		c, ok := compareOrdered(left, right)
		return ok && c >= 0
	case OpAnd:
		return IsTruthy(left) && IsTruthy(right)
	case OpOr:
		return IsTruthy(left) || IsTruthy(right)
	default:
		return nil
	}
}

// ApplyUnary evaluates a prefix operator.
func ApplyUnary(op Operator, operand any) any {
	switch op {
	case OpNot:
		return !IsTruthy(operand)
	case OpNeg:
		n, ok := ToNumber(operand)
		if !ok {
			return nil
		}
		return number(-n)
	case OpPos:
		n, ok := ToNumber(operand)
		if !ok {
			return nil
		}
		return number(n)
	default:
		return nil
	}
}

// arithmetic applies a numeric operator; blank or non-numeric operands yield nil.
func arithmetic(op Operator, left, right any) any {
	a, oka := ToNumber(left)
	b, okb := ToNumber(right)
	if !oka || !okb {
		return nil
	}
	switch op {
	case OpAdd:
		return number(a + b)
	case OpSub:
		return number(a - b)
	case OpMul:
		return number(a * b)
	case OpDiv:
		if b == 0 {
			return nil
		}
		return number(a / b)
	case OpMod:
		if b == 0 {
			return nil
		}
		return number(math.Mod(a, b))
	case OpPow:
		return number(math.Pow(a, b))
	default:
		return nil
	}
}

// looseEqual compares with numeric coercion, falling back to text.
func looseEqual(a, b any) bool {
	if IsBlank(a) || IsBlank(b) {
		return IsBlank(a) && IsBlank(b)
	}
	na, oka := ToNumber(a)
	nb, okb := ToNumber(b)
	if oka && okb {
		return na == nb
	}
	return ToText(a) == ToText(b)
}

// compareOrdered performs three-way comparison (-1/0/1).
// Returns ok=false when either side is blank.
func compareOrdered(a, b any) (int, bool) {
	if IsBlank(a) || IsBlank(b) {
		return 0, false
	}
	na, oka := ToNumber(a)
	nb, okb := ToNumber(b)
	if oka && okb {
		switch {
		case na < nb:
			return -1, true
		case na > nb:
			return 1, true
		default:
			return 0, true
		}
	}
	return strings.Compare(ToText(a), ToText(b)), true
}
