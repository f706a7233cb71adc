package formula

import "math"

// Math functions. Every function returns nil when its operand has no
// numeric value. SUM is the exception on empty input: it returns 0, while
// AVERAGE, MIN and MAX return nil.

func fnSum(args []any) any {
	total := 0.0
	for _, n := range numbers(args) {
		total += n
	}
	return number(total)
}

func fnAverage(args []any) any {
	nums := numbers(args)
	if len(nums) == 0 {
		return nil
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return number(total / float64(len(nums)))
}

func fnMin(args []any) any {
	nums := numbers(args)
	if len(nums) == 0 {
		return nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Min(m, n)
	}
	return number(m)
}

func fnMax(args []any) any {
	nums := numbers(args)
	if len(nums) == 0 {
		return nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Max(m, n)
	}
	return number(m)
}

// fnRound rounds half away from zero. A missing or non-numeric decimals
// argument means 0; negative decimals round to tens, hundreds, and so on.
func fnRound(args []any) any {
	v, ok := ToNumber(arg(args, 0))
	if !ok {
		return nil
	}
	decimals, ok := intArg(args, 1, 0)
	if !ok {
		decimals = 0
	}
	if decimals > 15 {
		decimals = 15
	}
	if decimals < -15 {
		decimals = -15
	}
	factor := math.Pow(10, float64(decimals))
	return number(math.Round(v*factor) / factor)
}

func fnFloor(args []any) any {
	return unaryMath(args, math.Floor)
}

func fnCeil(args []any) any {
	return unaryMath(args, math.Ceil)
}

func fnAbs(args []any) any {
	return unaryMath(args, math.Abs)
}

func fnMod(args []any) any {
	v, ok := ToNumber(arg(args, 0))
	if !ok {
		return nil
	}
	d, ok := ToNumber(arg(args, 1))
	if !ok || d == 0 {
		return nil
	}
	return number(math.Mod(v, d))
}

func fnPower(args []any) any {
	base, ok := ToNumber(arg(args, 0))
	if !ok {
		return nil
	}
	exp, ok := ToNumber(arg(args, 1))
	if !ok {
		return nil
	}
	return number(math.Pow(base, exp))
}

func fnSqrt(args []any) any {
	v, ok := ToNumber(arg(args, 0))
	if !ok || v < 0 {
		return nil
	}
	return number(math.Sqrt(v))
}

func unaryMath(args []any, f func(float64) float64) any {
	v, ok := ToNumber(arg(args, 0))
	if !ok {
		return nil
	}
	return number(f(v))
}

// arg returns the i-th argument or nil when absent.
func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// textArg returns the i-th argument as text; absent and blank become "".
func textArg(args []any, i int) string {
	return ToText(arg(args, i))
}

// intArg returns the i-th argument truncated to an int.
// Absent or blank arguments yield def; non-numeric arguments yield ok=false.
func intArg(args []any, i int, def int) (int, bool) {
	v := arg(args, i)
	if IsBlank(v) {
		return def, true
	}
	f, ok := ToNumber(v)
	if !ok {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}
