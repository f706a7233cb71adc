package formula

// Logic functions share IsTruthy and IsBlank with the evaluator. There is no
// error value: IFERROR treats nil, the result of any failed sub-expression,
// as the error case.

func fnIf(args []any) any {
	if IsTruthy(arg(args, 0)) {
		return arg(args, 1)
	}
	if len(args) < 3 {
		return ""
	}
	return args[2]
}

func fnAnd(args []any) any {
	for _, v := range Flatten(args) {
		if !IsTruthy(v) {
			return false
		}
	}
	return true
}

func fnOr(args []any) any {
	for _, v := range Flatten(args) {
		if IsTruthy(v) {
			return true
		}
	}
	return false
}

func fnNot(args []any) any {
	return !IsTruthy(arg(args, 0))
}

func fnXor(args []any) any {
	truthy := 0
	for _, v := range Flatten(args) {
		if IsTruthy(v) {
			truthy++
		}
	}
	return truthy%2 == 1
}

func fnIsBlank(args []any) any {
	return IsBlank(arg(args, 0))
}

func fnIsNumber(args []any) any {
	return IsNumber(arg(args, 0))
}

func fnIsText(args []any) any {
	s, ok := arg(args, 0).(string)
	return ok && s != ""
}

func fnIfError(args []any) any {
	if v := arg(args, 0); v != nil {
		return v
	}
	return arg(args, 1)
}

// fnIfBlank substitutes the fallback for blank values only; 0 and false are kept.
func fnIfBlank(args []any) any {
	if v := arg(args, 0); !IsBlank(v) {
		return v
	}
	return arg(args, 1)
}

func fnCoalesce(args []any) any {
	for _, v := range args {
		if !IsBlank(v) {
			return v
		}
	}
	return nil
}

// fnSwitch matches value against cases in order using Equal.
// A trailing unpaired argument is the default.
func fnSwitch(args []any) any {
	if len(args) == 0 {
		return nil
	}
	value := args[0]
	rest := args[1:]
	for i := 0; i+1 < len(rest); i += 2 {
		if Equal(value, rest[i]) {
			return rest[i+1]
		}
	}
	if len(rest)%2 == 1 {
		return rest[len(rest)-1]
	}
	return nil
}

func fnIfs(args []any) any {
	for i := 0; i+1 < len(args); i += 2 {
		if IsTruthy(args[i]) {
			return args[i+1]
		}
	}
	return nil
}

func fnChoose(args []any) any {
	index, ok := intArg(args, 0, 0)
	if !ok || index < 1 || index >= len(args) {
		return nil
	}
	return args[index]
}
