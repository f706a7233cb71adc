package formula

/*
 * Formula evaluation.
 *
 * Evaluation is pure and synchronous: the context is read, never written,
 * and the result is one of nil, float64, string, bool or []any. Nothing is
 * returned as an error. A formula that fails to compile evaluates to nil, an
 * unresolved {reference} is nil, and a failing function call is nil at the
 * call site only, so the rest of the expression still evaluates.
 *
 * && and || short-circuit; everything else evaluates operands eagerly,
 * including function arguments.
 */

// Evaluate compiles and evaluates src against ctx.
// Syntax errors yield nil; use Validate to surface them.
func Evaluate(src string, ctx Context) any {
	prog, err := Compile(src)
	if err != nil {
		return nil
	}
	return prog.Eval(ctx)
}

// Eval evaluates the program against ctx.
func (p *Program) Eval(ctx Context) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return p.root.eval(ctx)
}

type node interface {
	eval(ctx Context) any
}

type literalNode struct {
	value any
}

func (n *literalNode) eval(Context) any {
	return n.value
}

type refNode struct {
	id string
}

func (n *refNode) eval(ctx Context) any {
	v, _ := ctx.Lookup(n.id)
	return v
}

type arrayNode struct {
	elems []node
}

func (n *arrayNode) eval(ctx Context) any {
	out := make([]any, len(n.elems))
	for i, elem := range n.elems {
		out[i] = elem.eval(ctx)
	}
	return out
}

type unaryNode struct {
	op      Operator
	operand node
}

func (n *unaryNode) eval(ctx Context) any {
	return ApplyUnary(n.op, n.operand.eval(ctx))
}

type binaryNode struct {
	op          Operator
	left, right node
}

func (n *binaryNode) eval(ctx Context) any {
	left := n.left.eval(ctx)
	switch n.op {
	case OpAnd:
		return IsTruthy(left) && IsTruthy(n.right.eval(ctx))
	case OpOr:
		return IsTruthy(left) || IsTruthy(n.right.eval(ctx))
	}
	return Apply(n.op, left, n.right.eval(ctx))
}

type callNode struct {
	fn   Function
	args []node
}

func (n *callNode) eval(ctx Context) any {
	args := make([]any, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(ctx)
	}
	return n.fn.Call(args)
}
