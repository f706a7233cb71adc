package formula

import (
	"fmt"
	"strings"

	"github.com/solatis/formulary/internal/types"
)

/*
 * Formula compilation.
 *
 * Compile turns source text into a Program, an expression tree ready for
 * repeated evaluation. Structural problems (unbalanced parentheses, stray
 * tokens, malformed literals, bare identifiers, excessive nesting) are fatal
 * and returned as *SyntaxError.
 *
 * Unknown function names and argument-count mismatches are recorded as
 * diagnostics instead. They make Validate fail at authoring time, but at
 * evaluation time the offending call simply produces nil, matching the
 * registry's failure boundary.
 *
 * Grammar, lowest binding first:
 *
 *   ||
 *   &&
 *   =  ==  !=  <>
 *   <  <=  >  >=
 *   &                (text concatenation)
 *   +  -
 *   *  /  %
 *   ^                (right-associative)
 *   prefix - + !     (operand binds at ^ level, so -2^2 is -(2^2))
 *   literal | {reference} | NAME(args) | (expr) | [elems]
 *
 * Nesting is capped at types.MaxNestingDepth to bound recursion.
 */

// Program is a compiled formula.
type Program struct {
	source      string
	root        node
	diagnostics []*SyntaxError
}

// Compile parses src into a Program.
func Compile(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Program{source: src, root: root, diagnostics: p.diags}, nil
}

// Source returns the formula text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Diagnostics returns non-fatal problems: unknown functions and arity mismatches.
func (p *Program) Diagnostics() []*SyntaxError {
	return p.diagnostics
}

// References returns the ids the formula refers to, in first-seen order.
func (p *Program) References() []string {
	return ReferenceIDs(p.source)
}

type binaryInfo struct {
	op    Operator
	bp    int
	right bool
}

const prefixBindingPower = 8

var binaryOperators = map[tokenKind]binaryInfo{
	tokOr:      {op: OpOr, bp: 1},
	tokAnd:     {op: OpAnd, bp: 2},
	tokEq:      {op: OpEq, bp: 3},
	tokNeq:     {op: OpNeq, bp: 3},
	tokLt:      {op: OpLt, bp: 4},
	tokLte:     {op: OpLte, bp: 4},
	tokGt:      {op: OpGt, bp: 4},
	tokGte:     {op: OpGte, bp: 4},
	tokAmp:     {op: OpConcat, bp: 5},
	tokPlus:    {op: OpAdd, bp: 6},
	tokMinus:   {op: OpSub, bp: 6},
	tokStar:    {op: OpMul, bp: 7},
	tokSlash:   {op: OpDiv, bp: 7},
	tokPercent: {op: OpMod, bp: 7},
	tokCaret:   {op: OpPow, bp: 8, right: true},
}

var prefixOperators = map[tokenKind]Operator{
	tokMinus: OpNeg,
	tokPlus:  OpPos,
	tokBang:  OpNot,
}

type parser struct {
	toks  []token
	i     int
	depth int
	diags []*SyntaxError
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) parse() (node, error) {
	root, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, unexpected(t)
	}
	return root, nil
}

func (p *parser) expr(minBP int) (node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > types.MaxNestingDepth {
		return nil, syntaxErrorf(p.peek().pos, "formula is nested too deeply")
	}

	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := binaryOperators[p.peek().kind]
		if !ok || info.bp < minBP {
			return left, nil
		}
		p.next()
		nextBP := info.bp + 1
		if info.right {
			nextBP = info.bp
		}
		right, err := p.expr(nextBP)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: info.op, left: left, right: right}
	}
}

func (p *parser) prefix() (node, error) {
	if op, ok := prefixOperators[p.peek().kind]; ok {
		p.next()
		operand, err := p.expr(prefixBindingPower)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber, tokString:
		return &literalNode{value: t.value}, nil
	case tokRef:
		return &refNode{id: t.value.(string)}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		switch strings.ToLower(t.text) {
		case "true":
			return &literalNode{value: true}, nil
		case "false":
			return &literalNode{value: false}, nil
		case "null":
			return &literalNode{value: nil}, nil
		}
		return nil, syntaxErrorf(t.pos, "unknown identifier %q (field and variable references are written as {%s})", t.text, t.text)
	case tokLParen:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, syntaxErrorf(t.pos, "missing closing parenthesis")
		}
		p.next()
		return inner, nil
	case tokLBracket:
		elems, err := p.list(tokRBracket, t, "missing closing bracket")
		if err != nil {
			return nil, err
		}
		return &arrayNode{elems: elems}, nil
	default:
		return nil, unexpected(t)
	}
}

// call parses NAME( args ) with the name token already consumed.
func (p *parser) call(name token) (node, error) {
	open := p.next()
	args, err := p.list(tokRParen, open, fmt.Sprintf("missing closing parenthesis for %s(", strings.ToUpper(name.text)))
	if err != nil {
		return nil, err
	}

	fn, ok := Builtins.Lookup(name.text)
	if !ok {
		p.diags = append(p.diags, syntaxErrorf(name.pos, "unknown function %s", strings.ToUpper(name.text)))
		return &callNode{fn: FuncUnknown, args: args}, nil
	}
	def, _ := fn.Def()
	if !def.Accepts(len(args)) {
		p.diags = append(p.diags, syntaxErrorf(name.pos, "%s", arityMessage(def, len(args))))
	}
	return &callNode{fn: fn, args: args}, nil
}

// list parses comma-separated expressions up to the closing token.
func (p *parser) list(closing tokenKind, open token, missing string) ([]node, error) {
	var elems []node
	if p.peek().kind == closing {
		p.next()
		return elems, nil
	}
	for {
		elem, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		switch t := p.peek(); t.kind {
		case tokComma:
			p.next()
		case closing:
			p.next()
			return elems, nil
		case tokEOF:
			return nil, syntaxErrorf(open.pos, "%s", missing)
		default:
			return nil, unexpected(t)
		}
	}
}

func unexpected(t token) *SyntaxError {
	switch t.kind {
	case tokEOF:
		return syntaxErrorf(t.pos, "unexpected end of formula")
	case tokRParen:
		return syntaxErrorf(t.pos, "unexpected ')' without matching '('")
	default:
		return syntaxErrorf(t.pos, "unexpected %s %q", t.kind, t.text)
	}
}

func arityMessage(def FunctionDef, got int) string {
	switch {
	case def.MaxArgs == def.MinArgs:
		return fmt.Sprintf("%s expects %d argument(s), got %d", def.Name, def.MinArgs, got)
	case got < def.MinArgs:
		return fmt.Sprintf("%s expects at least %d argument(s), got %d", def.Name, def.MinArgs, got)
	default:
		return fmt.Sprintf("%s expects at most %d argument(s), got %d", def.Name, def.MaxArgs, got)
	}
}
