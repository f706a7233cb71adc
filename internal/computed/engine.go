// Package computed runs evaluation passes over a form's computed variables
// and enforces the set-level rules variables must satisfy before they are
// stored.
package computed

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/solatis/formulary/internal/depgraph"
	"github.com/solatis/formulary/internal/formula"
	"github.com/solatis/formulary/internal/types"
)

// maxCachedPrograms bounds the compiled-formula cache. The cache is reset
// when it fills up.
const maxCachedPrograms = 4096

// Result is the outcome of one evaluation pass.
type Result struct {
	// Values maps every variable id to its value; nil is blank.
	Values map[string]any `json:"values"`

	// Order is the order variables were evaluated in.
	Order []string `json:"order"`

	// Failed lists variables on a dependency cycle. They were not evaluated.
	Failed []string `json:"failed,omitempty"`

	// Cycles holds the cycles found, each closed by repeating its first id.
	Cycles [][]string `json:"cycles,omitempty"`
}

// Engine evaluates computed variable sets. It is safe for concurrent use;
// every call builds its own context and shares only compiled programs.
type Engine struct {
	logger *slog.Logger

	mu       sync.Mutex
	programs map[string]*formula.Program
}

// NewEngine creates an engine that logs through logger (nil discards).
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger:   logger,
		programs: make(map[string]*formula.Program),
	}
}

// Evaluate computes every variable against data.
//
// Variables are evaluated in dependency order, each against the field data
// plus the variables already resolved. When the set has a cycle there is no
// such order: the pass falls back to declaration order and every variable on
// a cycle is set to nil without evaluating its formula. Variables outside the
// cycle still evaluate and see nil for any cyclic variable they reference.
//
// Values in data keyed by a variable id are ignored; a variable's value
// always comes from its formula.
func (e *Engine) Evaluate(vars []types.ComputedVariable, data map[string]any) Result {
	g := depgraph.Build(vars)
	ctx := formula.NewContext(data)
	for _, id := range g.Nodes() {
		delete(ctx, id)
	}

	result := Result{Values: make(map[string]any, len(vars))}
	skip := map[string]bool{}

	order, err := g.EvaluationOrder()
	if err != nil {
		var cycleErr *depgraph.CycleError
		if errors.As(err, &cycleErr) {
			result.Cycles = cycleErr.Cycles
		}
		order = g.Nodes()
		result.Failed = g.CyclicNodes()
		for _, id := range result.Failed {
			skip[id] = true
		}
		e.logger.Warn("computed variables have a circular dependency, using declaration order",
			"cycles", result.Cycles,
			"failed", result.Failed)
	}
	result.Order = order

	for _, id := range order {
		if skip[id] {
			ctx[id] = nil
			result.Values[id] = nil
			continue
		}
		v, _ := g.Variable(id)
		value := e.evaluateVariable(v, ctx)
		ctx[id] = value
		result.Values[id] = value
	}
	return result
}

// EvaluateForm evaluates the variables of form against data.
func (e *Engine) EvaluateForm(form *types.FormDefinition, data map[string]any) Result {
	return e.Evaluate(form.Variables, data)
}

func (e *Engine) evaluateVariable(v types.ComputedVariable, ctx formula.Context) any {
	prog, err := e.program(v.Formula)
	if err != nil {
		e.logger.Debug("computed variable formula does not compile",
			"variable_id", v.ID,
			"error", err)
		return nil
	}
	value := Shape(prog.Eval(ctx), v.ResultType)
	if value == nil {
		e.logger.Debug("computed variable evaluated to blank", "variable_id", v.ID)
	}
	return value
}

// program returns the compiled form of src, compiling on first use.
func (e *Engine) program(src string) (*formula.Program, error) {
	e.mu.Lock()
	prog, ok := e.programs[src]
	e.mu.Unlock()
	if ok {
		return prog, nil
	}

	prog, err := formula.Compile(src)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.programs) >= maxCachedPrograms {
		e.programs = make(map[string]*formula.Program)
	}
	e.programs[src] = prog
	e.mu.Unlock()
	return prog, nil
}

// Shape converts a formula result to the variable's result type.
// number keeps numeric values only, text renders non-blank values as text,
// and auto (or empty) leaves the value unchanged.
func Shape(value any, rt types.ResultType) any {
	switch rt.Normalize() {
	case types.ResultTypeNumber:
		n, ok := formula.ToNumber(value)
		if !ok {
			return nil
		}
		return n
	case types.ResultTypeText:
		if value == nil {
			return nil
		}
		return formula.ToText(value)
	default:
		return value
	}
}
