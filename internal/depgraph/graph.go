// Package depgraph orders computed variables by the references in their formulas.
//
// Nodes are variable ids. An edge A -> B means the formula of A references
// variable B. Field references are leaves: they are remembered for
// dependency queries but never become nodes. Edges come from
// formula.ExtractReferences, the same extraction the validator uses.
package depgraph

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/solatis/formulary/internal/formula"
	"github.com/solatis/formulary/internal/types"
)

// Graph is an immutable dependency graph over one set of computed variables.
type Graph struct {
	order     []string                          // variable ids in declaration order
	index     map[string]int                    // id -> declaration index
	variables map[string]types.ComputedVariable // id -> definition
	refs      map[string][]string               // id -> every referenced id (fields and variables)
	deps      map[string][]string               // id -> referenced variable ids
}

// CycleError reports that no evaluation order exists.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	if len(e.Cycles) == 0 {
		return types.ErrCircularDependency.Error()
	}
	return fmt.Sprintf("%s: %s", types.ErrCircularDependency, strings.Join(e.Cycles[0], " -> "))
}

// Unwrap lets callers match with errors.Is(err, types.ErrCircularDependency).
func (e *CycleError) Unwrap() error {
	return types.ErrCircularDependency
}

// Build constructs the graph. A repeated variable id keeps its first definition.
func Build(vars []types.ComputedVariable) *Graph {
	g := &Graph{
		order:     make([]string, 0, len(vars)),
		index:     make(map[string]int, len(vars)),
		variables: make(map[string]types.ComputedVariable, len(vars)),
		refs:      make(map[string][]string, len(vars)),
		deps:      make(map[string][]string, len(vars)),
	}
	for _, v := range vars {
		if _, dup := g.index[v.ID]; dup {
			continue
		}
		g.index[v.ID] = len(g.order)
		g.order = append(g.order, v.ID)
		g.variables[v.ID] = v
	}
	for _, id := range g.order {
		refs := formula.ReferenceIDs(g.variables[id].Formula)
		g.refs[id] = refs
		for _, ref := range refs {
			if _, isVar := g.index[ref]; isVar {
				g.deps[id] = append(g.deps[id], ref)
			}
		}
	}
	return g
}

// Nodes returns variable ids in declaration order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Variable returns the definition registered under id.
func (g *Graph) Variable(id string) (types.ComputedVariable, bool) {
	v, ok := g.variables[id]
	return v, ok
}

// Has reports whether id is a variable node.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// EvaluationOrder returns a topological order in which every variable comes
// after the variables it references. Variables without a dependency
// relationship keep their declaration order. A cycle yields *CycleError and
// no order; falling back to declaration order is the caller's decision.
func (g *Graph) EvaluationOrder() ([]string, error) {
	pending := make([]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		pending[g.index[id]] = len(g.deps[id])
		for _, dep := range g.deps[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := &indexHeap{}
	for i, n := range pending {
		if n == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		id := g.order[heap.Pop(ready).(int)]
		order = append(order, id)
		for _, dependent := range dependents[id] {
			idx := g.index[dependent]
			pending[idx]--
			if pending[idx] == 0 {
				heap.Push(ready, idx)
			}
		}
	}

	if len(order) < len(g.order) {
		return nil, &CycleError{Cycles: g.DetectCycles()}
	}
	return order, nil
}

// DetectCycles walks the graph depth-first in declaration order. Reaching a
// node that is still on the recursion stack closes a cycle, reported as the
// path from that node's first occurrence back to itself: [a b a]. A
// self-reference is reported as [a a].
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool, len(g.order))
	onStack := make(map[string]int, len(g.order))
	var path []string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = len(path)
		path = append(path, id)
		for _, dep := range g.deps[id] {
			if start, ok := onStack[dep]; ok {
				cycle := append(append([]string(nil), path[start:]...), dep)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[dep] {
				visit(dep)
			}
		}
		path = path[:len(path)-1]
		delete(onStack, id)
	}

	for _, id := range g.order {
		if !visited[id] {
			visit(id)
		}
	}
	return cycles
}

// CyclicNodes returns, in declaration order, every variable that can reach
// itself. This covers all members of a strongly connected component, not
// only the nodes on the cycles DetectCycles happens to report.
func (g *Graph) CyclicNodes() []string {
	var out []string
	for _, id := range g.order {
		if g.reaches(id, id) {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) reaches(from, target string) bool {
	seen := map[string]bool{}
	stack := append([]string(nil), g.deps[from]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.deps[id]...)
	}
	return false
}

// Dependencies returns the ids (fields and variables) that id's formula
// references directly.
func (g *Graph) Dependencies(id string) []string {
	return append([]string(nil), g.refs[id]...)
}

// Dependents returns, in declaration order, the variables whose formulas
// reference id directly. id may be a field or a variable.
func (g *Graph) Dependents(id string) []string {
	var out []string
	for _, v := range g.order {
		for _, ref := range g.refs[v] {
			if ref == id {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// AllDependencies returns every id that id depends on transitively, fields
// included, in depth-first discovery order. id itself is never included.
func (g *Graph) AllDependencies(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(cur string) {
		for _, ref := range g.refs[cur] {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			out = append(out, ref)
			walk(ref)
		}
	}
	walk(id)
	return out
}

// AllDependents returns every variable that depends on id transitively, in
// breadth-first order. Used to answer "what changes if this field changes".
func (g *Graph) AllDependents(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dependent := range g.Dependents(cur) {
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			out = append(out, dependent)
			queue = append(queue, dependent)
		}
	}
	return out
}

// indexHeap is a min-heap of declaration indices; it breaks topological ties
// in declaration order.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
