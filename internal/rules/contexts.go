// internal/rules/contexts.go
package rules

import (
	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

/*
 * Context explosion.
 *
 * Enumerates the cartesian product of array indices over a rule's loops,
 * one loop per recursion level in sorted-loop order. Tuples are row-major:
 * the first loop varies slowest.
 *
 * Nested arrays: before a deeper level resolves its array, the indices
 * chosen at enclosing levels are bound into its path (orders[@0].items with
 * loop 0 at index 3 resolves orders.3.items). Bindings are keyed by loop
 * ordinal, not by list position.
 *
 * Absent or non-array values resolve to zero elements and contribute zero
 * tuples for that branch; this is not an error.
 *
 * Zero loops yields exactly one empty tuple ("evaluate once, unconditioned"),
 * which is distinct from zero tuples ("evaluate in no context").
 */

// ContextSet is the (possibly partial) result of context generation.
type ContextSet struct {
	Tuples       [][]int // one index per loop, in sorted-loop order
	LimitReached bool
	TimeReached  bool
}

// GenerateContexts enumerates context tuples for loops under budget.
// Never fails; budget exhaustion is reported through the flags.
func GenerateContexts(doc, side types.Document, loops []Loop, budget *Budget) ContextSet {
	if len(loops) == 0 {
		return ContextSet{Tuples: [][]int{{}}}
	}

	g := &generator{
		doc:      doc,
		side:     side,
		loops:    loops,
		budget:   budget,
		bindings: make(map[int]int, len(loops)),
	}
	g.walk(0, make([]int, 0, len(loops)))

	return ContextSet{
		Tuples:       g.tuples,
		LimitReached: budget.LimitReached,
		TimeReached:  budget.TimeReached,
	}
}

// generator carries the recursion state for one GenerateContexts call.
type generator struct {
	doc      types.Document
	side     types.Document
	loops    []Loop
	budget   *Budget
	bindings map[int]int // loop ordinal -> chosen index
	tuples   [][]int
}

// walk expands loop `level` under the indices already chosen in prefix.
func (g *generator) walk(level int, prefix []int) {
	loop := g.loops[level]
	elems := g.elements(loop)
	last := level == len(g.loops)-1

	for i := range elems {
		if g.budget.Exhausted() {
			return
		}

		if last {
			if !g.budget.take() {
				return
			}
			tuple := make([]int, len(prefix)+1)
			copy(tuple, prefix)
			tuple[len(prefix)] = i
			g.tuples = append(g.tuples, tuple)
			continue
		}

		g.bindings[loop.Ordinal] = i
		g.walk(level+1, append(prefix, i))
	}
	delete(g.bindings, loop.Ordinal)
}

// elements resolves the loop's array with enclosing indices bound.
func (g *generator) elements(loop Loop) []any {
	path := bindPath(loop.Path, g.bindings)
	value, found, err := lookup(path, g.doc, g.side)
	if err != nil || !found {
		return nil
	}
	arr, _ := value.([]any)
	return arr
}

// bindPath returns a copy of p with loop segments replaced by the indices in
// bindings. Loops without a binding stay unbound and never resolve.
func bindPath(p types.Path, bindings map[int]int) types.Path {
	out := p.Clone()
	for i, seg := range out.Segments {
		if !seg.IsLoop {
			continue
		}
		if idx, ok := bindings[seg.Loop]; ok {
			out.Segments[i] = types.PathSegment{Index: idx, IsIndex: true}
		}
	}
	return out
}
