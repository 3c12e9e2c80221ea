// Package analysis computes worst-case stack depth over a call graph.
//
// # Algorithm
//
// [Analyzer.WorstCase] runs a depth-first search from a start function over
// the base call graph combined with an optional scenario [callgraph.Overlay]:
//
//  1. A function already on the active path is recursion. The search returns
//     an unbounded result whose Cycle is the active path from the first
//     occurrence of that function, followed by the function again.
//  2. Otherwise a memoized result is returned as is.
//  3. Otherwise every callee is explored. The first callee whose result is
//     strictly greater than the best so far wins; the best starts at a finite
//     zero with an empty path.
//  4. The function's own frame size is added and its name prepended to the
//     winning path. An unbounded downstream result makes this one unbounded.
//  5. Finite results are memoized.
//
// The cycle check runs before the memo lookup, so a function cannot hide a
// recursion behind an earlier finite result.
//
// # Worklist
//
// Embedded call graphs can be very deep, so the search keeps its own stack of
// frames instead of recursing natively. Memory is proportional to the depth
// of the explored path.
//
// # Memo Sharing
//
// The memo lives on the Analyzer and is reused across calls to WorstCase. A
// finite result proves no cycle is reachable from that function, so it holds
// regardless of which entry point reached it. Use one Analyzer per scenario.
package analysis

import (
	"github.com/matzehuels/stackdepth/pkg/callgraph"
)

// SizeTable provides per-function frame sizes. Unknown functions report 0.
type SizeTable interface {
	FrameSize(name string) int
}

// Analyzer computes worst-case paths for one graph and overlay.
type Analyzer struct {
	graph   *callgraph.Graph
	sizes   SizeTable
	overlay callgraph.Overlay
	memo    map[string]outcome

	visits int
}

// New returns an Analyzer over g with frame sizes from sizes. overlay may be
// nil. Neither g nor overlay is modified.
func New(g *callgraph.Graph, sizes SizeTable, overlay callgraph.Overlay) *Analyzer {
	return &Analyzer{
		graph:   g,
		sizes:   sizes,
		overlay: overlay,
		memo:    make(map[string]outcome),
	}
}

// link is one element of a path. Paths share tails, so extending a
// downstream path by one function is constant time.
type link struct {
	fn   string
	next *link
	n    int
}

// outcome is the internal form of a Result.
type outcome struct {
	total     int
	unbounded bool
	path      *link
	cycle     []string
}

func (o outcome) greater(p outcome) bool {
	switch {
	case o.unbounded:
		return !p.unbounded
	case p.unbounded:
		return false
	default:
		return o.total > p.total
	}
}

func (o outcome) result() Result {
	path := make([]string, 0, pathLen(o.path))
	for l := o.path; l != nil; l = l.next {
		path = append(path, l.fn)
	}
	return Result{Total: o.total, Unbounded: o.unbounded, Path: path, Cycle: o.cycle}
}

func pathLen(l *link) int {
	if l == nil {
		return 0
	}
	return l.n
}

// frame is one function under exploration.
type frame struct {
	fn      string
	callees []string
	next    int
	best    outcome
}

// WorstCase returns the worst-case result starting at start.
func (a *Analyzer) WorstCase(start string) Result {
	var (
		stack  []*frame
		onPath = make(map[string]int)
	)

	// enter resolves fn immediately when it is a cycle or memoized,
	// otherwise pushes a new frame and reports false.
	enter := func(fn string) (outcome, bool) {
		if i, ok := onPath[fn]; ok {
			cycle := make([]string, 0, len(stack)-i+1)
			for _, f := range stack[i:] {
				cycle = append(cycle, f.fn)
			}
			return outcome{unbounded: true, cycle: append(cycle, fn)}, true
		}
		if o, ok := a.memo[fn]; ok {
			return o, true
		}
		a.visits++
		onPath[fn] = len(stack)
		stack = append(stack, &frame{fn: fn, callees: a.overlay.Callees(a.graph, fn)})
		return outcome{}, false
	}

	if o, done := enter(start); done {
		return o.result()
	}

	for {
		top := stack[len(stack)-1]
		if top.next < len(top.callees) {
			callee := top.callees[top.next]
			top.next++
			if o, done := enter(callee); done && o.greater(top.best) {
				top.best = o
			}
			continue
		}

		o := a.finish(top)
		stack = stack[:len(stack)-1]
		delete(onPath, top.fn)
		if len(stack) == 0 {
			return o.result()
		}
		if parent := stack[len(stack)-1]; o.greater(parent.best) {
			parent.best = o
		}
	}
}

func (a *Analyzer) finish(f *frame) outcome {
	o := outcome{
		unbounded: f.best.unbounded,
		path:      &link{fn: f.fn, next: f.best.path, n: pathLen(f.best.path) + 1},
		cycle:     f.best.cycle,
	}
	if !o.unbounded {
		o.total = a.sizes.FrameSize(f.fn) + f.best.total
		a.memo[f.fn] = o
	}
	return o
}

// Visits returns how many functions were expanded, memo hits excluded.
func (a *Analyzer) Visits() int { return a.visits }

// Memoized returns the number of finite results cached so far.
func (a *Analyzer) Memoized() int { return len(a.memo) }
