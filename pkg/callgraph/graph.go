package callgraph

import (
	"maps"
	"slices"
)

// Edge is a directed call from caller to callee.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph maps each caller to an ordered, duplicate-free list of callees.
//
// Callers and callees keep the order in which they were first added, so two
// graphs built from the same inputs in the same order are identical.
//
// The zero value is not usable; create graphs with [New].
// Graph is not safe for concurrent mutation.
type Graph struct {
	callees map[string][]string
	seen    map[string]map[string]bool
	callers []string
	edges   int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		callees: make(map[string][]string),
		seen:    make(map[string]map[string]bool),
	}
}

// AddEdge appends callee to caller's callee list unless it is already there.
// Self-edges are allowed. AddEdge reports whether the edge is new.
func (g *Graph) AddEdge(caller, callee string) bool {
	if caller == "" || callee == "" {
		return false
	}
	set, ok := g.seen[caller]
	if !ok {
		set = make(map[string]bool)
		g.seen[caller] = set
		g.callers = append(g.callers, caller)
	}
	if set[callee] {
		return false
	}
	set[callee] = true
	g.callees[caller] = append(g.callees[caller], callee)
	g.edges++
	return true
}

// Callees returns the callees of name in insertion order.
// The returned slice must not be modified.
func (g *Graph) Callees(name string) []string { return g.callees[name] }

// HasEdge reports whether caller calls callee.
func (g *Graph) HasEdge(caller, callee string) bool { return g.seen[caller][callee] }

// HasCaller reports whether name has at least one outgoing edge.
func (g *Graph) HasCaller(name string) bool { return len(g.callees[name]) > 0 }

// Callers returns every caller in first-seen order.
func (g *Graph) Callers() []string { return slices.Clone(g.callers) }

// Edges returns every edge, grouped by caller in first-seen order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, caller := range g.callers {
		for _, callee := range g.callees[caller] {
			out = append(out, Edge{From: caller, To: callee})
		}
	}
	return out
}

// CalleeSet returns the set of names that appear as a callee of any caller.
func (g *Graph) CalleeSet() map[string]bool {
	out := make(map[string]bool)
	for _, callees := range g.callees {
		for _, c := range callees {
			out[c] = true
		}
	}
	return out
}

// Functions returns every name that appears as caller or callee, sorted.
func (g *Graph) Functions() []string {
	set := g.CalleeSet()
	for _, c := range g.callers {
		set[c] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// Len returns the number of callers.
func (g *Graph) Len() int { return len(g.callers) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Overlay holds additional, hypothesized callees per caller. It sits next to
// a base [Graph] during analysis and never modifies it.
type Overlay map[string][]string

// Add appends callee to caller's overlay list unless it is already there.
func (o Overlay) Add(caller, callee string) {
	if slices.Contains(o[caller], callee) {
		return
	}
	o[caller] = append(o[caller], callee)
}

// Callees returns the combined callees of name: base graph callees first,
// then overlay callees, without duplicates. g may be nil.
func (o Overlay) Callees(g *Graph, name string) []string {
	var base []string
	if g != nil {
		base = g.Callees(name)
	}
	extra := o[name]
	if len(extra) == 0 {
		return base
	}
	out := slices.Clone(base)
	for _, c := range extra {
		if (g != nil && g.HasEdge(name, c)) || slices.Contains(out[len(base):], c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CalleeSet returns the set of names that appear as an overlay callee.
func (o Overlay) CalleeSet() map[string]bool {
	out := make(map[string]bool)
	for _, callees := range o {
		for _, c := range callees {
			out[c] = true
		}
	}
	return out
}

// Len returns the number of overlay edges.
func (o Overlay) Len() int {
	n := 0
	for _, callees := range o {
		n += len(callees)
	}
	return n
}
