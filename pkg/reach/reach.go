// Package reach reports functions with a known stack cost but no discovered
// caller.
//
// Such functions are either dead code or reached through edges the static
// call graph cannot see (function pointers, callbacks). Either way they are
// excluded from every worst-case path, so the report is a hint about missing
// annotations. It is advisory and never affects the analysis result.
package reach

import (
	"github.com/matzehuels/stackdepth/pkg/callgraph"
)

// Table is the subset of the stack-usage table the report needs.
type Table interface {
	NormalizedNames() []string
	FrameSize(name string) int
	RawName(name string) string
}

// Uncalled is one function with no caller.
type Uncalled struct {
	Name    string `json:"name"`
	RawName string `json:"raw_name"`
	Size    int    `json:"size"`
}

// Find returns, sorted by name, every normalized function in table that is
// not a callee in g, not a callee in any overlay and not an entry point.
func Find(table Table, g *callgraph.Graph, overlays []callgraph.Overlay, entries []string) []Uncalled {
	called := g.CalleeSet()
	for _, o := range overlays {
		for c := range o.CalleeSet() {
			called[c] = true
		}
	}
	for _, e := range entries {
		called[e] = true
	}

	var out []Uncalled
	for _, name := range table.NormalizedNames() {
		if called[name] {
			continue
		}
		out = append(out, Uncalled{
			Name:    name,
			RawName: table.RawName(name),
			Size:    table.FrameSize(name),
		})
	}
	return out
}

// Bytes sums the frame sizes of the report.
func Bytes(u []Uncalled) int {
	n := 0
	for _, f := range u {
		n += f.Size
	}
	return n
}
