// Package scenario evaluates worst-case stack usage under alternative sets of
// hypothesized call edges.
//
// A scenario is one additive annotation file: callbacks, function pointers or
// RTOS hooks the static call graph cannot see. Scenarios are independent;
// each one is applied to the unmodified base graph and never combined with
// another. Without any file a single base scenario with no additions runs.
package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/matzehuels/stackdepth/pkg/analysis"
	"github.com/matzehuels/stackdepth/pkg/annotation"
	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/diag"
)

const (
	// BaseLabel labels the implicit scenario used when no files are given.
	BaseLabel = "Base (no callbacks added)"

	// NoneLabel labels the overall outcome when no scenario produced a
	// positive worst case.
	NoneLabel = "None (Base)"
)

// Scenario is a label plus the edges it assumes.
type Scenario struct {
	Label     string
	Source    string // file the additions were loaded from, empty for base
	Additions *annotation.Set
}

// Base returns the scenario with no additional edges.
func Base() Scenario {
	return Scenario{Label: BaseLabel, Additions: annotation.NewSet()}
}

// Load reads one scenario per path, in order. With no paths it returns only
// [Base]. Labels are unique, see [labels].
func Load(paths []string, w *diag.Warnings) ([]Scenario, error) {
	if len(paths) == 0 {
		return []Scenario{Base()}, nil
	}
	names := labels(paths)
	out := make([]Scenario, 0, len(paths))
	for i, p := range paths {
		set, err := annotation.Load(p, w)
		if err != nil {
			return nil, err
		}
		out = append(out, Scenario{Label: names[i], Source: p, Additions: set})
	}
	return out, nil
}

// labels names each path by its base name. A base name shared by several
// paths falls back to the cleaned path, and a path given more than once gets
// a "#n" suffix from its second occurrence on.
func labels(paths []string) []string {
	bases := make(map[string]int, len(paths))
	for _, p := range paths {
		bases[filepath.Base(p)]++
	}
	seen := make(map[string]int, len(paths))
	out := make([]string, len(paths))
	for i, p := range paths {
		label := filepath.Base(p)
		if bases[label] > 1 {
			label = filepath.ToSlash(filepath.Clean(p))
		}
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s#%d", label, n)
		}
		out[i] = label
	}
	return out
}

// EntryResult is the worst case from one entry point.
type EntryResult struct {
	Entry  string          `json:"entry"`
	Result analysis.Result `json:"result"`
}

// Outcome is the evaluation of one scenario.
type Outcome struct {
	Label   string          `json:"label"`
	Entry   string          `json:"entry,omitempty"` // winning entry point
	Result  analysis.Result `json:"result"`
	Entries []EntryResult   `json:"entries,omitempty"`
	Edges   int             `json:"edges"` // overlay edges added
}

// Report holds every scenario outcome and the overall winner.
type Report struct {
	Scenarios []Outcome `json:"scenarios"`
	Overall   Outcome   `json:"overall"`
}

// Engine runs scenarios over one graph and table.
type Engine struct {
	Graph *callgraph.Graph
	Sizes analysis.SizeTable

	// OnScenario is called after each scenario completes. Optional.
	OnScenario func(Outcome)
}

// Run evaluates each scenario against every entry point. Entries are
// analyzed in sorted order. Run stops early only if ctx is canceled.
func (e *Engine) Run(ctx context.Context, scenarios []Scenario, entries []string) (*Report, error) {
	sorted := slices.Sorted(slices.Values(entries))
	sorted = slices.Compact(sorted)

	rep := &Report{
		Scenarios: make([]Outcome, 0, len(scenarios)),
		Overall:   Outcome{Label: NoneLabel},
	}
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := e.evaluate(sc, sorted)
		rep.Scenarios = append(rep.Scenarios, out)
		if e.OnScenario != nil {
			e.OnScenario(out)
		}
		if out.Result.Greater(rep.Overall.Result) {
			rep.Overall = out
		}
	}
	return rep, nil
}

func (e *Engine) evaluate(sc Scenario, entries []string) Outcome {
	overlay := sc.Additions.Overlay()
	an := analysis.New(e.Graph, e.Sizes, overlay)

	out := Outcome{
		Label:   sc.Label,
		Entries: make([]EntryResult, 0, len(entries)),
		Edges:   overlay.Len(),
	}
	for _, entry := range entries {
		res := an.WorstCase(entry)
		out.Entries = append(out.Entries, EntryResult{Entry: entry, Result: res})
		if res.Greater(out.Result) {
			out.Entry = entry
			out.Result = res
		}
	}
	return out
}

// Find returns the outcome labeled label.
func (r *Report) Find(label string) (Outcome, bool) {
	for _, o := range r.Scenarios {
		if o.Label == label {
			return o, true
		}
	}
	return Outcome{}, false
}

// Overlays returns every scenario's overlay, in order.
func Overlays(scenarios []Scenario) []callgraph.Overlay {
	out := make([]callgraph.Overlay, len(scenarios))
	for i, sc := range scenarios {
		out[i] = sc.Additions.Overlay()
	}
	return out
}
