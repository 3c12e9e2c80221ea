package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stackdepth/pkg/analysis"
	"github.com/matzehuels/stackdepth/pkg/buildinfo"
	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
	"github.com/matzehuels/stackdepth/pkg/reach"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

// Report is the JSON form of a [pipeline.Result].
type Report struct {
	RunID       string                 `json:"run_id"`
	Version     string                 `json:"version"`
	EntryPoints []string               `json:"entry_points"`
	ISRs        []string               `json:"isrs,omitempty"`
	Scenarios   []Scenario             `json:"scenarios"`
	Worst       Worst                  `json:"worst"`
	Uncalled    []reach.Uncalled       `json:"uncalled,omitempty"`
	Unresolved  []callgraph.Unresolved `json:"unresolved,omitempty"`
	Warnings    []Warning              `json:"warnings,omitempty"`
	Stats       Stats                  `json:"stats"`
}

// Scenario is the worst case of one scenario.
type Scenario struct {
	Label     string   `json:"label"`
	Entry     string   `json:"entry,omitempty"`
	Total     int      `json:"total"`
	Unbounded bool     `json:"unbounded"`
	Path      []string `json:"path"`
	Cycle     []string `json:"cycle,omitempty"`
}

// Worst is the overall worst case with its per-frame breakdown.
type Worst struct {
	Scenario
	Frames []analysis.Frame `json:"frames,omitempty"`
}

// Warning is one recorded warning.
type Warning struct {
	Tier    string `json:"tier"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Stats summarizes the model the analysis ran on.
type Stats struct {
	SUFiles     int   `json:"su_files"`
	CGraphFiles int   `json:"cgraph_files"`
	Functions   int   `json:"functions"`
	Callers     int   `json:"callers"`
	Edges       int   `json:"edges"`
	ParseMS     int64 `json:"parse_ms"`
	AnalyzeMS   int64 `json:"analyze_ms"`
}

// NewReport converts res into its JSON form.
func NewReport(res *pipeline.Result) Report {
	rep := Report{
		RunID:       res.RunID,
		Version:     buildinfo.Version,
		EntryPoints: res.EntryPoints,
		ISRs:        res.ISRs,
		Uncalled:    res.Uncalled,
		Unresolved:  res.Unresolved,
		Stats: Stats{
			SUFiles:     res.Stats.SUFiles,
			CGraphFiles: res.Stats.CGraphFiles,
			Functions:   res.Stats.Functions,
			Callers:     res.Stats.Callers,
			Edges:       res.Stats.Edges,
			ParseMS:     res.Stats.ParseTime.Milliseconds(),
			AnalyzeMS:   res.Stats.AnalyzeTime.Milliseconds(),
		},
	}
	if res.Report != nil {
		for _, o := range res.Report.Scenarios {
			rep.Scenarios = append(rep.Scenarios, toScenario(o))
		}
		rep.Worst = Worst{Scenario: toScenario(res.Report.Overall)}
		if r := res.Report.Overall.Result; !r.Unbounded && res.Table != nil {
			rep.Worst.Frames = analysis.Breakdown(r.Path, res.Table)
		}
	}
	for _, w := range res.Warnings.All() {
		rep.Warnings = append(rep.Warnings, Warning{
			Tier:    w.Tier.String(),
			Source:  w.Source,
			Line:    w.Line,
			Message: w.Message,
		})
	}
	return rep
}

func toScenario(o scenario.Outcome) Scenario {
	path := o.Result.Path
	if path == nil {
		path = []string{}
	}
	return Scenario{
		Label:     o.Label,
		Entry:     o.Entry,
		Total:     o.Result.Total,
		Unbounded: o.Result.Unbounded,
		Path:      path,
		Cycle:     o.Result.Cycle,
	}
}

// WriteJSON encodes the report of res as indented JSON and writes it to w.
func WriteJSON(res *pipeline.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(res)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the report of res to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(res *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a report written by [WriteJSON].
func ReadJSON(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// ImportJSON reads a report from the file at path.
func ImportJSON(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
