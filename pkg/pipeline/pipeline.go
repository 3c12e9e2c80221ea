// Package pipeline provides the core analysis pipeline for stackdepth.
//
// This package implements the complete parse → resolve → analyze pipeline
// used by every CLI command. By centralizing this logic, the analyze and
// graph commands see exactly the same model.
//
// # Architecture
//
// The pipeline consists of these stages, run in order by [Runner.Execute]:
//
//  1. Stack usage: walk the .su directories and merge every file into a
//     [stackusage.Table]. An empty table is fatal.
//  2. Call graph: load the ignore file, walk the cgraph directories and build
//     the normalized [callgraph.Graph].
//  3. Scenarios: load one scenario per add-calls file.
//  4. Entry points: merge the requested entry points with the interrupt
//     handlers found in the ELF vector table. Every name is kept; names
//     unknown to the table, the graph and every scenario get a warning and
//     cost 0 bytes. An empty set is fatal.
//  5. Reachability (optional): report functions with no caller.
//  6. Analysis: run every scenario over every entry point.
//
// Per-file parse results are cached by content hash, so repeated runs over
// an incremental build only parse changed files.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SUDirs:      []string{"build"},
//	    EntryPoints: []string{"main"},
//	    ELFFile:     "build/firmware.elf",
//	    VectorTable: "g_pfnVectors",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Overall.Result)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/reach"
	"github.com/matzehuels/stackdepth/pkg/scenario"
	"github.com/matzehuels/stackdepth/pkg/stackusage"
	"github.com/matzehuels/stackdepth/pkg/symbol"
)

// DefaultEntryPoint is analyzed when no entry point is requested.
const DefaultEntryPoint = "main"

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one analysis.
type Options struct {
	// Inputs
	ELFFile    string   `json:"elf_file,omitempty"`
	SUDirs     []string `json:"su_dirs,omitempty"`
	CGraphDirs []string `json:"cgraph_dirs,omitempty"`

	// Entry points
	EntryPoints []string `json:"entry_points,omitempty"`
	VectorTable string   `json:"vector_table,omitempty"`

	// Annotations
	IgnoreFile   string   `json:"ignore_file,omitempty"`
	AddCallFiles []string `json:"add_call_files,omitempty"`

	// Reachability runs the uncalled-function report.
	Reachability bool `json:"reachability,omitempty"`

	// Refresh bypasses cache reads; fresh parses are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
//
// At least one of SUDirs and CGraphDirs is required; each defaults to the
// other. Entry points are normalized and default to [DefaultEntryPoint].
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.SUDirs) == 0 && len(o.CGraphDirs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one stack usage or call graph directory is required")
	}
	if len(o.SUDirs) == 0 {
		o.SUDirs = o.CGraphDirs
	}
	if len(o.CGraphDirs) == 0 {
		o.CGraphDirs = o.SUDirs
	}
	if o.VectorTable != "" && o.ELFFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "vector table %q requires an ELF file", o.VectorTable)
	}

	// A nil list means DefaultEntryPoint. An explicitly empty one leaves
	// only the vector-table handlers.
	if o.EntryPoints == nil {
		o.EntryPoints = []string{DefaultEntryPoint}
	}
	o.EntryPoints = symbol.NormalizeAll(o.EntryPoints)

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in exported reports.
	RunID string

	// Table is the merged stack-usage table.
	Table *stackusage.Table

	// Graph is the base call graph without scenario additions.
	Graph *callgraph.Graph

	// Unresolved lists call-graph references with no definition.
	Unresolved []callgraph.Unresolved

	// EntryPoints is the sorted set that was analyzed.
	EntryPoints []string

	// ISRs are the handlers found in the vector table.
	ISRs []string

	// Scenarios are the loaded scenarios, in order.
	Scenarios []scenario.Scenario

	// Report holds per-scenario and overall worst cases.
	Report *scenario.Report

	// Uncalled is set when Options.Reachability is true.
	Uncalled []reach.Uncalled

	// Reachability reports whether Uncalled was computed.
	Reachability bool

	// Warnings collects every non-fatal problem of the run.
	Warnings *diag.Warnings

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo counts per-file cache hits.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SUFiles     int
	CGraphFiles int
	Functions   int // raw names in the stack-usage table
	Callers     int
	Edges       int
	Symbols     int // call-graph definitions
	ParseTime   time.Duration
	AnalyzeTime time.Duration
}

// CacheInfo tracks per-file cache usage.
type CacheInfo struct {
	Hits   int
	Misses int
}

// Scenario returns the loaded scenario labeled label.
func (r *Result) Scenario(label string) (scenario.Scenario, bool) {
	for _, sc := range r.Scenarios {
		if sc.Label == label {
			return sc, true
		}
	}
	return scenario.Scenario{}, false
}
