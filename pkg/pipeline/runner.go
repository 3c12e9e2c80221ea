package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/stackdepth/pkg/annotation"
	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/observability"
	"github.com/matzehuels/stackdepth/pkg/reach"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL bounds how long parse results stay cached. Defaults to
	// [cache.TTLScan].
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLScan,
	}
}

// Execute runs the complete analysis. Fatal outcomes are coded errors
// ([errors.ErrCodeNoStackUsage], [errors.ErrCodeNoEntryPoints],
// [errors.ErrCodeFileNotFound], [errors.ErrCodeInvalidInput]); everything
// else is recorded in Result.Warnings.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	w := diag.New()
	result := &Result{
		RunID:    uuid.NewString(),
		Warnings: w,
	}

	// Stage 1: Stack usage
	parseStart := time.Now()
	table, files, err := r.loadStackUsage(ctx, opts, w, &result.CacheInfo)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, errors.New(errors.ErrCodeNoStackUsage,
			"no stack usage records found in: %v (build with -fstack-usage)", opts.SUDirs)
	}
	result.Table = table
	result.Stats.SUFiles = files
	result.Stats.Functions = table.Len()
	r.Logger.Info("parsed stack usage",
		"files", files,
		"functions", table.Len())

	// Stage 2: Call graph
	var ignore *annotation.Set
	if opts.IgnoreFile != "" {
		if ignore, err = annotation.Load(opts.IgnoreFile, w); err != nil {
			return nil, err
		}
		r.Logger.Debug("loaded ignore set", "file", opts.IgnoreFile, "pairs", ignore.Len())
	}
	cg, err := r.loadCallGraph(ctx, opts, ignore, w, &result.CacheInfo)
	if err != nil {
		return nil, err
	}
	result.Graph = cg.Graph
	result.Unresolved = cg.Unresolved
	result.Stats.CGraphFiles = cg.Files
	result.Stats.Callers = cg.Graph.Len()
	result.Stats.Edges = cg.Graph.EdgeCount()
	result.Stats.Symbols = cg.Symbols
	result.Stats.ParseTime = time.Since(parseStart)
	r.Logger.Info("built call graph",
		"files", cg.Files,
		"callers", cg.Graph.Len(),
		"edges", cg.Graph.EdgeCount(),
		"duration", result.Stats.ParseTime)
	for _, u := range cg.Unresolved {
		r.Logger.Debug("unresolved call", "caller", u.Caller, "ref", u.Ref)
	}

	// Stage 3: Scenarios
	scenarios, err := scenario.Load(opts.AddCallFiles, w)
	if err != nil {
		return nil, err
	}
	result.Scenarios = scenarios

	// Stage 4: Entry points
	entries, isrs := r.resolveEntryPoints(opts, result, w)
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoEntryPoints, "no valid entry points found for analysis")
	}
	result.EntryPoints = entries
	result.ISRs = isrs
	r.Logger.Info("resolved entry points", "entries", entries)

	// Stage 5: Reachability
	if opts.Reachability {
		result.Uncalled = reach.Find(table, cg.Graph, scenario.Overlays(scenarios), entries)
		result.Reachability = true
		r.Logger.Debug("uncalled functions",
			"count", len(result.Uncalled),
			"bytes", reach.Bytes(result.Uncalled))
	}

	// Stage 6: Analysis
	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, len(scenarios), len(entries))
	analyzeStart := time.Now()
	engine := &scenario.Engine{
		Graph: cg.Graph,
		Sizes: table,
		OnScenario: func(o scenario.Outcome) {
			hooks.OnScenarioComplete(ctx, o.Label, o.Result.Total, o.Result.Unbounded)
			r.Logger.Debug("analyzed scenario",
				"scenario", o.Label,
				"entry", o.Entry,
				"result", o.Result,
				"added_edges", o.Edges)
		},
	}
	report, err := engine.Run(ctx, scenarios, entries)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	hooks.OnAnalyzeComplete(ctx, result.Stats.AnalyzeTime, err)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Report = report
	r.Logger.Info("analyzed scenarios",
		"scenarios", len(scenarios),
		"worst", report.Overall.Label,
		"duration", result.Stats.AnalyzeTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// resolveEntryPoints merges requested entry points with vector-table
// handlers. Every merged name is kept; one that neither the table, the graph
// nor any scenario knows gets a local warning and counts as 0 bytes.
func (r *Runner) resolveEntryPoints(opts Options, res *Result, w *diag.Warnings) (entries, isrs []string) {
	set := make(map[string]bool)
	for _, e := range opts.EntryPoints {
		set[e] = true
	}

	if opts.VectorTable != "" {
		isrs = locateISRs(opts.ELFFile, opts.VectorTable, w)
		var added []string
		for _, name := range isrs {
			if !set[name] {
				set[name] = true
				added = append(added, name)
			}
		}
		if len(added) > 0 {
			r.Logger.Info("added interrupt handlers from vector table", "count", len(added), "handlers", added)
		}
	}

	known := make(map[string]bool)
	for _, fn := range res.Graph.Functions() {
		known[fn] = true
	}
	for _, sc := range res.Scenarios {
		for _, p := range sc.Additions.Pairs() {
			known[p.Caller] = true
			known[p.Callee] = true
		}
	}
	entries = slices.Sorted(maps.Keys(set))
	for _, name := range entries {
		if _, ok := res.Table.Lookup(name); !ok && !known[name] {
			w.Local("entry points", 0, "entry point %q has no stack usage or call graph information; counted as 0 bytes", name)
		}
	}
	return entries, isrs
}
