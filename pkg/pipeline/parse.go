package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/stackdepth/pkg/annotation"
	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/observability"
	"github.com/matzehuels/stackdepth/pkg/source"
	"github.com/matzehuels/stackdepth/pkg/stackusage"
	"github.com/matzehuels/stackdepth/pkg/vector"
)

// locateISRs is replaced in tests.
var locateISRs = vector.LocateFile

// loadStackUsage parses every .su file under opts.SUDirs into one table.
func (r *Runner) loadStackUsage(ctx context.Context, opts Options, w *diag.Warnings, info *CacheInfo) (*stackusage.Table, int, error) {
	files := source.Walk(opts.SUDirs, source.IsStackUsage, w)
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, cache.KindStackUsage, len(files))
	start := time.Now()

	table := stackusage.NewTable()
	records := 0
	for _, path := range files {
		f, err := parseCached(ctx, r, cache.KindStackUsage, path, opts.Refresh, info, stackusage.Parse)
		if err != nil {
			hooks.OnParseComplete(ctx, cache.KindStackUsage, records, time.Since(start), err)
			return nil, 0, err
		}
		f.Warn(path, w)
		table.Merge(f.Records)
		records += len(f.Records)
		r.Logger.Debug("parsed stack usage file", "file", path, "records", len(f.Records), "skipped", len(f.Skipped))
	}
	hooks.OnParseComplete(ctx, cache.KindStackUsage, records, time.Since(start), nil)
	return table, len(files), nil
}

// loadCallGraph scans every call-graph dump under opts.CGraphDirs and
// builds the base graph.
func (r *Runner) loadCallGraph(ctx context.Context, opts Options, ignore *annotation.Set, w *diag.Warnings, info *CacheInfo) (*callgraph.Result, error) {
	files := source.Walk(opts.CGraphDirs, source.IsCallGraph, w)
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, cache.KindCallGraph, len(files))
	start := time.Now()

	var ig callgraph.Ignorer
	if ignore != nil {
		ig = ignore
	}
	b := callgraph.NewBuilder(ig, opts.CGraphDirs)
	for _, path := range files {
		fs, err := parseCached(ctx, r, cache.KindCallGraph, path, opts.Refresh, info, callgraph.Scan)
		if err != nil {
			hooks.OnParseComplete(ctx, cache.KindCallGraph, 0, time.Since(start), err)
			return nil, err
		}
		b.Add(fs)
		r.Logger.Debug("scanned call graph file", "file", path, "definitions", len(fs.Definitions))
	}
	res := b.Build(w)
	hooks.OnParseComplete(ctx, cache.KindCallGraph, res.Graph.EdgeCount(), time.Since(start), nil)
	return res, nil
}

// parseCached reads path and returns parse of its contents, going through
// the cache keyed by the contents' hash. Cache failures are logged and
// treated as misses.
func parseCached[T comparable](ctx context.Context, r *Runner, kind, path string, refresh bool, info *CacheInfo, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	key := r.Keyer.ScanKey(kind, cache.Hash(data))
	hooks := observability.Cache()

	if !refresh {
		cached, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			hooks.OnCacheError(ctx, kind, err)
			r.Logger.Debug("cache read failed", "file", path, "err", err)
		case hit:
			var v T
			// A stored null decodes into the zero value, so it counts as corrupt.
			if err := json.Unmarshal(cached, &v); err == nil && v != zero {
				hooks.OnCacheHit(ctx, kind)
				info.Hits++
				return v, nil
			}
			r.Logger.Debug("discarding corrupt cache entry", "file", path)
		}
	}
	hooks.OnCacheMiss(ctx, kind)
	info.Misses++

	v, err := parse(bytes.NewReader(data))
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}
	if buf, err := json.Marshal(v); err == nil {
		ttl := r.TTL
		if ttl <= 0 {
			ttl = cache.TTLScan
		}
		if err := r.Cache.Set(ctx, key, buf, ttl); err != nil {
			hooks.OnCacheError(ctx, kind, err)
			r.Logger.Debug("cache write failed", "file", path, "err", err)
		} else {
			hooks.OnCacheSet(ctx, kind, len(buf))
		}
	}
	return v, nil
}
