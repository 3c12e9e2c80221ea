// Package observability lets a binary observe pipeline and cache events
// without the instrumented packages depending on a metrics or tracing
// backend.
//
// Library code fetches the current hooks and reports events:
//
//	observability.Pipeline().OnParseStart(ctx, "su", len(files))
//
// Binaries install an implementation once at startup:
//
//	h := observability.LogHooks{Logger: logger}
//	observability.Set(h, h)
//
// Until Set is called every event goes to [Noop].
package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// PipelineHooks receives analysis pipeline events. Parse events fire once per
// input kind ("su", "cgraph").
type PipelineHooks interface {
	OnParseStart(ctx context.Context, kind string, files int)
	OnParseComplete(ctx context.Context, kind string, records int, duration time.Duration, err error)

	OnAnalyzeStart(ctx context.Context, scenarios, entries int)
	OnScenarioComplete(ctx context.Context, label string, total int, unbounded bool)
	OnAnalyzeComplete(ctx context.Context, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, format string, nodes int)
	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// CacheHooks receives parse cache events.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
	// OnCacheError reports a backend failure that was treated as a miss.
	OnCacheError(ctx context.Context, kind string, err error)
}

type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
}

var current atomic.Pointer[registry]

func init() { Reset() }

// Set installs hooks. A nil argument keeps the hooks currently installed for
// that category.
func Set(p PipelineHooks, c CacheHooks) {
	old := current.Load()
	next := *old
	if p != nil {
		next.pipeline = p
	}
	if c != nil {
		next.cache = c
	}
	current.Store(&next)
}

// Reset installs [Noop] for both categories.
func Reset() {
	current.Store(&registry{pipeline: Noop{}, cache: Noop{}})
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// Noop discards every event.
type Noop struct{}

func (Noop) OnParseStart(context.Context, string, int)                          {}
func (Noop) OnParseComplete(context.Context, string, int, time.Duration, error) {}
func (Noop) OnAnalyzeStart(context.Context, int, int)                           {}
func (Noop) OnScenarioComplete(context.Context, string, int, bool)              {}
func (Noop) OnAnalyzeComplete(context.Context, time.Duration, error)            {}
func (Noop) OnRenderStart(context.Context, string, int)                         {}
func (Noop) OnRenderComplete(context.Context, string, time.Duration, error)     {}
func (Noop) OnCacheHit(context.Context, string)                                 {}
func (Noop) OnCacheMiss(context.Context, string)                                {}
func (Noop) OnCacheSet(context.Context, string, int)                            {}
func (Noop) OnCacheError(context.Context, string, error)                        {}

// LogHooks writes every event to Logger at debug level, so events only show
// when the logger is verbose.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) OnParseStart(_ context.Context, kind string, files int) {
	h.Logger.Debug("parse started", "kind", kind, "files", files)
}

func (h LogHooks) OnParseComplete(_ context.Context, kind string, records int, d time.Duration, err error) {
	h.Logger.Debug("parse finished", "kind", kind, "records", records, "took", d, "err", err)
}

func (h LogHooks) OnAnalyzeStart(_ context.Context, scenarios, entries int) {
	h.Logger.Debug("analysis started", "scenarios", scenarios, "entries", entries)
}

func (h LogHooks) OnScenarioComplete(_ context.Context, label string, total int, unbounded bool) {
	if unbounded {
		h.Logger.Debug("scenario finished", "scenario", label, "worst", "unbounded")
		return
	}
	h.Logger.Debug("scenario finished", "scenario", label, "worst", total)
}

func (h LogHooks) OnAnalyzeComplete(_ context.Context, d time.Duration, err error) {
	h.Logger.Debug("analysis finished", "took", d, "err", err)
}

func (h LogHooks) OnRenderStart(_ context.Context, format string, nodes int) {
	h.Logger.Debug("render started", "format", format, "nodes", nodes)
}

func (h LogHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	h.Logger.Debug("render finished", "format", format, "took", d, "err", err)
}

func (h LogHooks) OnCacheHit(_ context.Context, kind string) {
	h.Logger.Debug("cache hit", "kind", kind)
}

func (h LogHooks) OnCacheMiss(_ context.Context, kind string) {
	h.Logger.Debug("cache miss", "kind", kind)
}

func (h LogHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.Logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h LogHooks) OnCacheError(_ context.Context, kind string, err error) {
	h.Logger.Warn("cache unavailable, parsing inputs", "kind", kind, "err", err)
}
