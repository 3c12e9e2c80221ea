// Package diag collects the non-fatal warnings produced while building and
// analyzing a stack model.
//
// Every stage receives a [*Warnings] and records what it skipped instead of
// printing it. Callers drain the collection when the run is over and decide
// how to present it, which keeps each stage testable without capturing
// output streams.
//
// # Tiers
//
//   - [TierLocal]: one input unit was skipped (a malformed line, a missing
//     directory). Presented as it happens.
//   - [TierDeferred]: a whole capability degraded (no call-graph dumps, no
//     vector table). Presented once at the end of the run.
package diag

import (
	"fmt"
	"slices"
)

// Tier classifies a warning by when it should be presented.
type Tier int

const (
	// TierLocal marks a skipped input unit.
	TierLocal Tier = iota
	// TierDeferred marks a degraded capability surfaced at end of run.
	TierDeferred
)

// String returns "local" or "deferred".
func (t Tier) String() string {
	if t == TierDeferred {
		return "deferred"
	}
	return "local"
}

// Warning is a single recorded problem.
type Warning struct {
	Tier    Tier
	Source  string // file path or stage name
	Line    int    // 1-based line number, 0 when not line-specific
	Message string
}

// String formats the warning as "source:line: message".
func (w Warning) String() string {
	switch {
	case w.Source == "":
		return w.Message
	case w.Line > 0:
		return fmt.Sprintf("%s:%d: %s", w.Source, w.Line, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
}

// Warnings is an ordered warning collection. The zero value is ready to use.
// A nil *Warnings discards everything recorded into it.
type Warnings struct {
	items []Warning
}

// New returns an empty collection.
func New() *Warnings { return &Warnings{} }

// Local records a skipped input unit.
func (w *Warnings) Local(source string, line int, format string, args ...any) {
	w.add(Warning{Tier: TierLocal, Source: source, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Defer records a degraded capability for end-of-run presentation.
func (w *Warnings) Defer(source string, format string, args ...any) {
	w.add(Warning{Tier: TierDeferred, Source: source, Message: fmt.Sprintf(format, args...)})
}

func (w *Warnings) add(item Warning) {
	if w == nil {
		return
	}
	w.items = append(w.items, item)
}

// Merge appends all warnings of other, preserving their order.
func (w *Warnings) Merge(other *Warnings) {
	if w == nil || other == nil {
		return
	}
	w.items = append(w.items, other.items...)
}

// All returns every warning in recording order.
func (w *Warnings) All() []Warning {
	if w == nil {
		return nil
	}
	return slices.Clone(w.items)
}

// ByTier returns the warnings of one tier in recording order.
func (w *Warnings) ByTier(t Tier) []Warning {
	if w == nil {
		return nil
	}
	var out []Warning
	for _, item := range w.items {
		if item.Tier == t {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of recorded warnings.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	return len(w.items)
}
