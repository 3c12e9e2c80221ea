// Package stackusage builds the per-function stack-frame table from GCC
// -fstack-usage output.
//
// A .su file has one record per function:
//
//	src/main.c:41:5:main	24	static
//	src/uart.c:88:13:uart_isr.part.0	16	static
//
// The first whitespace field is a colon-separated identifier whose fourth
// component is the function name. The second field is the frame size in bytes.
// Anything after it (static, dynamic, bounded) is ignored.
//
// [Parse] turns one file into records without touching the table, so results
// can be cached per file. [Table.Merge] folds records into the table, keeping
// the largest size seen for each name.
package stackusage

import (
	"maps"
	"slices"

	"github.com/matzehuels/stackdepth/pkg/symbol"
)

// Table maps function names to their frame size in bytes.
//
// Raw names are kept as they appear in the .su files. A normalized index
// (see [symbol.Normalize]) holds the largest size over all raw names that
// share a normalized name, so clone-only functions still resolve.
//
// The zero value is not usable; create tables with [NewTable].
type Table struct {
	sizes      map[string]int
	normalized map[string]int
	raw        map[string]string // normalized -> first raw name seen
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		sizes:      make(map[string]int),
		normalized: make(map[string]int),
		raw:        make(map[string]string),
	}
}

// Add records size for name. On repeated names the larger size wins.
// Negative sizes are ignored. Add reports whether the table changed.
func (t *Table) Add(name string, size int) bool {
	if name == "" || size < 0 {
		return false
	}
	changed := false
	if cur, ok := t.sizes[name]; !ok || size > cur {
		t.sizes[name] = size
		changed = true
	}
	norm := symbol.Normalize(name)
	if cur, ok := t.normalized[norm]; !ok || size > cur {
		t.normalized[norm] = size
	}
	if _, ok := t.raw[norm]; !ok {
		t.raw[norm] = name
	}
	return changed
}

// Merge adds every record, in order.
func (t *Table) Merge(records []Record) {
	for _, r := range records {
		t.Add(r.Name, r.Size)
	}
}

// Lookup returns the size recorded for name, trying the exact raw name first
// and then the normalized index.
func (t *Table) Lookup(name string) (int, bool) {
	if size, ok := t.sizes[name]; ok {
		return size, true
	}
	size, ok := t.normalized[symbol.Normalize(name)]
	return size, ok
}

// FrameSize returns the frame size of name, or 0 when it has no record.
func (t *Table) FrameSize(name string) int {
	size, _ := t.Lookup(name)
	return size
}

// RawName returns the first raw name recorded under the normalized form of
// name, or name itself when the table has none.
func (t *Table) RawName(name string) string {
	if raw, ok := t.raw[symbol.Normalize(name)]; ok {
		return raw
	}
	return name
}

// Names returns all raw names in sorted order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.sizes))
}

// NormalizedNames returns all normalized names in sorted order.
func (t *Table) NormalizedNames() []string {
	return slices.Sorted(maps.Keys(t.normalized))
}

// Len returns the number of raw names.
func (t *Table) Len() int { return len(t.sizes) }

// Sizes returns a copy of the raw name to size mapping.
func (t *Table) Sizes() map[string]int { return maps.Clone(t.sizes) }
