// Package annotation loads caller,callee pair files.
//
// The same file format serves two purposes. An ignore file lists edges the
// call-graph builder must drop (false positives, calls that never happen on
// the target). An add-calls file lists edges a scenario assumes exist
// (callbacks, function pointers, RTOS hooks):
//
//	# uart driver callbacks
//	uart_isr, on_rx_byte
//	uart_isr, on_tx_done
//
// Names are normalized on load, so clone names in annotations match the
// graph's function identities.
package annotation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/stackdepth/pkg/callgraph"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/symbol"
)

// Pair is one annotated call.
type Pair struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// Set is an insertion-ordered set of pairs. The zero Set is ready to use,
// and a nil *Set reads as empty.
type Set struct {
	pairs []Pair
	index map[Pair]bool
}

// NewSet returns a set holding pairs, normalized and deduplicated.
func NewSet(pairs ...Pair) *Set {
	s := &Set{}
	for _, p := range pairs {
		s.Add(p.Caller, p.Callee)
	}
	return s
}

// Add inserts the normalized pair caller,callee and reports whether it was new.
func (s *Set) Add(caller, callee string) bool {
	p := Pair{Caller: symbol.Normalize(caller), Callee: symbol.Normalize(callee)}
	if s.index[p] {
		return false
	}
	if s.index == nil {
		s.index = make(map[Pair]bool)
	}
	s.index[p] = true
	s.pairs = append(s.pairs, p)
	return true
}

// Has reports whether the pair caller,callee is in the set.
func (s *Set) Has(caller, callee string) bool {
	if s == nil {
		return false
	}
	return s.index[Pair{Caller: caller, Callee: callee}]
}

// Pairs returns the pairs in first-seen order.
func (s *Set) Pairs() []Pair {
	if s == nil {
		return nil
	}
	return append([]Pair(nil), s.pairs...)
}

// Len returns the number of pairs.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Overlay converts the set into additive callees per caller.
func (s *Set) Overlay() callgraph.Overlay {
	o := callgraph.Overlay{}
	if s == nil {
		return o
	}
	for _, p := range s.pairs {
		o.Add(p.Caller, p.Callee)
	}
	return o
}

// Read parses annotation lines from r. Malformed lines are skipped with a
// local warning attributed to source.
func Read(r io.Reader, source string, w *diag.Warnings) (*Set, error) {
	s := NewSet()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			w.Local(source, lineNo, "skipping malformed annotation %q: expected format caller_function,callee_function", line)
			continue
		}
		caller, callee := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if caller == "" || callee == "" {
			w.Local(source, lineNo, "skipping malformed annotation %q: expected format caller_function,callee_function", line)
			continue
		}
		s.Add(caller, callee)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return s, nil
}

// Load reads the annotation file at path. A missing file is an
// [errors.ErrCodeFileNotFound] error.
func Load(path string, w *diag.Warnings) (*Set, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "annotation file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path, w)
}
