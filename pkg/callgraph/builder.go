package callgraph

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/symbol"
)

var (
	definitionRe = regexp.MustCompile(`^([\w.-]+)/(\d+)\s+\(([\w.-]+)\)`)
	callsRe      = regexp.MustCompile(`^\s*Calls:\s*(.*)`)
)

// Ignorer reports whether the edge caller→callee must be left out of the graph.
// [*annotation.Set] implements Ignorer.
type Ignorer interface {
	Has(caller, callee string) bool
}

// Definition maps a dump identifier ("foo/12") to the symbol's actual name.
type Definition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CallList is the raw callee references attached to one definition.
type CallList struct {
	Caller string   `json:"caller"`
	Refs   []string `json:"refs"`
}

// FileScan is the phase-one result of one call-graph dump.
type FileScan struct {
	Definitions []Definition `json:"definitions"`
	Calls       []CallList   `json:"calls"`
}

// Scan reads one dump. A definition line opens a caller context; the next
// Calls line attaches to it and closes the context. A second definition
// before any Calls line replaces the context, so the first caller gets no
// edges from that record. Context never carries over between inputs.
func Scan(r io.Reader) (*FileScan, error) {
	fs := &FileScan{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	current := ""
	for sc.Scan() {
		line := sc.Text()
		if m := definitionRe.FindStringSubmatch(line); m != nil {
			fs.Definitions = append(fs.Definitions, Definition{ID: m[1] + "/" + m[2], Name: m[3]})
			current = m[3]
			continue
		}
		if current == "" {
			continue
		}
		if m := callsRe.FindStringSubmatch(line); m != nil {
			fs.Calls = append(fs.Calls, CallList{Caller: current, Refs: strings.Fields(m[1])})
			current = ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return fs, nil
}

// Unresolved is a callee reference with no matching definition in any input.
type Unresolved struct {
	Caller string `json:"caller"`
	Ref    string `json:"ref"`
}

// Result is the output of [Builder.Build].
type Result struct {
	Graph      *Graph
	Unresolved []Unresolved
	Files      int
	Symbols    int
}

// Builder accumulates dump scans and resolves them into a [Graph].
//
// Add every input with [Builder.Add], then call [Builder.Build] once.
type Builder struct {
	ignore    Ignorer
	sources   []string
	symbols   map[string]string
	relations map[string][]string
	order     []string
	files     int
}

// NewBuilder returns a builder that drops ignored edges. ignore may be nil.
// sources names the searched locations for the "no inputs" warning.
func NewBuilder(ignore Ignorer, sources []string) *Builder {
	return &Builder{
		ignore:    ignore,
		sources:   sources,
		symbols:   make(map[string]string),
		relations: make(map[string][]string),
	}
}

// Add merges one scanned input.
func (b *Builder) Add(fs *FileScan) {
	b.files++
	for _, d := range fs.Definitions {
		b.symbols[d.ID] = d.Name
	}
	for _, c := range fs.Calls {
		if _, ok := b.relations[c.Caller]; !ok {
			b.order = append(b.order, c.Caller)
		}
		b.relations[c.Caller] = append(b.relations[c.Caller], c.Refs...)
	}
}

// Files returns how many inputs were added.
func (b *Builder) Files() int { return b.files }

// Build resolves every raw reference and returns the normalized graph.
// Unresolved references are reported, not fatal. When no input was added, a
// deferred warning is recorded and the graph is empty.
func (b *Builder) Build(w *diag.Warnings) *Result {
	if b.files == 0 {
		w.Defer("call graph", "no .cgraph or .ipa files found in: %s (build with -fdump-ipa-cgraph to generate them)",
			strings.Join(b.sources, ", "))
	}

	g := New()
	var unresolved []Unresolved
	for _, caller := range b.order {
		from := symbol.Normalize(caller)
		for _, ref := range b.relations[caller] {
			name, ok := b.symbols[ref]
			if !ok {
				unresolved = append(unresolved, Unresolved{Caller: from, Ref: ref})
				continue
			}
			to := symbol.Normalize(name)
			if b.ignore != nil && b.ignore.Has(from, to) {
				continue
			}
			g.AddEdge(from, to)
		}
	}
	return &Result{
		Graph:      g,
		Unresolved: unresolved,
		Files:      b.files,
		Symbols:    len(b.symbols),
	}
}
