package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackdepth/pkg/callgraph"
)

// SizeTable provides frame sizes for node labels.
type SizeTable interface {
	FrameSize(name string) int
}

// Options configures call-graph rendering.
type Options struct {
	// Sizes supplies frame sizes. Required when Detailed is set.
	Sizes SizeTable

	// Overlay adds scenario edges, drawn dashed.
	Overlay callgraph.Overlay

	// Highlight is a call path whose nodes and edges are drawn in red,
	// typically the worst-case path or its recursion cycle.
	Highlight []string

	// Detailed includes each function's frame size in its label.
	// When false, only the function name is shown.
	Detailed bool
}

const highlightColor = "#d62728"

// ToDOT converts a call graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Nodes are every function that appears in g or in opts.Overlay, sorted by
// name. Base edges follow graph order; overlay edges not already in g are
// appended and drawn dashed.
func ToDOT(g *callgraph.Graph, opts Options) string {
	onPath := make(map[string]bool, len(opts.Highlight))
	pathEdges := make(map[callgraph.Edge]bool, len(opts.Highlight))
	for i, fn := range opts.Highlight {
		onPath[fn] = true
		if i > 0 {
			pathEdges[callgraph.Edge{From: opts.Highlight[i-1], To: fn}] = true
		}
	}

	var extra []callgraph.Edge
	nodes := make(map[string]bool)
	for _, fn := range g.Functions() {
		nodes[fn] = true
	}
	for _, caller := range slices.Sorted(maps.Keys(opts.Overlay)) {
		for _, callee := range opts.Overlay[caller] {
			nodes[caller], nodes[callee] = true, true
			if !g.HasEdge(caller, callee) {
				extra = append(extra, callgraph.Edge{From: caller, To: callee})
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, fn := range slices.Sorted(maps.Keys(nodes)) {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(fn, opts))}
		if onPath[fn] {
			attrs = append(attrs, "color=\""+highlightColor+"\"", "penwidth=2", "fontcolor=\""+highlightColor+"\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", fn, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, edgeAttrs(false, pathEdges[e]))
	}
	for _, e := range extra {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, edgeAttrs(true, pathEdges[e]))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(fn string, opts Options) string {
	if !opts.Detailed || opts.Sizes == nil {
		return fn
	}
	return fmt.Sprintf("%s\n%d B", fn, opts.Sizes.FrameSize(fn))
}

func edgeAttrs(overlay, highlighted bool) string {
	var attrs []string
	if overlay {
		attrs = append(attrs, "style=dashed")
	}
	if highlighted {
		attrs = append(attrs, "color=\""+highlightColor+"\"", "penwidth=2")
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
