// Package nodelink renders call graphs as node-link diagrams.
//
// # Overview
//
// Functions appear as boxes connected by call arrows. Scenario edges from a
// [callgraph.Overlay] are dashed, and a highlighted path (normally the
// worst-case path, or its recursion cycle) is drawn in red so the expensive
// chain stands out in large graphs.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{
//	    Sizes:     table,
//	    Highlight: result.Path,
//	    Detailed:  true,
//	})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG] or [RenderPNG]
//   - Saved and processed with external Graphviz tools
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering; no Graphviz installation is needed.
package nodelink
