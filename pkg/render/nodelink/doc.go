// Package nodelink renders module and view graphs as node-link diagrams.
//
// # Overview
//
// Nodes are drawn as boxes connected by arrows from a dependency to its
// dependents, laid out left to right by Graphviz. Colors come from the node
// metadata set when the graph was built, so a module graph shows states and a
// view graph shows the views to keep.
//
// # Usage
//
// Save a graph straight to a file; the extension picks the format:
//
//	path, err := nodelink.SaveAs(ctx, g, "modules-{}.svg", nodelink.Options{})
//
// Or work with the DOT source:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{DPI: 150})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Formats
//
// [Extensions] is the allow-list of output extensions. Anything else is
// rejected with an INVALID_FORMAT error before rendering starts. "dot" and
// "canon" are written as DOT text, "pdf" and "ps" are converted from SVG with
// rsvg-convert, every other format is encoded by Graphviz.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process layout
// and rendering. PDF and PostScript conversion requires librsvg (rsvg-convert).
package nodelink
