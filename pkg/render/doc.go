// Package render holds the output helpers shared by graph renderers.
//
// Graphs are drawn by the nodelink subpackage, which produces DOT and lets
// graphviz lay it out. Graphviz encodes SVG, PNG, JPEG and its text formats
// itself; document formats (PDF, PostScript) are produced here from the SVG
// output with the external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
package render
