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

	"github.com/matzehuels/odoomig/pkg/dag"
)

// DefaultRankDir lays dependencies out left to right.
const DefaultRankDir = "LR"

// Options configures node-link diagram rendering.
type Options struct {
	// RankDir is the graphviz rank direction: LR, RL, TB or BT.
	// Empty means [DefaultRankDir].
	RankDir string

	// DPI sets the output resolution of raster formats. Zero keeps the
	// graphviz default.
	DPI int

	// Detailed appends the node metadata to node labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// styleKeys are the node metadata keys written as graphviz attributes.
var styleKeys = []string{"color", "fillcolor", "group", "style"}

// ToDOT converts a graph to Graphviz DOT format. Nodes are boxes; the color,
// fillcolor, group and style metadata set when the graph was built become
// node attributes.
func ToDOT(g *dag.DAG, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = DefaultRankDir
	}

	var buf bytes.Buffer
	buf.WriteString("strict digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  pad=4;\n")
	buf.WriteString("  ranksep=4;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	if opts.DPI > 0 {
		fmt.Fprintf(&buf, "  dpi=%d;\n", opts.DPI)
	}
	buf.WriteString("  node [shape=box];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, opts.Detailed)
		attrs := fmtAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed || len(n.Meta) == 0 {
		return n.ID
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if slices.Contains(styleKeys, k) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	for _, k := range styleKeys {
		if v := n.Meta.String(k); v != "" {
			attrs = append(attrs, fmt.Sprintf("%s=%q", k, v))
		}
	}
	return attrs
}

// Render lays out DOT source with graphviz and encodes it in format.
func Render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
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

// RenderSVG renders DOT source to SVG with a viewBox anchored at the origin,
// sized to the drawing.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := Render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

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
