package nodelink

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/odoomig/pkg/dag"
	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/render"
)

// Extensions lists the output extensions graphs may be saved as: the
// formats of the graphviz command line tool.
var Extensions = []string{
	"canon", "cmap", "cmapx", "cmapx_np", "dia", "dot",
	"fig", "gd", "gd2", "gif", "hpgl", "imap", "imap_np",
	"ismap", "jpe", "jpeg", "jpg", "mif", "mp", "pcl", "pdf",
	"pic", "plain", "plain-ext", "png", "ps", "ps2", "svg",
	"svgz", "vml", "vmlz", "vrml", "vtx", "wbmp", "xdot", "xlib",
}

// NamePlaceholder in an output path is replaced by the graph name.
const NamePlaceholder = "{}"

// graphNameKey is the graph metadata key the name is read from.
const graphNameKey = "name"

// Format returns the lower-cased extension of path without its dot, or an
// INVALID_FORMAT error when graphs cannot be saved under that extension.
func Format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !slices.Contains(Extensions, ext) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "extension %q not allowed, use one of %s", ext, strings.Join(Extensions, ", "))
	}
	return ext, nil
}

// OutputPath replaces [NamePlaceholder] in path with the graph name.
func OutputPath(g *dag.DAG, path string) string {
	return strings.ReplaceAll(path, NamePlaceholder, g.Meta().String(graphNameKey))
}

// Encode renders g in the format named by ext.
//
// DOT-like text formats are produced directly, PDF and PostScript go through
// SVG and rsvg-convert, everything else is handed to graphviz.
func Encode(ctx context.Context, g *dag.DAG, ext string, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch ext {
	case "dot", "canon":
		return []byte(dot), nil
	case "pdf", "ps", "ps2":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		if ext == "pdf" {
			return render.ToPDF(ctx, svg)
		}
		return render.Convert(ctx, svg, "ps")
	case "jpe", "jpeg", "jpg":
		return Render(ctx, dot, graphviz.JPG)
	case "png":
		return Render(ctx, dot, graphviz.PNG)
	case "svg":
		return RenderSVG(ctx, dot)
	default:
		return Render(ctx, dot, graphviz.Format(ext))
	}
}

// SaveAs renders g to path and returns the path written. The extension is
// checked before anything is rendered, and the file is only created once
// rendering succeeded. A "{}" in path is replaced by the graph name.
func SaveAs(ctx context.Context, g *dag.DAG, path string, opts Options) (string, error) {
	ext, err := Format(path)
	if err != nil {
		return "", err
	}
	data, err := Encode(ctx, g, ext, opts)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "render %s", ext)
	}
	out := OutputPath(g, path)
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", out)
	}
	return out, nil
}
