package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/dag"
	"github.com/matzehuels/odoomig/pkg/render/nodelink"
)

// addRenderFlags registers the layout flags of render subcommands. rankdir
// and dpi are bound to the render section of the configuration.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().String("rankdir", nodelink.DefaultRankDir, "graphviz rank direction: LR, RL, TB or BT")
	cmd.Flags().Int("dpi", 0, "resolution of raster formats (0 keeps the graphviz default)")
	cmd.Flags().Bool("detailed", false, "show node metadata in labels")
}

// render saves g to output using the configured layout options. legend adds
// the module state colors to the summary.
func (c *CLI) render(cmd *cobra.Command, g *dag.DAG, output string, legend bool) error {
	opts := c.settings().Render.Options()
	if f := cmd.Flags().Lookup("detailed"); f != nil && f.Changed {
		opts.Detailed = f.Value.String() == "true"
	}

	ext, err := nodelink.Format(output)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spin := c.spinner(cmd.Context(), fmt.Sprintf("Rendering %s...", strings.ToUpper(ext)))
	path, err := nodelink.SaveAs(cmd.Context(), g, output, opts)
	if err != nil {
		spin.StopWithError("Rendering failed")
		return err
	}
	spin.Stop()
	prog.done("Rendered " + ext)

	printSuccess("Graph rendered")
	printFile(path)
	printStats(g.NodeCount(), g.EdgeCount(), "rankdir "+rankDir(opts.RankDir))
	if legend {
		printDetail("%s", stateLegend())
	}
	return nil
}

func rankDir(s string) string {
	if s == "" {
		return nodelink.DefaultRankDir
	}
	return s
}
