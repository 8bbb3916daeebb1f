package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/render/nodelink"
)

// keepReport summarizes which views survive a prune.
type keepReport struct {
	All     int      `json:"all"`
	Keep    int      `json:"keep"`
	Remove  int      `json:"remove"`
	IDs     []string `json:"ids"`
	Removed []string `json:"removed,omitempty"`
}

// viewsCommand creates the views command for the ir_ui_view inheritance tree.
func (c *CLI) viewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Inspect the view inheritance tree of a database",
		Long: `Inspect the view inheritance tree of a database.

Views bound to a website, or whose name marks them as project views, are kept
together with every view they inherit from. The other views can be dropped
before a migration.`,
	}

	cmd.AddCommand(c.viewsKeepCommand())
	cmd.AddCommand(c.viewsDepsCommand())
	cmd.AddCommand(c.viewsLeavesCommand())
	cmd.AddCommand(c.viewsDiffCommand())
	cmd.AddCommand(c.viewsRenderCommand())

	return cmd
}

func (c *CLI) viewsKeepCommand() *cobra.Command {
	var listNodes bool

	cmd := &cobra.Command{
		Use:   "keep",
		Short: "List the database ids of the views to keep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ht, err := c.loadViews(cmd.Context(), c.database(cmd))
			if err != nil {
				return err
			}
			report := keepReport{
				All:  ht.Graph().NodeCount(),
				Keep: len(ht.NodesToKeep()),
				IDs:  ht.IDsToKeep(),
			}
			removed := ht.Prune()
			report.Remove = len(removed)
			if listNodes {
				report.Removed = removed
			}
			return printJSON(c.Out, report)
		},
	}

	cmd.Flags().BoolVar(&listNodes, "nodes", false, "also list the names of the views to remove")
	return cmd
}

func (c *CLI) viewsDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deps NAME",
		Short: "Views inheriting directly from a view",
		Long: `Views inheriting directly from a view. NAME is the node name of the view:
"id/key/name".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ht, err := c.loadViews(cmd.Context(), c.database(cmd))
			if err != nil {
				return err
			}
			deps, err := ht.Dependencies(args[0])
			if err != nil {
				return err
			}
			return printJSON(c.Out, deps)
		},
	}
}

func (c *CLI) viewsLeavesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leaves",
		Short: "Views no other view inherits from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ht, err := c.loadViews(cmd.Context(), c.database(cmd))
			if err != nil {
				return err
			}
			return printJSON(c.Out, ht.Leaves())
		},
	}
}

func (c *CLI) viewsDiffCommand() *cobra.Command {
	var toDatabase string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the views of two databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateDatabaseName(toDatabase); err != nil {
				return err
			}
			from, err := c.loadViews(cmd.Context(), c.database(cmd))
			if err != nil {
				return err
			}
			to, err := c.loadViews(cmd.Context(), toDatabase)
			if err != nil {
				return err
			}
			return printJSON(c.Out, from.Difference(to))
		},
	}

	cmd.Flags().StringVarP(&toDatabase, "to-database", "t", "", "database to compare with")
	_ = cmd.MarkFlagRequired("to-database")
	return cmd
}

func (c *CLI) viewsRenderCommand() *cobra.Command {
	var (
		output string
		prune  bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the view inheritance tree",
		Long: `Render the view inheritance tree. Views to keep are drawn black on blue.
With --prune only the views to keep are drawn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ht, err := c.loadViews(cmd.Context(), c.database(cmd))
			if err != nil {
				return err
			}
			if prune {
				removed := ht.Prune()
				printInfo("Pruned %d views", len(removed))
			}
			return c.render(cmd, ht.Graph(), output, false)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", nodelink.NamePlaceholder+"_views.svg", "output file")
	cmd.Flags().BoolVar(&prune, "prune", false, "drop the views that are not kept")
	addRenderFlags(cmd)
	return cmd
}
