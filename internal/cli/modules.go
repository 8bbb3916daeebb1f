package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/errors"
	odooio "github.com/matzehuels/odoomig/pkg/io"
	"github.com/matzehuels/odoomig/pkg/odoo"
	"github.com/matzehuels/odoomig/pkg/render/nodelink"
)

// moduleFlags holds the graph filters shared by the modules subcommands.
type moduleFlags struct {
	excludeModules []string
	excludeStates  []string
	includeTests   bool
	snapshot       string
}

// options converts the flags into graph options.
func (f *moduleFlags) options() (odoo.Options, error) {
	opts := odoo.Options{
		ExcludeModules: f.excludeModules,
		IncludeTests:   f.includeTests,
	}
	for _, s := range f.excludeStates {
		state, err := odoo.ParseState(s)
		if err != nil {
			return opts, err
		}
		opts.ExcludeStates = append(opts.ExcludeStates, state)
	}
	return opts, nil
}

// modulesCommand creates the modules command and its query subcommands.
func (c *CLI) modulesCommand() *cobra.Command {
	flags := &moduleFlags{}

	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Query the module dependency graph of a database",
		Long: `Query the module dependency graph of a database.

The graph merges the ir_module_module table with the manifests found in the
addons paths, splices out excluded modules and removes transitive edges, so
each module only points to the modules that directly depend on it.

Results are printed as JSON.`,
	}

	pf := cmd.PersistentFlags()
	pf.StringSliceVar(&flags.excludeModules, "exclude-module", nil, "modules to splice out of the graph (repeatable)")
	pf.StringSliceVar(&flags.excludeStates, "exclude-state", nil, "states whose modules are spliced out (repeatable)")
	pf.BoolVar(&flags.includeTests, "include-tests", false, "keep test_* modules")
	pf.StringVar(&flags.snapshot, "snapshot", "", "read the graph from a snapshot file instead of the database")
	_ = cmd.RegisterFlagCompletionFunc("exclude-state", completeStates)
	_ = cmd.MarkPersistentFlagFilename("snapshot", "json")

	cmd.AddCommand(c.modulesOptimizeCommand(flags))
	cmd.AddCommand(c.modulesListCommand(flags, "to-update", "Modules to upgrade, reduced to the ones covering the others", (*odoo.Modules).ToUpdate))
	cmd.AddCommand(c.modulesListCommand(flags, "to-install", "Modules to install, reduced to the ones covering the others", (*odoo.Modules).ToInstall))
	cmd.AddCommand(c.modulesListCommand(flags, "to-remove", "Modules to remove, reduced to the ones covering the others", (*odoo.Modules).ToRemove))
	cmd.AddCommand(c.modulesListCommand(flags, "leaves", "Modules nothing depends on", (*odoo.Modules).Leaves))
	cmd.AddCommand(c.modulesInstalledCommand(flags))
	cmd.AddCommand(c.modulesDepsCommand(flags))
	cmd.AddCommand(c.modulesStateCommand(flags))
	cmd.AddCommand(c.modulesDiffCommand(flags))
	cmd.AddCommand(c.modulesRenderCommand(flags))
	cmd.AddCommand(c.modulesSnapshotCommand(flags))

	return cmd
}

// completeStates offers the module state names.
func completeStates(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(odoo.States))
	for i, s := range odoo.States {
		names[i] = string(s)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// modules loads the graph selected by the command's database and flags.
func (c *CLI) modules(cmd *cobra.Command, flags *moduleFlags) (*odoo.Modules, error) {
	opts, err := flags.options()
	if err != nil {
		return nil, err
	}
	return c.loadModules(cmd.Context(), c.database(cmd), flags.snapshot, opts)
}

func (c *CLI) modulesOptimizeCommand(flags *moduleFlags) *cobra.Command {
	var restrictPath string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Show redundant module dependencies",
		Long: `Show, for every module whose manifest declares redundant dependencies, the
declared list and the minimal one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			return printJSON(c.Out, m.OptimizedDependencies(restrictPath))
		},
	}

	cmd.Flags().StringVar(&restrictPath, "restrict-path", "", "only modules located under this path")
	return cmd
}

// modulesListCommand creates a subcommand printing the names a query returns.
func (c *CLI) modulesListCommand(flags *moduleFlags, use, short string, query func(*odoo.Modules) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			return printJSON(c.Out, query(m))
		},
	}
}

func (c *CLI) modulesInstalledCommand(flags *moduleFlags) *cobra.Command {
	var onlyLeaves bool

	cmd := &cobra.Command{
		Use:   "installed",
		Short: "Installed modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			return printJSON(c.Out, m.Installed(onlyLeaves))
		},
	}

	cmd.Flags().BoolVarP(&onlyLeaves, "only-leaves", "N", false, "only installed modules no other installed module depends on")
	return cmd
}

func (c *CLI) modulesDepsCommand(flags *moduleFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deps NAME",
		Short: "Direct dependencies of a module in the reduced graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateModuleName(args[0]); err != nil {
				return err
			}
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			deps, err := m.Dependencies(args[0])
			if err != nil {
				return err
			}
			return printJSON(c.Out, deps)
		},
	}
}

func (c *CLI) modulesStateCommand(flags *moduleFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "state NAME",
		Short: "Resolved state of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateModuleName(args[0]); err != nil {
				return err
			}
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			state, err := m.State(args[0])
			if err != nil {
				return err
			}
			return printJSON(c.Out, state)
		},
	}
}

func (c *CLI) modulesDiffCommand(flags *moduleFlags) *cobra.Command {
	var toDatabase, toSnapshot string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the modules of two databases",
		Long: `Compare the module graph of the selected database (or --snapshot) with the
graph of another database or snapshot. Added and removed modules are listed,
and modules present on both sides with a different state are reported with
their old and new state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if toDatabase != "" {
				if err := errors.ValidateDatabaseName(toDatabase); err != nil {
					return err
				}
			}
			to, err := c.loadModules(cmd.Context(), toDatabase, toSnapshot, opts)
			if err != nil {
				return err
			}

			diff := from.Difference(to)
			if diff.Empty() {
				printInfo("No differences")
			}
			return printJSON(c.Out, diff)
		},
	}

	cmd.Flags().StringVarP(&toDatabase, "to-database", "t", "", "database to compare with")
	cmd.Flags().StringVar(&toSnapshot, "to-snapshot", "", "snapshot file to compare with")
	cmd.MarkFlagsMutuallyExclusive("to-database", "to-snapshot")
	cmd.MarkFlagsOneRequired("to-database", "to-snapshot")
	return cmd
}

func (c *CLI) modulesRenderCommand(flags *moduleFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the module graph",
		Long: `Render the module graph with graphviz. The output format follows the file
extension (svg, png, pdf, dot, ...). A "{}" in the output path is replaced by
the database name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			return c.render(cmd, m.Graph(), output, true)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", nodelink.NamePlaceholder+".svg", "output file")
	addRenderFlags(cmd)
	return cmd
}

func (c *CLI) modulesSnapshotCommand(flags *moduleFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the merged modules of a database to a JSON file",
		Long: `Save the merged modules of a database to a JSON file. Snapshots can replace
the database in every modules subcommand with --snapshot, for instance to
compare a database with its state before a migration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.snapshot != "" {
				return errors.New(errors.ErrCodeInvalidInput, "snapshot reads a database, --snapshot is not allowed")
			}
			database := c.database(cmd)
			m, err := c.modules(cmd, flags)
			if err != nil {
				return err
			}
			snap := odooio.NewSnapshot(database, m.Store())
			if err := odooio.ExportJSON(snap, output); err != nil {
				return err
			}
			printSuccess("Snapshot of %s saved", database)
			printFile(output)
			printDetail("id %s, %d modules", snap.ID, len(snap.Modules))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "modules.json", "output file")
	return cmd
}
