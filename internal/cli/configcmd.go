package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/internal/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the odoomig configuration",
		Long: `Create or inspect the odoomig configuration.

Settings are read from ` + config.FileName + ` in the working directory (or --config),
then from ` + config.EnvPrefix + `_* environment variables (ODOOMIG_PSQL_COMMAND for
psql.command), then from command line flags.`,
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Write(config.Defaults(), output, force); err != nil {
				return err
			}
			printSuccess("Configuration written")
			printFile(output)
			printNextStep("Inspect the effective settings", "odoomig config show")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", config.FileName, "file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cfg.File != "" {
				printInfo("From %s", cfg.File)
			} else {
				printInfo("No config file, using defaults")
			}
			return config.Encode(*cfg, c.Out)
		},
	}
}
