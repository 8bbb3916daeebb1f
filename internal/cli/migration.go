package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/marabunta"
	"github.com/matzehuels/odoomig/pkg/migrationlog"
)

// phaseFlags holds the --pre/--post switches of the migration subcommands.
type phaseFlags struct {
	pre, post bool
}

func (p *phaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.pre, "pre", false, "pre phase: drop post operations and stop before the addons upgrade")
	cmd.Flags().BoolVar(&p.post, "post", false, "post phase: drop pre operations and continue from the pre database")
	cmd.MarkFlagsMutuallyExclusive("pre", "post")
}

func (p *phaseFlags) phase() marabunta.Phase {
	switch {
	case p.pre:
		return marabunta.PhasePre
	case p.post:
		return marabunta.PhasePost
	default:
		return marabunta.PhaseFull
	}
}

// migrationCommand creates the migration command for marabunta projects.
func (c *CLI) migrationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migration",
		Short: "Split and run marabunta migrations in pre and post phases",
		Long: `Split and run marabunta migrations in pre and post phases.

The pre phase runs the pre operations on a copy of the template database and
stops when the addons upgrade starts. The post phase copies the pre database
and runs the upgrade and the post operations. Phases can be repeated
independently while a migration is developed.`,
	}

	cmd.AddCommand(c.migrationSplitCommand())
	cmd.AddCommand(c.migrationRestoreCommand())
	cmd.AddCommand(c.migrationRunCommand())

	return cmd
}

// migrationFile returns the -f flag value, falling back to the config.
func (c *CLI) migrationFile(file string) string {
	if file != "" {
		return file
	}
	if f := c.settings().Marabunta.File; f != "" {
		return f
	}
	return marabunta.DefaultFile
}

func (c *CLI) migrationSplitCommand() *cobra.Command {
	var (
		phases phaseFlags
		file   string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Rewrite migration.yml for one phase",
		Long: `Rewrite migration.yml for one phase. The original file is kept next to it
with a .bak suffix and every split starts from it. Without --pre or --post
the original file is restored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.migrationFile(file)
			if err := errors.ValidatePath(path); err != nil {
				return err
			}
			phase := phases.phase()
			if err := marabunta.SplitFile(path, phase); err != nil {
				return err
			}
			printSuccess("Migration split for the %s phase", phase)
			printFile(path)
			printDetail("Backup: %s", path+marabunta.BackupSuffix)
			return nil
		},
	}

	phases.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "migration file (default "+marabunta.DefaultFile+")")
	return cmd
}

func (c *CLI) migrationRestoreCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore migration.yml from its backup and remove the backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.migrationFile(file)
			backup := path + marabunta.BackupSuffix
			if _, err := os.Stat(backup); os.IsNotExist(err) {
				printWarning("No backup of %s", path)
				return nil
			}
			if _, err := marabunta.Original(path); err != nil {
				return err
			}
			if err := os.Remove(backup); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "remove %s", backup)
			}
			printSuccess("Restored %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "migration file (default "+marabunta.DefaultFile+")")
	return cmd
}

func (c *CLI) migrationRunCommand() *cobra.Command {
	var (
		phases phaseFlags
		file   string
		logDir string
		parse  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run marabunta for one phase",
		Long: `Run marabunta for one phase.

The target database is recreated from its source (the template for a full
run or the pre phase, the pre database for the post phase), migration.yml is
split for the phase and marabunta is run. Step lines are printed as they
arrive and the whole output is saved to database_migration_<date>.log with a
.pre or .post suffix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.settings()
			phase := phases.phase()
			path := c.migrationFile(file)

			opts := []marabunta.RunnerOption{marabunta.WithLogger(c.Logger)}
			if c.Shell != nil {
				opts = append(opts, marabunta.WithShell(c.Shell))
			}
			runner := marabunta.NewRunner(cfg.Marabunta.Command, cfg.Psql.Command, opts...)

			started := time.Now()
			target, err := runner.Prepare(ctx, marabunta.NewDatabases(c.database(cmd)), phase)
			if err != nil {
				return err
			}
			if err := marabunta.SplitFile(path, phase); err != nil {
				return err
			}

			printInfo("Migrating %s (%s phase)", target, phase)
			res, runErr := runner.Migrate(ctx, target, phase, func(line string) {
				fmt.Fprintln(c.Out, line)
			})
			if res != nil {
				logPath := filepath.Join(logDir, marabunta.LogFileName(started, phase))
				if err := os.WriteFile(logPath, res.Log, 0644); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", logPath)
				}
				printFile(logPath)
				if parse {
					report, err := migrationlog.Parse(bytes.NewReader(res.Log))
					if err != nil {
						return err
					}
					printReportSummary(report)
				}
			}
			if runErr != nil {
				printError("Migration of %s failed", target)
				return runErr
			}

			if res.Stopped {
				printSuccess("Pre phase stopped before the addons upgrade")
				printNextStep("Continue with", "odoomig migration run --post")
			} else {
				printSuccess("Migration of %s done in %s", target, time.Since(started).Round(time.Second))
			}
			return nil
		},
	}

	phases.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "migration file (default "+marabunta.DefaultFile+")")
	cmd.Flags().StringVar(&logDir, "log-dir", ".", "directory the migration log is written to")
	cmd.Flags().BoolVar(&parse, "parse", false, "scrape the log once the run ends")
	return cmd
}
