package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/migrationlog"
)

// logCommand creates the log command for migration logs.
func (c *CLI) logCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect database migration logs",
	}

	cmd.AddCommand(c.logParseCommand())

	return cmd
}

func (c *CLI) logParseCommand() *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Scrape a migration log for failures",
		Long: `Scrape a migration log for failures: constraints that could not be added,
tables that could not be dropped, missing columns, fields that failed to load
and modules that were not loaded. The marabunta steps are listed with their
durations.

The file defaults to ` + migrationlog.DefaultFile + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := migrationlog.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := errors.ValidatePath(path); err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
			}
			defer f.Close()

			prog := newProgress(c.Logger)
			report, err := migrationlog.Parse(f)
			if err != nil {
				return err
			}
			prog.done("Parsed " + path)

			for _, e := range report.Errors {
				c.Logger.Warn("unparsed line", "line", e.Line, "error", e.Message)
			}
			if summary {
				printReportSummary(report)
			}
			return printJSON(c.Out, report)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "print counts and step timings to stderr")
	return cmd
}

// printReportSummary prints the size of each report section and the step
// timings.
func printReportSummary(r *migrationlog.Report) {
	printKeyValue("constraints", strconv.Itoa(len(r.Constraints)))
	printKeyValue("invalid modules", strconv.Itoa(len(r.InvalidModules)))
	printKeyValue("drop table", strconv.Itoa(len(r.DropTableDependencies)))
	printKeyValue("missing columns", strconv.Itoa(len(r.ColumnsMissing)))
	printKeyValue("fields failed", strconv.Itoa(len(r.FieldsLoadFailed)))
	printKeyValue("unparsed lines", strconv.Itoa(len(r.Errors)))
	for _, s := range r.Steps {
		printDetail("%6d  %-10s %s", s.Line, s.Duration.Round(time.Second), s.Text)
	}
}
