package marabunta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/observability"
)

// DefaultCommand runs marabunta inside the project's odoo container.
// DatabasePlaceholder is replaced by the database to migrate.
const DefaultCommand = "docker-compose run --rm -e MARABUNTA_MODE=migration -e DB_NAME={db} odoo rundatabasemigration"

// DatabasePlaceholder marks the database name in a marabunta command.
const DatabasePlaceholder = "{db}"

// maxLineSize bounds a single line of marabunta output.
var maxLineSize = 16 * 1024 * 1024

// Databases names the databases a split migration works with.
type Databases struct {
	Main     string // migrated by a full run
	Template string // untouched copy of production
	Pre      string // result of the pre phase
	Post     string // result of the post phase
}

// NewDatabases derives the database names from the main one: odoodb gives
// odoodb_template, odoodb_pre and odoodb_post.
func NewDatabases(main string) Databases {
	return Databases{Main: main, Template: main + "_template", Pre: main + "_pre", Post: main + "_post"}
}

// Target returns the database migrated in phase and the one it is copied
// from.
func (d Databases) Target(phase Phase) (target, from string) {
	switch phase {
	case PhasePre:
		return d.Pre, d.Template
	case PhasePost:
		return d.Post, d.Pre
	default:
		return d.Main, d.Template
	}
}

// Shell runs a shell script, writing its combined output to w.
type Shell func(ctx context.Context, script string, w io.Writer) error

// Runner prepares databases and runs marabunta.
type Runner struct {
	command string
	psql    string
	logger  *log.Logger
	shell   Shell
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for progress messages.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithShell replaces the subprocess runner, mostly for tests.
func WithShell(s Shell) RunnerOption {
	return func(r *Runner) { r.shell = s }
}

// NewRunner returns a runner using the marabunta command (DefaultCommand
// when empty) and the psql command used to manage databases.
func NewRunner(command, psql string, opts ...RunnerOption) *Runner {
	if command == "" {
		command = DefaultCommand
	}
	r := &Runner{command: command, psql: psql, logger: log.New(io.Discard), shell: shellRun}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) psqlScript(sql string) string {
	return fmt.Sprintf("%s -d postgres -c %s", r.psql, shellQuote(sql))
}

// Exists reports whether database can be connected to.
func (r *Runner) Exists(ctx context.Context, database string) bool {
	err := r.shell(ctx, fmt.Sprintf("%s -d %s -c 'select 1'", r.psql, database), io.Discard)
	return err == nil
}

// Prepare recreates the target database of phase as a copy of its source
// and returns the target's name. The source must exist.
func (r *Runner) Prepare(ctx context.Context, dbs Databases, phase Phase) (string, error) {
	target, from := dbs.Target(phase)
	for _, name := range []string{target, from} {
		if err := errors.ValidateDatabaseName(name); err != nil {
			return "", err
		}
	}
	if !r.Exists(ctx, from) {
		if phase == PhasePost {
			return "", errors.New(errors.ErrCodeNotFound, "database %q not found, run the pre phase first", from)
		}
		return "", errors.New(errors.ErrCodeNotFound, "database %q must exist to allow migration", from)
	}

	r.logger.Info("recreating database", "database", target, "from", from)
	var out bytes.Buffer
	if err := r.shell(ctx, r.psqlScript(fmt.Sprintf(`DROP DATABASE IF EXISTS "%s"`, target)), &out); err != nil {
		return "", errors.Wrap(errors.ErrCodeExternalFeed, err, "drop database %s: %s", target, strings.TrimSpace(out.String()))
	}
	out.Reset()
	if err := r.shell(ctx, r.psqlScript(fmt.Sprintf(`CREATE DATABASE "%s" TEMPLATE "%s"`, target, from)), &out); err != nil {
		return "", errors.Wrap(errors.ErrCodeExternalFeed, err, "create database %s: %s", target, strings.TrimSpace(out.String()))
	}
	return target, nil
}

// Result is the outcome of a marabunta run.
type Result struct {
	Log     []byte   // combined output
	Steps   []string // step lines in order
	Stopped bool     // the pre phase was stopped at the addons step
}

// Migrate runs marabunta against database. Step lines are passed to onStep
// as they arrive. In the pre phase the run is stopped when the addons step
// starts; this is not an error. The log is returned even when the run fails.
func (r *Runner) Migrate(ctx context.Context, database string, phase Phase, onStep func(string)) (*Result, error) {
	if err := errors.ValidateDatabaseName(database); err != nil {
		return nil, err
	}
	hooks := observability.Migration()
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	script := strings.ReplaceAll(r.command, DatabasePlaceholder, database)
	r.logger.Debug("running marabunta", "database", database, "phase", phase, "command", script)

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := r.shell(runCtx, script, pw)
		pw.CloseWithError(err)
		done <- err
	}()

	res := &Result{}
	var logBuf bytes.Buffer
	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		logBuf.WriteString(line)
		logBuf.WriteByte('\n')
		if res.Stopped || !IsStepLine(line) {
			continue
		}
		res.Steps = append(res.Steps, line)
		hooks.OnStep(ctx, database, phase.String(), line)
		if onStep != nil {
			onStep(line)
		}
		if phase == PhasePre && StopAfterAddons(line) {
			res.Stopped = true
			r.logger.Info("addons step reached, stopping pre phase", "database", database)
			cancel()
		}
	}
	scanErr := sc.Err()
	if scanErr != nil && !res.Stopped {
		r.logger.Warn("cannot read marabunta output, stopping", "database", database, "error", scanErr)
		cancel()
	}
	// Unblock the writer if scanning stopped early.
	_, _ = io.Copy(&logBuf, pr)
	err := <-done
	res.Log = logBuf.Bytes()

	switch {
	case res.Stopped:
		err = nil
	case scanErr != nil && scanErr != err:
		err = errors.Wrap(errors.ErrCodeExternalFeed, scanErr, "read marabunta output on %s", database)
	case err != nil:
		err = errors.Wrap(errors.ErrCodeExternalFeed, err, "marabunta on %s", database)
	}
	hooks.OnMigrationComplete(ctx, database, phase.String(), len(res.Steps), res.Stopped, time.Since(start), err)
	return res, err
}

func shellRun(ctx context.Context, script string, w io.Writer) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.WaitDelay = 10 * time.Second
	killGroup(cmd)
	return cmd.Run()
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
