package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/odoomig/pkg/cache"
	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/observability"
)

// ModuleQuery lists every module dependency with both ends' attributes.
const ModuleQuery = "select p.name, p.state, p.license, p.application, " +
	"c.name, c.state, c.license, c.application " +
	"from ir_module_module as p " +
	"JOIN ir_module_module_dependency as r ON r.name = p.name " +
	"JOIN ir_module_module as c ON c.id = r.module_id"

// ViewQuery lists every view with its inherited parent, if any.
const ViewQuery = "select p.id, p.key, p.name, p.website_id, " +
	"c.id, c.key, c.name, c.website_id " +
	"from ir_ui_view as p " +
	"RIGHT JOIN ir_ui_view as c ON c.inherit_id = p.id"

// DefaultPsqlCommand runs psql inside the project's odoo container.
const DefaultPsqlCommand = "docker-compose run --rm odoo psql"

// Runner executes a shell script and returns its standard output.
type Runner func(ctx context.Context, script string) ([]byte, error)

// Psql reads feeds by running psql as a subprocess. The command is run
// through sh so that wrappers such as docker-compose work unchanged.
type Psql struct {
	command string
	logger  *log.Logger
	run     Runner
}

// PsqlOption configures a Psql source.
type PsqlOption func(*Psql)

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l *log.Logger) PsqlOption {
	return func(p *Psql) { p.logger = l }
}

// WithRunner replaces the subprocess runner, mostly for tests.
func WithRunner(r Runner) PsqlOption {
	return func(p *Psql) { p.run = r }
}

// NewPsql returns a source running command (DefaultPsqlCommand when empty).
func NewPsql(command string, opts ...PsqlOption) *Psql {
	if command == "" {
		command = DefaultPsqlCommand
	}
	p := &Psql{command: command, logger: log.New(io.Discard), run: shellRunner}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Script returns the shell command line used to run query against database.
func (p *Psql) Script(database, query string) string {
	return fmt.Sprintf("%s -P pager=off --csv -t -d %s -c %s", p.command, database, shellQuote(query))
}

// ModuleEdges implements Source.
func (p *Psql) ModuleEdges(ctx context.Context, database string) (rows []ModuleRow, err error) {
	defer p.observe(ctx, "modules", database)(func() int { return len(rows) }, &err)

	out, err := p.query(ctx, "modules", database, ModuleQuery)
	if err != nil {
		return nil, err
	}
	rows, stats, err := DecodeModuleRows(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalFeed, err, "decode module rows")
	}
	p.report("modules", stats)
	return rows, nil
}

// ViewEdges implements Source.
func (p *Psql) ViewEdges(ctx context.Context, database string) (rows []ViewRow, err error) {
	defer p.observe(ctx, "views", database)(func() int { return len(rows) }, &err)

	out, err := p.query(ctx, "views", database, ViewQuery)
	if err != nil {
		return nil, err
	}
	rows, stats, err := DecodeViewRows(bytes.NewReader(out))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalFeed, err, "decode view rows")
	}
	p.report("views", stats)
	return rows, nil
}

func (p *Psql) query(ctx context.Context, kind, database, query string) ([]byte, error) {
	if err := errors.ValidateDatabaseName(database); err != nil {
		return nil, err
	}
	script := p.Script(database, query)
	p.logger.Debug("querying database", "kind", kind, "database", database, "command", p.command)

	var out []byte
	err := cache.RetryWithBackoff(ctx, 3, 2*time.Second, func() error {
		var runErr error
		out, runErr = p.run(ctx, script)
		if runErr != nil && transient(runErr) {
			p.logger.Warn("database not reachable, retrying", "database", database, "error", runErr)
			return cache.Retryable(runErr)
		}
		return runErr
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalFeed, err, "query %s from database %s", kind, database)
	}
	return out, nil
}

// observe emits the query start event and returns the completion callback.
func (p *Psql) observe(ctx context.Context, kind, database string) func(rows func() int, err *error) {
	start := time.Now()
	observability.Feed().OnQueryStart(ctx, kind, database)
	return func(rows func() int, err *error) {
		observability.Feed().OnQueryComplete(ctx, kind, database, rows(), time.Since(start), *err)
	}
}

func (p *Psql) report(kind string, stats Stats) {
	p.logger.Debug("decoded feed", "kind", kind, "rows", stats.Rows, "preamble", stats.Preamble)
	if stats.Malformed > 0 {
		p.logger.Warn("skipped malformed rows", "kind", kind, "count", stats.Malformed)
	}
}

// transient reports whether a psql failure looks like the database container
// was still starting.
func transient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "could not connect") ||
		strings.Contains(msg, "Connection refused") ||
		strings.Contains(msg, "the database system is starting up")
}

func shellRunner(ctx context.Context, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// shellQuote wraps s in single quotes for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var _ Source = (*Psql)(nil)
