package marabunta

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/observability"
)

// fakeShell prints lines to w until the context is cancelled.
func fakeShell(lines []string, fail error, scripts *[]string) Shell {
	return func(ctx context.Context, script string, w io.Writer) error {
		if scripts != nil {
			*scripts = append(*scripts, script)
		}
		for _, l := range lines {
			if err := ctx.Err(); err != nil {
				return err
			}
			fmt.Fprintln(w, l)
		}
		return fail
	}
}

var migrationOutput = []string{
	"starting",
	"|> version setup: 16.0.1.0.0 pre-operations",
	"running anthem",
	"|> version setup: installation / upgrade of addons",
	"loading modules",
	"|> version setup: 16.0.1.0.0 post-operations",
}

func TestRunner_Migrate(t *testing.T) {
	tests := []struct {
		phase   Phase
		steps   int
		stopped bool
	}{
		{PhasePre, 2, true},
		{PhasePost, 3, false},
		{PhaseFull, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			var scripts, seen []string
			r := NewRunner("", "psql", WithShell(fakeShell(migrationOutput, nil, &scripts)))
			res, err := r.Migrate(context.Background(), "odoodb_pre", tt.phase, func(l string) { seen = append(seen, l) })
			if err != nil {
				t.Fatalf("Migrate() error = %v", err)
			}
			if len(res.Steps) != tt.steps || !slices.Equal(seen, res.Steps) {
				t.Errorf("Steps = %v, seen %v, want %d steps", res.Steps, seen, tt.steps)
			}
			if res.Stopped != tt.stopped {
				t.Errorf("Stopped = %v, want %v", res.Stopped, tt.stopped)
			}
			if !strings.HasPrefix(string(res.Log), "starting\n") {
				t.Errorf("Log = %q", res.Log)
			}
			if !strings.Contains(scripts[0], "DB_NAME=odoodb_pre ") {
				t.Errorf("script = %q, want database substituted", scripts[0])
			}
		})
	}
}

func TestRunner_MigrateFailure(t *testing.T) {
	boom := fmt.Errorf("exit status 1")
	r := NewRunner("marabunta --db {db}", "psql", WithShell(fakeShell([]string{"traceback"}, boom, nil)))
	res, err := r.Migrate(context.Background(), "odoodb", PhaseFull, nil)
	if !errors.Is(err, errors.ErrCodeExternalFeed) {
		t.Fatalf("Migrate() error = %v, want EXTERNAL_FEED", err)
	}
	if string(res.Log) != "traceback\n" {
		t.Errorf("Log = %q, want the output up to the failure", res.Log)
	}
	if _, err := r.Migrate(context.Background(), "odoo; rm -rf /", PhaseFull, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Migrate(bad name) error = %v, want INVALID_INPUT", err)
	}
}

func TestRunner_MigrateLineTooLong(t *testing.T) {
	defer func(n int) { maxLineSize = n }(maxLineSize)
	maxLineSize = 256

	lines := []string{
		"|> version setup: 16.0.1.0.0 pre-operations",
		strings.Repeat("x", 1024),
		"|> version setup: installation / upgrade of addons",
	}
	r := NewRunner("", "psql", WithShell(fakeShell(lines, nil, nil)))
	res, err := r.Migrate(context.Background(), "odoodb_pre", PhasePre, nil)
	if !errors.Is(err, errors.ErrCodeExternalFeed) {
		t.Fatalf("Migrate() error = %v, want EXTERNAL_FEED", err)
	}
	if res.Stopped {
		t.Error("Stopped = true, want the unread addons step to be missed")
	}
	if len(res.Steps) != 1 {
		t.Errorf("Steps = %v, want only the step before the long line", res.Steps)
	}
}

type migrationHooks struct {
	observability.NoopMigrationHooks
	steps    []string
	complete string
}

func (h *migrationHooks) OnStep(_ context.Context, _, _, step string) {
	h.steps = append(h.steps, step)
}

func (h *migrationHooks) OnMigrationComplete(_ context.Context, database, phase string, steps int, stopped bool, _ time.Duration, err error) {
	h.complete = fmt.Sprintf("%s %s steps=%d stopped=%v err=%v", database, phase, steps, stopped, err)
}

func TestRunner_MigrateHooks(t *testing.T) {
	h := &migrationHooks{}
	observability.SetMigrationHooks(h)
	defer observability.Reset()

	r := NewRunner("", "psql", WithShell(fakeShell(migrationOutput, nil, nil)))
	res, err := r.Migrate(context.Background(), "odoodb_pre", PhasePre, nil)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !slices.Equal(h.steps, res.Steps) {
		t.Errorf("hook steps = %v, want %v", h.steps, res.Steps)
	}
	if want := "odoodb_pre pre steps=2 stopped=true err=<nil>"; h.complete != want {
		t.Errorf("complete = %q, want %q", h.complete, want)
	}
}

func TestRunner_Prepare(t *testing.T) {
	dbs := NewDatabases("odoodb")

	var scripts []string
	r := NewRunner("", "psql", WithShell(fakeShell(nil, nil, &scripts)))
	target, err := r.Prepare(context.Background(), dbs, PhasePost)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if target != "odoodb_post" {
		t.Errorf("target = %q, want odoodb_post", target)
	}
	want := []string{
		"psql -d odoodb_pre -c 'select 1'",
		`psql -d postgres -c 'DROP DATABASE IF EXISTS "odoodb_post"'`,
		`psql -d postgres -c 'CREATE DATABASE "odoodb_post" TEMPLATE "odoodb_pre"'`,
	}
	if !slices.Equal(scripts, want) {
		t.Errorf("scripts = %q, want %q", scripts, want)
	}

	missing := NewRunner("", "psql", WithShell(fakeShell(nil, fmt.Errorf("no such database"), nil)))
	if _, err := missing.Prepare(context.Background(), dbs, PhasePre); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Prepare(no template) error = %v, want NOT_FOUND", err)
	}
}

func TestDatabases_Target(t *testing.T) {
	dbs := NewDatabases("odoodb")
	tests := []struct {
		phase        Phase
		target, from string
	}{
		{PhaseFull, "odoodb", "odoodb_template"},
		{PhasePre, "odoodb_pre", "odoodb_template"},
		{PhasePost, "odoodb_post", "odoodb_pre"},
	}
	for _, tt := range tests {
		target, from := dbs.Target(tt.phase)
		if target != tt.target || from != tt.from {
			t.Errorf("Target(%s) = %s, %s, want %s, %s", tt.phase, target, from, tt.target, tt.from)
		}
	}
}
