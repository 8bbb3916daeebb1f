package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/odoomig/pkg/observability"
)

// logHooks reports feed, cache and migration events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnQueryStart(_ context.Context, kind, database string) {
	h.logger.Debug("query started", "kind", kind, "database", database)
}

func (h logHooks) OnQueryComplete(_ context.Context, kind, database string, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("query failed", "kind", kind, "database", database, "duration", d.Round(time.Millisecond), "error", err)
		return
	}
	h.logger.Debug("query done", "kind", kind, "database", database, "rows", rows, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("feed cache hit", "kind", kind)
}

func (h logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("feed cache miss", "kind", kind)
}

func (h logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("feed cached", "kind", kind, "bytes", size)
}

func (h logHooks) OnStep(_ context.Context, database, phase, step string) {
	h.logger.Debug("migration step", "database", database, "phase", phase, "step", step)
}

func (h logHooks) OnMigrationComplete(_ context.Context, database, phase string, steps int, stopped bool, d time.Duration, err error) {
	h.logger.Debug("migration finished", "database", database, "phase", phase,
		"steps", steps, "stopped", stopped, "duration", d.Round(time.Second), "error", err)
}

// registerHooks routes library events to the CLI logger.
func (c *CLI) registerHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetFeedHooks(h)
	observability.SetCacheHooks(h)
	observability.SetMigrationHooks(h)
}
