// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about database queries, feed cache operations and
// migration runs.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the libraries stay free
// of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetFeedHooks(&myFeedHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Feed().OnQueryStart(ctx, "modules", database)
//	// ... run psql ...
//	observability.Feed().OnQueryComplete(ctx, "modules", database, rows, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Feed Hooks
// =============================================================================

// FeedHooks receives events from database queries. kind is "modules" or
// "views".
type FeedHooks interface {
	OnQueryStart(ctx context.Context, kind, database string)
	OnQueryComplete(ctx context.Context, kind, database string, rows int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from feed cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, kind string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, kind string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, kind string, size int)
}

// =============================================================================
// Migration Hooks
// =============================================================================

// MigrationHooks receives events from marabunta runs.
type MigrationHooks interface {
	// OnStep records a marabunta step line.
	OnStep(ctx context.Context, database, phase, step string)

	// OnMigrationComplete records the end of a run. stopped is set when a
	// pre phase was cut at the addons step.
	OnMigrationComplete(ctx context.Context, database, phase string, steps int, stopped bool, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFeedHooks is a no-op implementation of FeedHooks.
type NoopFeedHooks struct{}

func (NoopFeedHooks) OnQueryStart(context.Context, string, string) {}
func (NoopFeedHooks) OnQueryComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopMigrationHooks is a no-op implementation of MigrationHooks.
type NoopMigrationHooks struct{}

func (NoopMigrationHooks) OnStep(context.Context, string, string, string) {}
func (NoopMigrationHooks) OnMigrationComplete(context.Context, string, string, int, bool, time.Duration, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	feedHooks      FeedHooks      = NoopFeedHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	migrationHooks MigrationHooks = NoopMigrationHooks{}
	hooksMu        sync.RWMutex
)

// SetFeedHooks registers custom feed hooks.
// This should be called once at application startup before any query.
func SetFeedHooks(h FeedHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		feedHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetMigrationHooks registers custom migration hooks.
func SetMigrationHooks(h MigrationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		migrationHooks = h
	}
}

// Feed returns the registered feed hooks.
func Feed() FeedHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return feedHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Migration returns the registered migration hooks.
func Migration() MigrationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return migrationHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	feedHooks = NoopFeedHooks{}
	cacheHooks = NoopCacheHooks{}
	migrationHooks = NoopMigrationHooks{}
}
