// Package cache stores database feed results between odoomig runs.
//
// Querying an Odoo database through docker-compose and psql takes seconds,
// while most commands only need the same few thousand dependency rows again.
// The [Cache] interface hides where those rows live: [FileCache] for a single
// workstation, [RedisCache] when several people share a migration host, and
// [NullCache] when caching is disabled.
//
// Keys come from a [Keyer] so that backends never need to know what they store.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and true, or nil and false on a miss.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer builds cache keys for feed results.
type Keyer interface {
	// FeedKey returns the key for a feed of the given kind ("modules",
	// "views") read from database.
	FeedKey(kind, database string) string
}

// DefaultKeyer produces keys of the form "feed:<kind>:<database>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// FeedKey implements Keyer.
func (DefaultKeyer) FeedKey(kind, database string) string {
	return "feed:" + kind + ":" + database
}

// ProjectPrefix returns a short, stable scope prefix for a project directory.
// Two checkouts using the same database name get different keys.
func ProjectPrefix(dir string) string {
	return hashKey("project", dir)[:len("project:")+12] + ":"
}
