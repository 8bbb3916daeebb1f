package feed

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/odoomig/pkg/cache"
	"github.com/matzehuels/odoomig/pkg/observability"
)

// Cached wraps a Source with a cache. Rows are stored as JSON under keys
// built by the keyer. Cache failures are logged and fall through to the
// wrapped source; they never fail a query.
type Cached struct {
	src    Source
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// NewCached returns a caching Source. A nil keyer uses cache.DefaultKeyer and
// a nil logger discards diagnostics.
func NewCached(src Source, c cache.Cache, keyer cache.Keyer, ttl time.Duration, logger *log.Logger) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cached{src: src, cache: c, keyer: keyer, ttl: ttl, logger: logger}
}

// ModuleEdges implements Source.
func (c *Cached) ModuleEdges(ctx context.Context, database string) ([]ModuleRow, error) {
	return cachedFetch(ctx, c, "modules", c.keyer.FeedKey("modules", database), func() ([]ModuleRow, error) {
		return c.src.ModuleEdges(ctx, database)
	})
}

// ViewEdges implements Source.
func (c *Cached) ViewEdges(ctx context.Context, database string) ([]ViewRow, error) {
	return cachedFetch(ctx, c, "views", c.keyer.FeedKey("views", database), func() ([]ViewRow, error) {
		return c.src.ViewEdges(ctx, database)
	})
}

// Invalidate drops both feeds of database from the cache.
func (c *Cached) Invalidate(ctx context.Context, database string) error {
	for _, kind := range []string{"modules", "views"} {
		if err := c.cache.Delete(ctx, c.keyer.FeedKey(kind, database)); err != nil {
			return err
		}
	}
	return nil
}

func cachedFetch[T any](ctx context.Context, c *Cached, kind, key string, fetch func() ([]T, error)) ([]T, error) {
	data, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if hit {
		var rows []T
		if err := json.Unmarshal(data, &rows); err == nil {
			c.logger.Debug("cache hit", "key", key, "rows", len(rows))
			observability.Cache().OnCacheHit(ctx, kind)
			return rows, nil
		}
		c.logger.Debug("discarding undecodable cache entry", "key", key)
	}
	observability.Cache().OnCacheMiss(ctx, kind)

	rows, err := fetch()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(rows); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, kind, len(data))
		}
	}
	return rows, nil
}

var _ Source = (*Cached)(nil)
