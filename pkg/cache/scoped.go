package cache

// ScopedKeyer wraps a Keyer with a prefix so that several projects can share
// one cache backend (typically a Redis instance on a migration host).
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), ProjectPrefix(cwd))
//	key := keyer.FeedKey("modules", "odoodb")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FeedKey generates a prefixed key for a feed result.
func (k *ScopedKeyer) FeedKey(kind, database string) string {
	return k.prefix + k.inner.FeedKey(kind, database)
}
