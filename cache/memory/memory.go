// Package memory is an in-process cache.Cache backed by ttlcache.
//
// Entries expire lazily on read. Start runs a background loop that also
// evicts expired entries proactively; Close stops it.
package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/mitchcodes/datautils/cache"
)

var _ cache.Cache = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL sets the expiry used when Set is called with ttl 0.
// Zero keeps entries until they are removed.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = d }
}

// WithCapacity bounds the number of entries; the least recently used
// entry is evicted when the bound is reached. Zero means unbounded.
func WithCapacity(n uint64) Option {
	return func(c *Cache) { c.capacity = n }
}

// WithLogger sets the logger used to report evictions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Cache is an in-memory cache.Cache. It is safe for concurrent use.
type Cache struct {
	items      *ttlcache.Cache[string, []byte]
	defaultTTL time.Duration
	capacity   uint64
	logger     *slog.Logger
	running    atomic.Bool
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	ttlOpts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](c.defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if c.capacity > 0 {
		ttlOpts = append(ttlOpts, ttlcache.WithCapacity[string, []byte](c.capacity))
	}
	c.items = ttlcache.New(ttlOpts...)

	c.items.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, []byte]) {
		if reason == ttlcache.EvictionReasonCapacityReached {
			c.logger.Debug("cache entry evicted", slog.String("key", item.Key()))
		}
	})
	return c
}

// Start runs the expiry loop until Close is called. It returns
// immediately.
func (c *Cache) Start() {
	if c.running.CompareAndSwap(false, true) {
		go c.items.Start()
	}
}

// Close stops the expiry loop started by Start.
func (c *Cache) Close() {
	if c.running.CompareAndSwap(true, false) {
		c.items.Stop()
	}
}

// Get returns a copy of the value at key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, cache.ErrNotFound
	}
	return slices.Clone(item.Value()), nil
}

// Set stores a copy of value. A ttl of zero uses the default TTL.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	c.items.Set(key, slices.Clone(value), ttl)
	return nil
}

// Remove deletes key.
func (c *Cache) Remove(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Clear deletes every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.items.DeleteAll()
	return nil
}

// Len returns the number of entries, including expired entries not yet
// evicted.
func (c *Cache) Len() int {
	return c.items.Len()
}
