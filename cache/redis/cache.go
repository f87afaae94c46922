package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mitchcodes/datautils/cache"
)

var _ cache.Cache = (*Cache)(nil)

const clearBatch = 256

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix namespaces every key. With a prefix, Clear removes only the
// prefixed keys instead of flushing the server.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Cache is a cache.Cache stored in Redis. The caller owns the client.
type Cache struct {
	client redis.Cmdable
	prefix string
	logger *slog.Logger
}

// New creates a cache on client.
func New(client redis.Cmdable, opts ...Option) *Cache {
	c := &Cache{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping verifies the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrClientMissing
	}
	return c.client.Ping(ctx).Err()
}

// Get returns the value at key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrClientMissing
	}
	v, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value at key. A ttl of zero stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return ErrClientMissing
	}
	if err := c.client.Set(ctx, c.key(key), value, max(ttl, 0)).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (c *Cache) Remove(ctx context.Context, key string) error {
	if c.client == nil {
		return ErrClientMissing
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: del %q: %w", key, err)
	}
	return nil
}

// Clear removes every prefixed key, or flushes all databases when the
// cache has no prefix.
func (c *Cache) Clear(ctx context.Context) error {
	if c.client == nil {
		return ErrClientMissing
	}
	if c.prefix == "" {
		if err := c.client.FlushAll(ctx).Err(); err != nil {
			return fmt.Errorf("redis: flushall: %w", err)
		}
		return nil
	}

	var (
		batch   = make([]string, 0, clearBatch)
		removed int
	)
	iter := c.client.Scan(ctx, 0, c.prefix+"*", clearBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis: clear %q: %w", c.prefix, err)
			}
			removed += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan %q: %w", c.prefix, err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis: clear %q: %w", c.prefix, err)
		}
		removed += len(batch)
	}

	c.logger.Debug("redis cache cleared",
		slog.String("prefix", c.prefix),
		slog.Int("keys", removed),
	)
	return nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}
