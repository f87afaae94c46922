// Package cache defines the key/value cache collaborator and wrappers that
// throttle, retry or distribute calls to any implementation.
//
// Implementations live in the memory and redis subpackages. The wrappers
// each implement [Cache] themselves, so they compose:
//
//	pool, _ := distribute.New([]cache.Cache{primary, replica}, distribute.RoundRobin())
//	c := cache.Retrying(cache.Throttled(cache.Distributed(pool), limiter), retry.Policy{MaxAttempts: 3})
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache stores opaque values by key.
type Cache interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value at key. A ttl of zero means the implementation's
	// default, which may be no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Clear deletes every key.
	Clear(ctx context.Context) error
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var v T
	raw, err := c.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return v, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
