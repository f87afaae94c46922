package cache

import (
	"context"
	"errors"
	"time"

	"github.com/mitchcodes/datautils/distribute"
	"github.com/mitchcodes/datautils/retry"
	"github.com/mitchcodes/datautils/throttle"
)

// Compile-time interface checks.
var (
	_ Cache = (*throttled)(nil)
	_ Cache = (*retrying)(nil)
	_ Cache = (*distributed)(nil)
)

type throttled struct {
	next Cache
	t    *throttle.Throttler
}

// Throttled returns a Cache whose every method call, whatever the method,
// is admitted through t before reaching next.
func Throttled(next Cache, t *throttle.Throttler) Cache {
	return &throttled{next: next, t: t}
}

func (c *throttled) Get(ctx context.Context, key string) ([]byte, error) {
	return throttle.Do(ctx, c.t, func(ctx context.Context) ([]byte, error) {
		return c.next.Get(ctx, key)
	})
}

func (c *throttled) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return throttle.Run(ctx, c.t, func(ctx context.Context) error {
		return c.next.Set(ctx, key, value, ttl)
	})
}

func (c *throttled) Remove(ctx context.Context, key string) error {
	return throttle.Run(ctx, c.t, func(ctx context.Context) error {
		return c.next.Remove(ctx, key)
	})
}

func (c *throttled) Clear(ctx context.Context) error {
	return throttle.Run(ctx, c.t, c.next.Clear)
}

type retrying struct {
	next   Cache
	policy retry.Policy
}

// Retrying returns a Cache that retries failed calls on next according to
// policy. A miss is an answer, not a failure, so ErrNotFound is never
// retried. The operation names handed to OnExhausted are the method names.
func Retrying(next Cache, policy retry.Policy) Cache {
	return &retrying{next: next, policy: policy}
}

// lookup carries a miss through the retry loop as a successful result.
type lookup struct {
	value []byte
	miss  bool
}

func (c *retrying) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := retry.DoContext(ctx, c.policy, "Get", func(ctx context.Context) (lookup, error) {
		v, err := c.next.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return lookup{miss: true}, nil
		}
		return lookup{value: v}, err
	})
	if err != nil {
		return nil, err
	}
	if res.miss {
		return nil, ErrNotFound
	}
	return res.value, nil
}

func (c *retrying) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.run(ctx, "Set", func(ctx context.Context) error {
		return c.next.Set(ctx, key, value, ttl)
	})
}

func (c *retrying) Remove(ctx context.Context, key string) error {
	return c.run(ctx, "Remove", func(ctx context.Context) error {
		return c.next.Remove(ctx, key)
	})
}

func (c *retrying) Clear(ctx context.Context) error {
	return c.run(ctx, "Clear", c.next.Clear)
}

func (c *retrying) run(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := retry.DoContext(ctx, c.policy, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type distributed struct {
	pool *distribute.Pool[Cache]
}

// Distributed returns a Cache that sends each call to the next instance
// of pool. Instances are assumed to be equivalent; Clear and Remove reach
// only the selected instance.
func Distributed(pool *distribute.Pool[Cache]) Cache {
	return &distributed{pool: pool}
}

func (c *distributed) Get(ctx context.Context, key string) ([]byte, error) {
	return distribute.Call(c.pool, func(next Cache) ([]byte, error) {
		return next.Get(ctx, key)
	})
}

func (c *distributed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.call(func(next Cache) error { return next.Set(ctx, key, value, ttl) })
}

func (c *distributed) Remove(ctx context.Context, key string) error {
	return c.call(func(next Cache) error { return next.Remove(ctx, key) })
}

func (c *distributed) Clear(ctx context.Context) error {
	return c.call(func(next Cache) error { return next.Clear(ctx) })
}

func (c *distributed) call(fn func(Cache) error) error {
	next, err := c.pool.Next(true)
	if err != nil {
		return err
	}
	return fn(next)
}
