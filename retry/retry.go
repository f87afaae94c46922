// Package retry re-invokes failing operations a bounded number of times.
//
// A [Policy] describes the bound and the hooks. [Do] runs a synchronous
// operation, recovering panics as failures; [DoContext] runs a
// context-aware one and gives up early when the context ends.
//
// Attempts follow each other immediately unless the policy carries a
// Backoff strategy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchcodes/datautils"
	"github.com/mitchcodes/datautils/backoff"
)

// Policy configures a retry loop. The zero Policy makes a single attempt
// and returns its error.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below 2 mean a
	// single attempt with no retry.
	MaxAttempts int

	// OnExhausted, when set, decides the outcome once every attempt has
	// failed. Its value replaces the operation's result and its error
	// (usually nil) replaces the failure. op names the operation.
	OnExhausted func(err error, op string) (any, error)

	// OnEachError, when set, is called after every failed attempt.
	OnEachError func(err error)

	// Backoff, when set, chooses the pause after failed attempt n before
	// attempt n+1. Nil means no pause.
	Backoff backoff.Strategy
}

func (p Policy) attempts() int {
	return max(p.MaxAttempts, 1)
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff.Delay(attempt)
}

// Do calls fn until it succeeds or the policy is exhausted. A panic in fn
// counts as a failed attempt.
func Do[T any](p Policy, op string, fn func() (T, error)) (T, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		v, err := protect(fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		p.failed(err)

		if attempt < p.attempts() {
			if d := p.delay(attempt); d > 0 {
				time.Sleep(d)
			}
		}
	}
	return exhausted[T](p, op, lastErr)
}

// DoContext calls fn until it succeeds, the policy is exhausted, or ctx
// is done. A cancelled context ends the loop with an error matching both
// ctx.Err() and the last failure.
func DoContext[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(lastErr, err)
		}

		v, err := protect(func() (T, error) { return fn(ctx) })
		if err == nil {
			return v, nil
		}
		lastErr = err
		p.failed(err)

		if attempt < p.attempts() {
			if err := sleep(ctx, p.delay(attempt)); err != nil {
				return zero, errors.Join(lastErr, err)
			}
		}
	}
	return exhausted[T](p, op, lastErr)
}

func (p Policy) failed(err error) {
	if p.OnEachError != nil {
		p.OnEachError(err)
	}
}

func exhausted[T any](p Policy, op string, lastErr error) (T, error) {
	var zero T
	if p.OnExhausted == nil {
		return zero, lastErr
	}

	v, err := p.OnExhausted(lastErr, op)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("retry: %s fallback is %T, want %T: %w", op, v, zero, lastErr)
	}
	return typed, nil
}

// protect runs fn and turns a panic into an error.
func protect[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = datautils.AsError(r)
		}
	}()
	v, err = fn()
	if err != nil {
		err = datautils.AsError(err)
	}
	return v, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
