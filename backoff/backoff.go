// Package backoff provides delay strategies used between retry attempts.
// Every strategy here is stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the pause before the next attempt.
type Strategy interface {
	// Delay returns how long to wait after failed attempt n (1-indexed).
	Delay(attempt int) time.Duration
}

// Func adapts a plain function to a Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// None never waits. It is the retrier's default.
var None Strategy = Func(func(int) time.Duration { return 0 })

// Constant waits the same interval after every failure.
type Constant time.Duration

// Delay returns the fixed interval.
func (c Constant) Delay(int) time.Duration { return time.Duration(c) }

// Linear waits Step * attempt, capped at Max when Max > 0.
type Linear struct {
	Step time.Duration
	Max  time.Duration
}

// Delay returns Step * attempt, capped at Max.
func (l Linear) Delay(attempt int) time.Duration {
	return capAt(l.Step*time.Duration(max(attempt, 1)), l.Max)
}

// Exponential waits Initial * Factor^(attempt-1), capped at Max when
// Max > 0. A Factor below 1 is treated as 2.
type Exponential struct {
	Initial time.Duration
	Factor  float64
	Max     time.Duration
}

// Delay returns the exponential delay for attempt.
func (e Exponential) Delay(attempt int) time.Duration {
	factor := e.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(e.Initial) * math.Pow(factor, float64(max(attempt, 1)-1))
	if d >= math.MaxInt64 {
		return capAt(time.Duration(math.MaxInt64), e.Max)
	}
	return capAt(time.Duration(d), e.Max)
}

// Jitter wraps another strategy and returns a uniformly random delay in
// [0, base) where base is the wrapped strategy's delay ("full jitter").
func Jitter(s Strategy) Strategy {
	return Func(func(attempt int) time.Duration {
		base := s.Delay(attempt)
		if base <= 0 {
			return 0
		}
		return time.Duration(rand.Int64N(int64(base))) //nolint:gosec // jitter does not need crypto rand
	})
}

func capAt(d, limit time.Duration) time.Duration {
	if limit > 0 && d > limit {
		return limit
	}
	return d
}
