package middleware

import (
	"context"

	"github.com/mitchcodes/datautils/job"
)

// Handler runs the job's work.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler for a given job.
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes mws into one Middleware. Chain(a, b) runs as
// a → b → handler.
func Chain(mws ...Middleware) Middleware {
	switch len(mws) {
	case 0:
		return func(ctx context.Context, _ *job.Job, next Handler) error { return next(ctx) }
	case 1:
		return mws[0]
	}
	return func(ctx context.Context, j *job.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = bind(mws[i], j, h)
		}
		return h(ctx)
	}
}

// Wrap returns a Handler that runs j's work through m.
func Wrap(m Middleware, j *job.Job) Handler {
	return bind(m, j, j.Run)
}

func bind(m Middleware, j *job.Job, next Handler) Handler {
	return func(ctx context.Context) error { return m(ctx, j, next) }
}
