package middleware

import (
	"context"
	"time"

	"github.com/mitchcodes/datautils/job"
)

// Timeout bounds each run with a deadline. The job's own Timeout wins;
// fallback applies to jobs without one. Zero for both means no deadline.
//
// The work function must observe ctx for the deadline to take effect.
func Timeout(fallback time.Duration) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		d := j.Timeout
		if d <= 0 {
			d = fallback
		}
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
