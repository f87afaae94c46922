package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mitchcodes/datautils/job"
)

// Recover converts a panic raised by the rest of the chain into an error.
// A panic value that is already an error is wrapped so errors.Is still
// matches it.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, j *job.Job, next Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("job panicked",
				slog.String("job_id", j.ID.String()),
				slog.String("job_name", j.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("job %s panicked: %w", j.Name, perr)
				return
			}
			err = fmt.Errorf("job %s panicked: %v", j.Name, r)
		}()
		return next(ctx)
	}
}
