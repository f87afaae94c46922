package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/mitchcodes/datautils/job"
)

// Logging logs every run at debug level on start and at info or error
// level on completion.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
		}
		if j.Concurrent() {
			attrs = append(attrs, slog.String("group", j.GroupName()))
		}
		logger.DebugContext(ctx, "job started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		if err != nil {
			logger.ErrorContext(ctx, "job failed", append(attrs, slog.String("error", err.Error()))...)
			return err
		}
		logger.InfoContext(ctx, "job finished", attrs...)
		return nil
	}
}
