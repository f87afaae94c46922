package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mitchcodes/datautils/job"
)

const instrumentationName = "github.com/mitchcodes/datautils"

// Metrics records run metrics on the global MeterProvider.
//
//   - datautils.job.duration (histogram, seconds)
//   - datautils.job.runs (counter)
//
// Both carry job_name, group and status ("ok" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(instrumentationName))
}

// MetricsWithMeter is Metrics with an explicit meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// The OTel API hands back noop instruments on error.
	duration, _ := meter.Float64Histogram(
		"datautils.job.duration",
		metric.WithDescription("Job run duration"),
		metric.WithUnit("s"),
	)
	runs, _ := meter.Int64Counter(
		"datautils.job.runs",
		metric.WithDescription("Job runs by outcome"),
		metric.WithUnit("{run}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)

		status := "ok"
		if err != nil {
			status = "error"
		}
		set := metric.WithAttributes(
			attribute.String("job_name", j.Name),
			attribute.String("group", j.GroupName()),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), set)
		runs.Add(ctx, 1, set)
		return err
	}
}
