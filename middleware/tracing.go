package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mitchcodes/datautils/job"
)

// Tracing runs each job inside a span from the global TracerProvider.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(instrumentationName))
}

// TracingWithTracer is Tracing with an explicit tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []attribute.KeyValue{
			attribute.String("datautils.job.id", j.ID.String()),
			attribute.String("datautils.job.name", j.Name),
		}
		if j.Concurrent() {
			attrs = append(attrs,
				attribute.String("datautils.job.group", j.Group.Name),
				attribute.Int("datautils.job.max_concurrent", j.Group.MaxConcurrent),
			)
		}
		ctx, span := tracer.Start(ctx, "datautils.job.run",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		if err := next(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}
