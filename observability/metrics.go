package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mitchcodes/datautils/event"
)

const instrumentationName = "github.com/mitchcodes/datautils/observability"

// LifecycleMetrics turns runner events into counters.
type LifecycleMetrics struct {
	JobsStarted    metric.Int64Counter
	JobsFinished   metric.Int64Counter
	Errors         metric.Int64Counter
	GroupProcessed metric.Int64Counter
	Drains         metric.Int64Counter
	DrainSize      metric.Int64Histogram
	Transitions    metric.Int64Counter
}

// NewLifecycleMetrics creates the instruments on the global MeterProvider.
func NewLifecycleMetrics() *LifecycleMetrics {
	return NewLifecycleMetricsWithMeter(otel.Meter(instrumentationName))
}

// NewLifecycleMetricsWithMeter creates the instruments on meter.
func NewLifecycleMetricsWithMeter(meter metric.Meter) *LifecycleMetrics {
	// The OTel API hands back noop instruments on error.
	started, _ := meter.Int64Counter("datautils.runner.jobs.started",
		metric.WithDescription("Jobs whose work began"),
		metric.WithUnit("{job}"),
	)
	finished, _ := meter.Int64Counter("datautils.runner.jobs.finished",
		metric.WithDescription("Jobs whose work returned without error"),
		metric.WithUnit("{job}"),
	)
	errs, _ := meter.Int64Counter("datautils.runner.errors",
		metric.WithDescription("Error events"),
		metric.WithUnit("{error}"),
	)
	processed, _ := meter.Int64Counter("datautils.runner.group.processed",
		metric.WithDescription("Concurrency-group jobs settled"),
		metric.WithUnit("{job}"),
	)
	drains, _ := meter.Int64Counter("datautils.runner.drains",
		metric.WithDescription("Completed drains of in-flight jobs"),
		metric.WithUnit("{drain}"),
	)
	drainSize, _ := meter.Int64Histogram("datautils.runner.drain.size",
		metric.WithDescription("In-flight jobs at the start of a drain"),
		metric.WithUnit("{job}"),
	)
	transitions, _ := meter.Int64Counter("datautils.runner.transitions",
		metric.WithDescription("Runner lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)

	return &LifecycleMetrics{
		JobsStarted:    started,
		JobsFinished:   finished,
		Errors:         errs,
		GroupProcessed: processed,
		Drains:         drains,
		DrainSize:      drainSize,
		Transitions:    transitions,
	}
}

// Attach registers m on bus and returns the function that detaches it.
func (m *LifecycleMetrics) Attach(bus *event.Bus) (detach func()) {
	return bus.Observe(m.Observe)
}

// Observe records evt. It satisfies event.Observer.
func (m *LifecycleMetrics) Observe(evt event.Event) {
	ctx := context.Background()

	switch evt.Kind {
	case event.KindStartJob:
		m.JobsStarted.Add(ctx, 1, jobAttrs(evt))
	case event.KindFinishJob:
		m.JobsFinished.Add(ctx, 1, jobAttrs(evt))
	case event.KindError:
		m.Errors.Add(ctx, 1, jobAttrs(evt))
	case event.KindQueueProcessed:
		m.GroupProcessed.Add(ctx, 1, jobAttrs(evt))
	case event.KindWaitingForJobs:
		m.DrainSize.Record(ctx, int64(len(evt.Pending)))
	case event.KindDoneWaitingForJobs:
		m.Drains.Add(ctx, 1)
	default:
		m.Transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(evt.Kind)),
		))
	}
}

func jobAttrs(evt event.Event) metric.MeasurementOption {
	if evt.Job == nil {
		return metric.WithAttributes(attribute.String("job_name", ""), attribute.String("group", ""))
	}
	return metric.WithAttributes(
		attribute.String("job_name", evt.Job.Name),
		attribute.String("group", evt.Job.GroupName()),
	)
}
