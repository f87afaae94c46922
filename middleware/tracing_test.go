package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	mw "github.com/mitchcodes/datautils/middleware"
)

func newRecorder() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

func TestTracing_SpanPerRun(t *testing.T) {
	sr, tracer := newRecorder()
	j := newTestJob()

	var inner trace.SpanContext
	err := mw.TracingWithTracer(tracer)(context.Background(), j, func(ctx context.Context) error {
		inner = trace.SpanFromContext(ctx).SpanContext()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "datautils.job.run" {
		t.Errorf("name = %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status().Code)
	}
	if inner.SpanID() != span.SpanContext().SpanID() {
		t.Error("handler context does not carry the run span")
	}

	want := map[string]string{
		"datautils.job.id":    j.ID.String(),
		"datautils.job.name":  "send-email",
		"datautils.job.group": "mailers",
	}
	got := map[string]string{}
	for _, a := range span.Attributes() {
		got[string(a.Key)] = a.Value.Emit()
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
	if got["datautils.job.max_concurrent"] != "3" {
		t.Errorf("max_concurrent = %q, want 3", got["datautils.job.max_concurrent"])
	}
}

func TestTracing_ErrorStatus(t *testing.T) {
	sr, tracer := newRecorder()
	boom := errors.New("handler failed")

	err := mw.TracingWithTracer(tracer)(context.Background(), newTestJob(), func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	span := sr.Ended()[0]
	if span.Status().Code != codes.Error || span.Status().Description != "handler failed" {
		t.Errorf("status = %+v", span.Status())
	}
	recorded := false
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			recorded = true
		}
	}
	if !recorded {
		t.Error("error not recorded on span")
	}
}

func TestTracing_GlobalProviderIsSafe(t *testing.T) {
	if err := mw.Tracing()(context.Background(), newTestJob(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
}
