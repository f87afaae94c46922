package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/mitchcodes/datautils/job"
	mw "github.com/mitchcodes/datautils/middleware"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

func metricNamed(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(set attribute.Set, key string) string {
	v, _ := set.Value(attribute.Key(key))
	return v.AsString()
}

func runWithMetrics(t *testing.T, j *job.Job, err error) metricdata.ResourceMetrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m := mw.MetricsWithMeter(mp.Meter("test"))
	_ = m(context.Background(), j, func(context.Context) error { return err })
	return collect(t, reader)
}

func TestMetrics_RecordsDuration(t *testing.T) {
	rm := runWithMetrics(t, newTestJob(), nil)

	m, ok := metricNamed(rm, "datautils.job.duration")
	if !ok {
		t.Fatal("datautils.job.duration not recorded")
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("data type = %T, want Histogram[float64]", m.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("data points = %+v, want one point with count 1", hist.DataPoints)
	}
	if got := attrValue(hist.DataPoints[0].Attributes, "group"); got != "mailers" {
		t.Errorf("group = %q, want mailers", got)
	}
}

func TestMetrics_CountsRunsByStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, "ok"},
		{"failure", errors.New("smtp down"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := runWithMetrics(t, newTestJob(), tt.err)

			m, ok := metricNamed(rm, "datautils.job.runs")
			if !ok {
				t.Fatal("datautils.job.runs not recorded")
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("data type = %T, want Sum[int64]", m.Data)
			}
			if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("data points = %+v, want one point with value 1", sum.DataPoints)
			}
			attrs := sum.DataPoints[0].Attributes
			if got := attrValue(attrs, "status"); got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
			if got := attrValue(attrs, "job_name"); got != "send-email" {
				t.Errorf("job_name = %q, want send-email", got)
			}
		})
	}
}

func TestMetrics_SequentialJobHasEmptyGroup(t *testing.T) {
	j := job.New("sequential", nil)
	rm := runWithMetrics(t, j, nil)

	m, _ := metricNamed(rm, "datautils.job.runs")
	sum := m.Data.(metricdata.Sum[int64])
	if got := attrValue(sum.DataPoints[0].Attributes, "group"); got != "" {
		t.Errorf("group = %q, want empty", got)
	}
}

func TestMetrics_GlobalProviderIsSafe(t *testing.T) {
	called := false
	err := mw.Metrics()(context.Background(), newTestJob(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
}
