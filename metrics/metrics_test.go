package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordExecutionIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordExecution("python", "completed", 0.5)
	m.RecordExecution("python", "completed", 1.5)

	metric := &dto.Metric{}
	if err := m.ExecutionsTotal.WithLabelValues("python", "completed").Write(metric); err != nil {
		t.Fatal(err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Fatalf("ExecutionsTotal = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordHTTPRequestIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordHTTPRequest("/api/execute", "POST", "200", 0.1)

	metric := &dto.Metric{}
	if err := m.HTTPRequestsTotal.WithLabelValues("/api/execute", "POST", "200").Write(metric); err != nil {
		t.Fatal(err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Fatalf("HTTPRequestsTotal = %v, want 1", metric.Counter.GetValue())
	}
}
