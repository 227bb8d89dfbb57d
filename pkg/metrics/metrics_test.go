package metrics

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.AnalysisRunsTotal == nil {
		t.Error("AnalysisRunsTotal not initialized")
	}
	if r.SinkWritesTotal == nil {
		t.Error("SinkWritesTotal not initialized")
	}
	if r.UptimeSeconds == nil {
		t.Error("UptimeSeconds not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.RecordRun("centrality", "pagerank", StatusSuccess, time.Millisecond, 3, 2)

	counter, err := b.AnalysisRunsTotal.GetMetricWithLabelValues("centrality", "pagerank", StatusSuccess)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 0 {
		t.Errorf("Second registry counter = %v, want 0", v)
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()

	r.RecordRun("centrality", "pagerank", StatusSuccess, 10*time.Millisecond, 100, 400)
	r.RecordRun("centrality", "pagerank", StatusSuccess, 20*time.Millisecond, 100, 400)
	r.RecordRun("centrality", "pagerank", StatusRejected, time.Millisecond, 2, 1)

	success, err := r.AnalysisRunsTotal.GetMetricWithLabelValues("centrality", "pagerank", StatusSuccess)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, success); v != 2 {
		t.Errorf("Success counter = %v, want 2", v)
	}

	rejected, err := r.AnalysisRunsTotal.GetMetricWithLabelValues("centrality", "pagerank", StatusRejected)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, rejected); v != 1 {
		t.Errorf("Rejected counter = %v, want 1", v)
	}

	observer, err := r.AnalysisVertices.GetMetricWithLabelValues("centrality")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := observer.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Vertex histogram count = %v, want 3", metric.Histogram.GetSampleCount())
	}
	if metric.Histogram.GetSampleSum() != 202 {
		t.Errorf("Vertex histogram sum = %v, want 202", metric.Histogram.GetSampleSum())
	}
}

func TestRecordPageRank(t *testing.T) {
	r := NewRegistry()

	r.RecordPageRank(12, true)
	r.RecordPageRank(100, false)

	if v := counterValue(t, r.PageRankNonConverged); v != 1 {
		t.Errorf("Non-converged counter = %v, want 1", v)
	}

	var metric dto.Metric
	if err := r.PageRankIterations.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleSum() != 112 {
		t.Errorf("Iterations sum = %v, want 112", metric.Histogram.GetSampleSum())
	}
}

func TestRecordCommunities(t *testing.T) {
	r := NewRegistry()

	r.RecordCommunities("louvain", 4, 0.42)

	count, err := r.CommunitiesDetected.GetMetricWithLabelValues("louvain")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := gaugeValue(t, count); v != 4 {
		t.Errorf("Communities gauge = %v, want 4", v)
	}

	q, err := r.CommunityModularity.GetMetricWithLabelValues("louvain")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := gaugeValue(t, q); v != 0.42 {
		t.Errorf("Modularity gauge = %v, want 0.42", v)
	}
}

func TestRejectionReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{graph.ErrDanglingEdge, "dangling_edge"},
		{fmt.Errorf("wrapped: %w", graph.ErrDuplicateVertex), "duplicate_vertex"},
		{graph.ErrNegativeWeight, "invalid_weight"},
		{graph.ErrInvalidDirection, "invalid_direction"},
		{graph.ErrInvalidVertex, "invalid_vertex"},
		{errors.New("something else"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := RejectionReason(tt.err); got != tt.want {
				t.Errorf("RejectionReason(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecordRejection(t *testing.T) {
	r := NewRegistry()

	_, err := graph.NewSnapshot([]graph.Vertex{{ID: "A"}}, []graph.Edge{{SourceID: "A", TargetID: "missing"}})
	if err == nil {
		t.Fatal("Expected dangling edge rejection")
	}
	r.RecordRejection(err)

	counter, err := r.SnapshotRejectionsTotal.GetMetricWithLabelValues("dangling_edge")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("Rejection counter = %v, want 1", v)
	}
}

func TestRecordSinkWrite(t *testing.T) {
	r := NewRegistry()

	r.RecordSinkWrite("sqlite", "centrality", 10, time.Millisecond, nil)
	r.RecordSinkWrite("sqlite", "centrality", 5, time.Millisecond, errors.New("locked"))

	rows, err := r.SinkRowsTotal.GetMetricWithLabelValues("sqlite", "centrality")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, rows); v != 10 {
		t.Errorf("Rows counter = %v, want 10 (failed writes excluded)", v)
	}

	failed, err := r.SinkWritesTotal.GetMetricWithLabelValues("sqlite", "centrality", StatusError)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, failed); v != 1 {
		t.Errorf("Failed writes = %v, want 1", v)
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	if v := gaugeValue(t, r.GoRoutines); v < 1 {
		t.Errorf("Goroutines gauge = %v, want >= 1", v)
	}
	if v := gaugeValue(t, r.MemoryAllocBytes); v <= 0 {
		t.Errorf("Memory gauge = %v, want > 0", v)
	}
}

func TestGather(t *testing.T) {
	r := NewRegistry()
	r.RecordRun("communities", "louvain", StatusSuccess, time.Millisecond, 6, 7)

	families, err := r.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := false
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "graph_analytics_") {
			t.Errorf("Unexpected metric name %q", mf.GetName())
		}
		if mf.GetName() == "graph_analytics_runs_total" {
			found = true
		}
	}
	if !found {
		t.Error("graph_analytics_runs_total not gathered")
	}
}
