package metrics

import (
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// Run statuses
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
)

// RecordRun records one analysis operation with its duration and input size
func (r *Registry) RecordRun(operation, algorithm, status string, duration time.Duration, vertices, edges int) {
	r.AnalysisRunsTotal.WithLabelValues(operation, algorithm, status).Inc()
	r.AnalysisDuration.WithLabelValues(operation, algorithm).Observe(duration.Seconds())
	r.AnalysisVertices.WithLabelValues(operation).Observe(float64(vertices))
	r.AnalysisEdges.WithLabelValues(operation).Observe(float64(edges))
}

// RecordPageRank records the outcome of one power iteration run
func (r *Registry) RecordPageRank(iterations int, converged bool) {
	r.PageRankIterations.Observe(float64(iterations))
	if !converged {
		r.PageRankNonConverged.Inc()
	}
}

// RecordCommunities records the partition found by a community run
func (r *Registry) RecordCommunities(algorithm string, communities int, modularity float64) {
	r.CommunitiesDetected.WithLabelValues(algorithm).Set(float64(communities))
	r.CommunityModularity.WithLabelValues(algorithm).Set(modularity)
}

// RecordRejection counts a rejected snapshot under the reason its error names
func (r *Registry) RecordRejection(err error) {
	r.SnapshotRejectionsTotal.WithLabelValues(RejectionReason(err)).Inc()
}

// RejectionReason maps a snapshot error onto a bounded label value
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, graph.ErrDanglingEdge):
		return "dangling_edge"
	case errors.Is(err, graph.ErrDuplicateVertex):
		return "duplicate_vertex"
	case errors.Is(err, graph.ErrNegativeWeight):
		return "invalid_weight"
	case errors.Is(err, graph.ErrInvalidDirection):
		return "invalid_direction"
	case errors.Is(err, graph.ErrInvalidVertex):
		return "invalid_vertex"
	default:
		return "other"
	}
}

// RecordSinkWrite records a batch written to a result sink
func (r *Registry) RecordSinkWrite(sink, kind string, rows int, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.SinkWritesTotal.WithLabelValues(sink, kind, status).Inc()
	r.SinkWriteDuration.WithLabelValues(sink, kind).Observe(duration.Seconds())
	if err == nil {
		r.SinkRowsTotal.WithLabelValues(sink, kind).Add(float64(rows))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and heap gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}

// Gather returns the current metric families, sorted by name
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// Gatherer exposes the registry to exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
