package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the analytics engine
type Registry struct {
	// Analysis Metrics
	AnalysisRunsTotal       *prometheus.CounterVec
	AnalysisDuration        *prometheus.HistogramVec
	AnalysisVertices        *prometheus.HistogramVec
	AnalysisEdges           *prometheus.HistogramVec
	PageRankIterations      prometheus.Histogram
	PageRankNonConverged    prometheus.Counter
	CommunitiesDetected     *prometheus.GaugeVec
	CommunityModularity     *prometheus.GaugeVec
	SnapshotRejectionsTotal *prometheus.CounterVec

	// Sink Metrics
	SinkWritesTotal   *prometheus.CounterVec
	SinkRowsTotal     *prometheus.CounterVec
	SinkWriteDuration *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initAnalysisMetrics()
	r.initSinkMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
