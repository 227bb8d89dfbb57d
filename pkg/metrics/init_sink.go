package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSinkMetrics() {
	r.SinkWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_analytics_sink_writes_total",
			Help: "Total number of result sink writes",
		},
		[]string{"sink", "kind", "status"},
	)

	r.SinkRowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_analytics_sink_rows_total",
			Help: "Result rows written to sinks",
		},
		[]string{"sink", "kind"},
	)

	r.SinkWriteDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_analytics_sink_write_duration_seconds",
			Help:    "Sink write duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink", "kind"},
	)
}
