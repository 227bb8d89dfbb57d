package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sizeBuckets covers snapshots from a handful of vertices to a few million
var sizeBuckets = prometheus.ExponentialBuckets(1, 4, 12)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysisRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_analytics_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"operation", "algorithm", "status"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_analytics_run_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"operation", "algorithm"},
	)

	r.AnalysisVertices = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_analytics_snapshot_vertices",
			Help:    "Number of vertices in analysed snapshots",
			Buckets: sizeBuckets,
		},
		[]string{"operation"},
	)

	r.AnalysisEdges = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_analytics_snapshot_edges",
			Help:    "Number of edges in analysed snapshots",
			Buckets: sizeBuckets,
		},
		[]string{"operation"},
	)

	r.PageRankIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graph_analytics_pagerank_iterations",
			Help:    "Power iterations performed per PageRank run",
			Buckets: prometheus.LinearBuckets(5, 5, 20),
		},
	)

	r.PageRankNonConverged = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graph_analytics_pagerank_nonconverged_total",
			Help: "PageRank runs that exhausted the iteration budget",
		},
	)

	r.CommunitiesDetected = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_analytics_communities",
			Help: "Number of communities found by the last run",
		},
		[]string{"algorithm"},
	)

	r.CommunityModularity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_analytics_modularity",
			Help: "Modularity of the last community partition",
		},
		[]string{"algorithm"},
	)

	r.SnapshotRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_analytics_snapshot_rejections_total",
			Help: "Snapshots rejected during validation",
		},
		[]string{"reason"},
	)
}
