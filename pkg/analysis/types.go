package analysis

import (
	"errors"
	"time"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
)

// Analysis types written to AnalysisResult.AnalysisType
const (
	TypeCentrality = "centrality"
	TypeCommunity  = "community"
)

// MetricModularity names the whole-run modularity row of a community run
const MetricModularity = "modularity"

var (
	// ErrNoSink is returned when results are requested from a service
	// without a sink
	ErrNoSink = errors.New("no result sink configured")

	// ErrSinkNotReadable is returned when the configured sink cannot be
	// queried for earlier results
	ErrSinkNotReadable = errors.New("result sink does not support reads")
)

// AnalysisResult is one flat result tuple. Centrality runs produce one per
// vertex. Community runs produce one per vertex carrying the community id and
// one with an empty VertexID carrying the modularity.
type AnalysisResult struct {
	VertexID     string    `json:"vertex_id"`
	AnalysisType string    `json:"analysis_type"`
	MetricName   string    `json:"metric_name"`
	MetricValue  float64   `json:"metric_value"`
	ComputedAt   time.Time `json:"computed_at"`
	RunID        string    `json:"run_id"`
}

// CommunityAssignment places one vertex in one community of one run
type CommunityAssignment struct {
	CommunityID int       `json:"community_id"`
	VertexID    string    `json:"vertex_id"`
	Algorithm   string    `json:"algorithm"`
	Modularity  float64   `json:"modularity"`
	ComputedAt  time.Time `json:"computed_at"`
	RunID       string    `json:"run_id"`
}

// DensityReport is the outcome of GetDensityAndCounts
type DensityReport struct {
	VertexCount int     `json:"vertex_count"`
	EdgeCount   int     `json:"edge_count"`
	Density     float64 `json:"density"`
}

// Report collects every analysis RunAll performs on one snapshot
type Report struct {
	RunID       string                                                `json:"run_id"`
	ComputedAt  time.Time                                             `json:"computed_at"`
	Density     DensityReport                                         `json:"density"`
	Centrality  map[algorithms.CentralityAlgorithm]map[string]float64 `json:"centrality"`
	PageRank    PageRankSummary                                       `json:"pagerank"`
	Communities *algorithms.CommunityResult                           `json:"communities"`
}

// PageRankSummary reports how the power iteration ended
type PageRankSummary struct {
	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`
}
