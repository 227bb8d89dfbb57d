package analysis

import (
	"time"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

func densityOf(snap *graph.Snapshot) DensityReport {
	return DensityReport{
		VertexCount: snap.VertexCount(),
		EdgeCount:   snap.EdgeCount(),
		Density:     snap.Density(),
	}
}

// centralityRows flattens scores into one row per vertex in insertion order
func centralityRows(snap *graph.Snapshot, alg algorithms.CentralityAlgorithm, scores map[string]float64, computedAt time.Time, runID string) []AnalysisResult {
	rows := make([]AnalysisResult, 0, snap.VertexCount())
	for i := 0; i < snap.VertexCount(); i++ {
		id := snap.IDAt(i)
		rows = append(rows, AnalysisResult{
			VertexID:     id,
			AnalysisType: TypeCentrality,
			MetricName:   string(alg),
			MetricValue:  scores[id],
			ComputedAt:   computedAt,
			RunID:        runID,
		})
	}
	return rows
}

func communityRows(snap *graph.Snapshot, result *algorithms.CommunityResult, computedAt time.Time, runID string) []CommunityAssignment {
	rows := make([]CommunityAssignment, 0, snap.VertexCount())
	for i := 0; i < snap.VertexCount(); i++ {
		id := snap.IDAt(i)
		rows = append(rows, CommunityAssignment{
			CommunityID: result.Assignments[id],
			VertexID:    id,
			Algorithm:   string(result.Algorithm),
			Modularity:  result.Modularity,
			ComputedAt:  computedAt,
			RunID:       runID,
		})
	}
	return rows
}

// modularityRow carries the whole-partition score; it belongs to no vertex.
func modularityRow(result *algorithms.CommunityResult, computedAt time.Time, runID string) AnalysisResult {
	return AnalysisResult{
		AnalysisType: TypeCommunity,
		MetricName:   MetricModularity,
		MetricValue:  result.Modularity,
		ComputedAt:   computedAt,
		RunID:        runID,
	}
}
