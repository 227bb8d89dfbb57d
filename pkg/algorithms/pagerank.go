package algorithms

import (
	"math"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// PageRank defaults
const (
	DefaultDampingFactor      = 0.85
	DefaultPageRankIterations = 100
	DefaultPageRankTolerance  = 1e-4
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // L-infinity convergence threshold
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: DefaultDampingFactor,
		MaxIterations: DefaultPageRankIterations,
		Tolerance:     DefaultPageRankTolerance,
	}
}

// withDefaults fills zero fields. A damping factor outside [0, 1] is replaced
// by the default.
func (o PageRankOptions) withDefaults() PageRankOptions {
	if o.DampingFactor < 0 || o.DampingFactor > 1 || math.IsNaN(o.DampingFactor) {
		o.DampingFactor = DefaultDampingFactor
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultPageRankIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultPageRankTolerance
	}
	return o
}

// PageRankResult contains PageRank scores for all vertices
type PageRankResult struct {
	Scores     map[string]float64 // Vertex ID -> PageRank score
	Iterations int                // Number of iterations performed
	Converged  bool               // Whether algorithm converged
}

// PageRank computes PageRank scores for all vertices in the snapshot.
//
// Every vertex starts at 1/N. Each iteration a vertex receives (1-d)/N plus d
// times the score of each predecessor divided by that predecessor's out-degree.
// Vertices without outgoing arcs pass nothing on, so the scores of a graph with
// dangling vertices sum to less than 1. Scores are not renormalized.
func PageRank(snap *graph.Snapshot, opts PageRankOptions) *PageRankResult {
	opts = opts.withDefaults()
	n := snap.VertexCount()

	if n == 0 {
		return &PageRankResult{
			Scores:    make(map[string]float64),
			Converged: true,
		}
	}

	scores := make([]float64, n)
	newScores := make([]float64, n)
	initialScore := 1.0 / float64(n)
	for i := range scores {
		scores[i] = initialScore
	}

	outDegree := make([]int, n)
	for i := 0; i < n; i++ {
		outDegree[i] = len(snap.OutAt(i))
	}

	base := (1.0 - opts.DampingFactor) / float64(n)
	converged := false
	iterations := 0

	for iterations < opts.MaxIterations {
		iterations++

		for v := 0; v < n; v++ {
			newScore := base
			for _, u := range snap.InAt(v) {
				if outCount := outDegree[u]; outCount > 0 {
					newScore += opts.DampingFactor * (scores[u] / float64(outCount))
				}
			}
			newScores[v] = newScore
		}

		maxDiff := 0.0
		for v := 0; v < n; v++ {
			if diff := math.Abs(newScores[v] - scores[v]); diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	result := make(map[string]float64, n)
	for i, score := range scores {
		result[snap.IDAt(i)] = score
	}

	return &PageRankResult{
		Scores:     result,
		Iterations: iterations,
		Converged:  converged,
	}
}
