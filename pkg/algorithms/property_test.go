package algorithms

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// randomSnapshot decodes each code into an edge between two of n vertices.
// Odd codes produce undirected edges.
func randomSnapshot(n int, codes []int) *graph.Snapshot {
	vertices := make([]graph.Vertex, n)
	for i := range vertices {
		vertices[i] = graph.Vertex{ID: fmt.Sprintf("v%d", i)}
	}
	edges := make([]graph.Edge, 0, len(codes))
	for k, code := range codes {
		dir := graph.DirectionDirected
		if code%2 == 1 {
			dir = graph.DirectionUndirected
		}
		src := (code / 2) % n
		dst := (code / (2 * n)) % n
		edges = append(edges, graph.Edge{
			ID:        fmt.Sprintf("e%d", k),
			SourceID:  vertices[src].ID,
			TargetID:  vertices[dst].ID,
			Direction: dir,
			Weight:    float64(1 + code%3),
		})
	}
	snap, err := graph.NewSnapshot(vertices, edges)
	if err != nil {
		panic(err)
	}
	return snap
}

// TestAnalyticsInvariants checks properties that hold for any valid snapshot
func TestAnalyticsInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("pagerank scores stay within [0, 1] and sum to at most 1", prop.ForAll(
		func(n int, codes []int) bool {
			result := PageRank(randomSnapshot(n, codes), DefaultPageRankOptions())
			total := 0.0
			for _, score := range result.Scores {
				if score < 0 || score > 1 {
					return false
				}
				total += score
			}
			return len(result.Scores) == n && total <= 1.0+1e-9
		},
		gen.IntRange(1, 15),
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.Property("betweenness and closeness are non-negative", prop.ForAll(
		func(n int, codes []int) bool {
			snap := randomSnapshot(n, codes)
			for _, alg := range []CentralityAlgorithm{BetweennessAlgorithm, ClosenessAlgorithm} {
				scores, err := RunCentrality(snap, alg, CentralityOptions{Workers: 3})
				if err != nil || len(scores) != n {
					return false
				}
				for _, s := range scores {
					if s < 0 || math.IsNaN(s) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 15),
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.Property("community ids are canonical and modularity is consistent", prop.ForAll(
		func(n int, codes []int) bool {
			snap := randomSnapshot(n, codes)
			opts := DefaultCommunityOptions()
			opts.LocalMoving = true
			for _, alg := range CommunityAlgorithms {
				result, err := DetectCommunities(snap, alg, opts)
				if err != nil {
					return false
				}
				// First appearance order gives ids 0, 1, 2, ...
				next := 0
				for _, id := range snap.VertexIDs() {
					c := result.Assignments[id]
					if c > next {
						return false
					}
					if c == next {
						next++
					}
				}
				if next != len(result.Communities) {
					return false
				}
				if math.Abs(result.Modularity-Modularity(snap, result.Assignments)) > 1e-12 {
					return false
				}
				if result.Modularity < -1 || result.Modularity > 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 15),
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.Property("local moving never lowers modularity below the singleton baseline", prop.ForAll(
		func(n int, codes []int) bool {
			snap := randomSnapshot(n, codes)
			opts := DefaultCommunityOptions()
			opts.LocalMoving = true
			result, err := DetectCommunities(snap, LouvainAlgorithm, opts)
			if err != nil {
				return false
			}
			return result.Modularity >= Modularity(snap, SingletonPartition(snap))-1e-9
		},
		gen.IntRange(1, 15),
		gen.SliceOf(gen.IntRange(0, 500)),
	))

	properties.TestingRun(t)
}
