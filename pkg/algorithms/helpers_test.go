package algorithms

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

const epsilon = 1e-9

// buildSnapshot creates a snapshot from vertex ids and (source, target) pairs.
func buildSnapshot(t *testing.T, ids []string, dir graph.Direction, pairs ...[2]string) *graph.Snapshot {
	t.Helper()

	vertices := make([]graph.Vertex, len(ids))
	for i, id := range ids {
		vertices[i] = graph.Vertex{ID: id, Label: id}
	}
	edges := make([]graph.Edge, len(pairs))
	for i, p := range pairs {
		edges[i] = graph.Edge{
			ID:        p[0] + "-" + p[1],
			SourceID:  p[0],
			TargetID:  p[1],
			Direction: dir,
		}
	}

	snap, err := graph.NewSnapshot(vertices, edges)
	if err != nil {
		t.Fatalf("Failed to build snapshot: %v", err)
	}
	return snap
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}
