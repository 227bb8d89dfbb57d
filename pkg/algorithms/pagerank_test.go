package algorithms

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// TestPageRank_EmptyGraph tests PageRank on empty graph
func TestPageRank_EmptyGraph(t *testing.T) {
	snap := buildSnapshot(t, nil, graph.DirectionDirected)

	result := PageRank(snap, DefaultPageRankOptions())

	if len(result.Scores) != 0 {
		t.Errorf("Expected 0 scores for empty graph, got %d", len(result.Scores))
	}
	if !result.Converged {
		t.Error("Expected convergence for empty graph")
	}
}

// TestPageRank_SingleVertex tests PageRank on an isolated vertex
func TestPageRank_SingleVertex(t *testing.T) {
	snap := buildSnapshot(t, []string{"A"}, graph.DirectionDirected)

	result := PageRank(snap, DefaultPageRankOptions())

	// First iteration gives (1-d)/1, second gives the same: converged
	want := 1.0 - DefaultDampingFactor
	if got := result.Scores["A"]; !almostEqual(got, want) {
		t.Errorf("Expected score %f, got %f", want, got)
	}
	if !result.Converged {
		t.Error("Expected convergence")
	}
}

// TestPageRank_TwoCycle tests that a symmetric cycle splits rank evenly
func TestPageRank_TwoCycle(t *testing.T) {
	snap := buildSnapshot(t, []string{"A", "B"}, graph.DirectionDirected,
		[2]string{"A", "B"}, [2]string{"B", "A"})

	result := PageRank(snap, DefaultPageRankOptions())

	a, b := result.Scores["A"], result.Scores["B"]
	if !almostEqual(a, 0.5) || !almostEqual(b, 0.5) {
		t.Errorf("Expected 0.5/0.5, got %f/%f", a, b)
	}
}

// TestPageRank_MassConservedWithoutDanglingVertices tests that scores sum to 1
// when every vertex has an outgoing arc
func TestPageRank_MassConservedWithoutDanglingVertices(t *testing.T) {
	snap := buildSnapshot(t, []string{"A", "B", "C", "D"}, graph.DirectionDirected,
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"},
		[2]string{"D", "A"}, [2]string{"A", "D"})

	result := PageRank(snap, DefaultPageRankOptions())

	total := 0.0
	for _, score := range result.Scores {
		total += score
	}
	if math.Abs(total-1.0) > 1e-6 {
		t.Errorf("Expected scores to sum to 1, got %f", total)
	}
}

// TestPageRank_DanglingMassLost tests that a sink vertex leaks rank
func TestPageRank_DanglingMassLost(t *testing.T) {
	snap := buildSnapshot(t, []string{"A", "B"}, graph.DirectionDirected, [2]string{"A", "B"})

	result := PageRank(snap, DefaultPageRankOptions())

	total := result.Scores["A"] + result.Scores["B"]
	if total >= 1.0 {
		t.Errorf("Expected leaked mass, scores sum to %f", total)
	}
	if result.Scores["B"] <= result.Scores["A"] {
		t.Errorf("Expected target to outrank source: A=%f B=%f", result.Scores["A"], result.Scores["B"])
	}

	// A only ever gets the teleport share
	if want := (1 - DefaultDampingFactor) / 2; !almostEqual(result.Scores["A"], want) {
		t.Errorf("Expected A=%f, got %f", want, result.Scores["A"])
	}
}

// TestPageRank_HubReceivesMostRank tests a star pointing into its centre
func TestPageRank_HubReceivesMostRank(t *testing.T) {
	snap := buildSnapshot(t, []string{"hub", "a", "b", "c"}, graph.DirectionDirected,
		[2]string{"a", "hub"}, [2]string{"b", "hub"}, [2]string{"c", "hub"}, [2]string{"hub", "a"})

	result := PageRank(snap, DefaultPageRankOptions())

	top := TopN(result.Scores, 1)
	if len(top) != 1 || top[0].VertexID != "hub" {
		t.Errorf("Expected hub to rank first, got %+v", top)
	}
}

// TestPageRank_IterationBudget tests that the loop stops at MaxIterations
func TestPageRank_IterationBudget(t *testing.T) {
	snap := buildSnapshot(t, []string{"A", "B", "C"}, graph.DirectionDirected,
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "A"}, [2]string{"A", "C"})

	opts := DefaultPageRankOptions()
	opts.MaxIterations = 1
	opts.Tolerance = 1e-15

	result := PageRank(snap, opts)
	if result.Iterations != 1 {
		t.Errorf("Expected 1 iteration, got %d", result.Iterations)
	}
	if result.Converged {
		t.Error("Expected no convergence within one iteration")
	}
}

func TestPageRankOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts PageRankOptions
		want PageRankOptions
	}{
		{"zero value", PageRankOptions{}, PageRankOptions{DampingFactor: 0, MaxIterations: DefaultPageRankIterations, Tolerance: DefaultPageRankTolerance}},
		{"damping above one", PageRankOptions{DampingFactor: 1.5, MaxIterations: 10, Tolerance: 0.1}, PageRankOptions{DampingFactor: DefaultDampingFactor, MaxIterations: 10, Tolerance: 0.1}},
		{"negative damping", PageRankOptions{DampingFactor: -0.1, MaxIterations: 10, Tolerance: 0.1}, PageRankOptions{DampingFactor: DefaultDampingFactor, MaxIterations: 10, Tolerance: 0.1}},
		{"nan damping", PageRankOptions{DampingFactor: math.NaN(), MaxIterations: 5, Tolerance: 0.1}, PageRankOptions{DampingFactor: DefaultDampingFactor, MaxIterations: 5, Tolerance: 0.1}},
		{"kept", DefaultPageRankOptions(), DefaultPageRankOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
