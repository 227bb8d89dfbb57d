package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
)

func openVault(t *testing.T, policy analysis.ReplacePolicy) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	s, err := NewSQLiteStore(path, policy)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func countRows(t *testing.T, s *SQLiteStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteStoreContract(t *testing.T) {
	s, _ := openVault(t, analysis.PolicyAppend)
	testSinkContract(t, s)
}

func TestSQLiteStoreReplacePolicy(t *testing.T) {
	ctx := context.Background()
	s, _ := openVault(t, analysis.PolicyReplace)

	require.NoError(t, s.SaveResults(ctx, pagerankRows("run-1", "A", "B", "C")))
	require.NoError(t, s.SaveResults(ctx, pagerankRows("run-2", "A", "B", "C")))
	assert.Equal(t, 3, countRows(t, s, "analysis_results"))

	require.NoError(t, s.SaveCommunities(ctx, louvainRows("run-1", "A", "B")))
	require.NoError(t, s.SaveCommunities(ctx, louvainRows("run-2", "A", "B")))
	assert.Equal(t, 2, countRows(t, s, "graph_communities"))
}

func TestSQLiteStoreAppendPolicy(t *testing.T) {
	ctx := context.Background()
	s, _ := openVault(t, analysis.PolicyAppend)

	require.NoError(t, s.SaveResults(ctx, pagerankRows("run-1", "A", "B", "C")))
	require.NoError(t, s.SaveResults(ctx, pagerankRows("run-2", "A", "B", "C")))
	assert.Equal(t, 6, countRows(t, s, "analysis_results"))
}

func TestSQLiteStoreSaveBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := openVault(t, analysis.PolicyReplace)

	require.NoError(t, s.SaveBatch(ctx, pagerankRows("run-1", "A", "B"), louvainRows("run-1", "A", "B")))
	assert.Equal(t, 2, countRows(t, s, "analysis_results"))
	assert.Equal(t, 2, countRows(t, s, "graph_communities"))

	_, err := s.db.Exec(`CREATE TRIGGER reject_modularity BEFORE INSERT ON analysis_results
		WHEN NEW.metric_name = 'modularity'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	results := append(pagerankRows("run-2", "A", "B"), analysis.AnalysisResult{
		AnalysisType: analysis.TypeCommunity,
		MetricName:   "modularity",
		ComputedAt:   computedAt,
		RunID:        "run-2",
	})
	err = s.SaveBatch(ctx, results, louvainRows("run-2", "A", "B"))
	require.Error(t, err)

	rows, err := s.LatestResults(ctx, analysis.TypeCentrality, "pagerank")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "run-1", rows[0].RunID, "failed batch leaves the earlier run")

	assignments, err := s.LatestCommunities(ctx, "louvain")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "run-1", assignments[0].RunID)
}

func TestSQLiteStoreGraphRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := openVault(t, analysis.PolicyReplace)

	vertices := []graph.Vertex{
		{ID: "ideas", Label: "Ideas", Type: "note", Color: "#ff0000", Size: 2,
			Properties: graph.Properties{"stars": graph.IntValue(3), "pinned": graph.BoolValue(true)}},
		{ID: "garden", Label: "Garden"},
		{ID: "tools", Label: "Tools", XPosition: 10, YPosition: -4},
	}
	edges := []graph.Edge{
		{ID: "e1", SourceID: "ideas", TargetID: "garden", RelationshipType: "links_to"},
		(graph.Edge{ID: "e2", SourceID: "garden", TargetID: "tools", Direction: graph.DirectionUndirected}).WithWeight(0),
		{ID: "e3", SourceID: "tools", TargetID: "ideas", Weight: 2.5},
	}
	require.NoError(t, s.SaveGraph(ctx, vertices, edges))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, analysis.PolicyReplace)
	require.NoError(t, err)
	defer reopened.Close()

	gotV, gotE, err := reopened.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, gotV, 3)
	require.Len(t, gotE, 3)

	for i := range vertices {
		assert.Equal(t, vertices[i].ID, gotV[i].ID, "insertion order kept")
	}
	stars, ok := gotV[0].Properties["stars"]
	require.True(t, ok)
	f, err := stars.AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
	assert.Equal(t, "#ff0000", gotV[0].Color)
	assert.Equal(t, -4.0, gotV[2].YPosition)

	snap, err := graph.NewSnapshot(gotV, gotE)
	require.NoError(t, err)
	ab, ok := snap.Arc("ideas", "garden")
	require.True(t, ok)
	assert.Equal(t, graph.DefaultEdgeWeight, ab.Weight, "unset weight defaults")
	bc, ok := snap.Arc("tools", "garden")
	require.True(t, ok, "undirected edge traversable both ways")
	assert.Equal(t, 0.0, bc.Weight, "explicit zero weight survives")
	ca, ok := snap.Arc("tools", "ideas")
	require.True(t, ok)
	assert.Equal(t, 2.5, ca.Weight)
}

func TestSQLiteStoreSaveGraphReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := openVault(t, analysis.PolicyReplace)

	require.NoError(t, s.SaveGraph(ctx, []graph.Vertex{{ID: "a"}, {ID: "b"}}, nil))
	require.NoError(t, s.SaveGraph(ctx, []graph.Vertex{{ID: "c"}}, nil))

	v, e, err := s.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, "c", v[0].ID)
	assert.Empty(t, e)
}

func TestSQLiteStoreWithService(t *testing.T) {
	ctx := context.Background()
	s, _ := openVault(t, analysis.PolicyReplace)

	vertices := []graph.Vertex{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	edges := []graph.Edge{
		{ID: "ab", SourceID: "A", TargetID: "B"},
		{ID: "bc", SourceID: "B", TargetID: "C"},
	}
	require.NoError(t, s.SaveGraph(ctx, vertices, edges))

	run := 0
	svc := analysis.NewService(
		analysis.WithLogger(logging.NewNopLogger()),
		analysis.WithMetrics(metrics.NewRegistry()),
		analysis.WithSink(s),
		analysis.WithClock(func() time.Time { return computedAt }),
		analysis.WithRunIDs(func() string { run++; return fmt.Sprintf("run-%d", run) }),
	)

	v, e, err := s.LoadGraph(ctx)
	require.NoError(t, err)

	scores, err := svc.RunCentrality(ctx, v, e, "betweenness")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores["B"], 1e-12)

	rows, err := svc.Results(ctx, analysis.TypeCentrality, "betweenness")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "B", rows[1].VertexID)
	assert.InDelta(t, 1.0, rows[1].MetricValue, 1e-12)
	assert.Equal(t, computedAt, rows[1].ComputedAt)

	_, err = svc.DetectCommunities(ctx, v, e, "connected_components")
	require.NoError(t, err)
	assignments, err := svc.Communities(ctx, "connected_components")
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	for _, a := range assignments {
		assert.Equal(t, 0, a.CommunityID)
		assert.Equal(t, "run-2", a.RunID)
	}
}
