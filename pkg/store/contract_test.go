package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
)

var computedAt = time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)

type readableSink interface {
	analysis.Sink
	analysis.Reader
}

func pagerankRows(runID string, ids ...string) []analysis.AnalysisResult {
	rows := make([]analysis.AnalysisResult, len(ids))
	for i, id := range ids {
		rows[i] = analysis.AnalysisResult{
			VertexID:     id,
			AnalysisType: analysis.TypeCentrality,
			MetricName:   "pagerank",
			MetricValue:  0.25 * float64(i+1),
			ComputedAt:   computedAt,
			RunID:        runID,
		}
	}
	return rows
}

func louvainRows(runID string, ids ...string) []analysis.CommunityAssignment {
	rows := make([]analysis.CommunityAssignment, len(ids))
	for i, id := range ids {
		rows[i] = analysis.CommunityAssignment{
			CommunityID: i % 2,
			VertexID:    id,
			Algorithm:   "louvain",
			Modularity:  0.42,
			ComputedAt:  computedAt,
			RunID:       runID,
		}
	}
	return rows
}

// testSinkContract checks the behaviour every readable sink shares: latest
// run wins on read, rows keep insertion order, metrics don't mix.
func testSinkContract(t *testing.T, sink readableSink) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, sink.SaveResults(ctx, pagerankRows("run-1", "A", "B", "C")))
	require.NoError(t, sink.SaveResults(ctx, pagerankRows("run-2", "C", "A")))
	require.NoError(t, sink.SaveCommunities(ctx, louvainRows("run-1", "A", "B", "C")))

	results, err := sink.LatestResults(ctx, analysis.TypeCentrality, "pagerank")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, pagerankRows("run-2", "C", "A"), results)

	none, err := sink.LatestResults(ctx, analysis.TypeCentrality, "closeness")
	require.NoError(t, err)
	assert.Empty(t, none)

	communities, err := sink.LatestCommunities(ctx, "louvain")
	require.NoError(t, err)
	assert.Equal(t, louvainRows("run-1", "A", "B", "C"), communities)

	none2, err := sink.LatestCommunities(ctx, "label_propagation")
	require.NoError(t, err)
	assert.Empty(t, none2)
}
