package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
)

// RunAll builds one snapshot and runs density, every centrality algorithm and
// Louvain on it concurrently. All rows are persisted under one run id once
// every analysis has succeeded; the first failure cancels the rest.
func (s *Service) RunAll(ctx context.Context, vertices []graph.Vertex, edges []graph.Edge) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(OpRunAll, "", vertices, edges)
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	timer := logging.StartTimer(s.logger, "analysis run completed",
		logging.RunID(runID),
		logging.VertexCount(snap.VertexCount()),
		logging.EdgeCount(snap.EdgeCount()),
	)

	report := &Report{
		RunID:      runID,
		Density:    densityOf(snap),
		Centrality: make(map[algorithms.CentralityAlgorithm]map[string]float64, len(algorithms.CentralityAlgorithms)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, alg := range algorithms.CentralityAlgorithms {
		g.Go(func() error {
			scores, summary, err := s.centralityOn(gctx, snap, alg, runID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			report.Centrality[alg] = scores
			if alg == algorithms.PageRankAlgorithm {
				report.PageRank = summary
			}
			return nil
		})
	}

	g.Go(func() error {
		result, err := s.communitiesOn(gctx, snap, algorithms.LouvainAlgorithm, runID)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		report.Communities = result
		return nil
	})

	if err := g.Wait(); err != nil {
		timer.EndError(err)
		return nil, err
	}

	report.ComputedAt = s.now().UTC()
	if err := s.persistRun(ctx, snap, report, runID); err != nil {
		timer.EndError(err)
		return nil, err
	}

	timer.End(logging.Float64("density", report.Density.Density))
	return report, nil
}

// persistRun writes every row of a combined run. A batch sink receives them
// in one call; other sinks get one call per metric and may keep the batches
// written before a failure.
func (s *Service) persistRun(ctx context.Context, snap *graph.Snapshot, report *Report, runID string) error {
	batch, ok := s.sink.(BatchSink)
	if !ok {
		for _, alg := range algorithms.CentralityAlgorithms {
			rows := centralityRows(snap, alg, report.Centrality[alg], report.ComputedAt, runID)
			if err := s.saveResults(ctx, rows); err != nil {
				return err
			}
		}
		return s.saveCommunities(ctx, snap, report.Communities, report.ComputedAt, runID)
	}

	var results []AnalysisResult
	for _, alg := range algorithms.CentralityAlgorithms {
		results = append(results, centralityRows(snap, alg, report.Centrality[alg], report.ComputedAt, runID)...)
	}
	results = append(results, modularityRow(report.Communities, report.ComputedAt, runID))
	assignments := communityRows(snap, report.Communities, report.ComputedAt, runID)

	start := time.Now()
	err := batch.SaveBatch(ctx, results, assignments)
	s.metrics.RecordSinkWrite(sinkName(s.sink), "batch", len(results)+len(assignments), time.Since(start), err)
	if err != nil {
		s.logger.Error("saving run failed", logging.Count(len(results)+len(assignments)), logging.Error(err))
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}
