// Package analysis is the caller-facing surface of the analytics engine. A
// Service turns vertex and edge lists into density, centrality and community
// results and hands them to an optional Sink.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
)

// Operation names used in logs and metrics
const (
	OpDensity     = "density"
	OpCentrality  = "centrality"
	OpCommunities = "communities"
	OpRunAll      = "run_all"
)

// Service runs analyses. It holds no graph state between calls and is safe for
// concurrent use.
type Service struct {
	logger     logging.Logger
	metrics    *metrics.Registry
	sink       Sink
	now        func() time.Time
	newRunID   func() string
	centrality algorithms.CentralityOptions
	community  algorithms.CommunityOptions
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics registry
func WithMetrics(registry *metrics.Registry) Option {
	return func(s *Service) { s.metrics = registry }
}

// WithSink sets where results are persisted. Without a sink results are only
// returned.
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock sets the time source for computed_at stamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRunIDs sets the run id generator
func WithRunIDs(next func() string) Option {
	return func(s *Service) { s.newRunID = next }
}

// WithCentralityOptions sets PageRank parameters and worker count
func WithCentralityOptions(opts algorithms.CentralityOptions) Option {
	return func(s *Service) { s.centrality = opts }
}

// WithCommunityOptions sets community detection parameters
func WithCommunityOptions(opts algorithms.CommunityOptions) Option {
	return func(s *Service) { s.community = opts }
}

// NewService creates a Service with defaults for everything not set
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:     logging.DefaultLogger(),
		metrics:    metrics.DefaultRegistry(),
		now:        time.Now,
		newRunID:   uuid.NewString,
		centrality: algorithms.DefaultCentralityOptions(),
		community:  algorithms.DefaultCommunityOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("analysis"))
	return s
}

// GetDensityAndCounts reports vertex count, edge count and structural density
func (s *Service) GetDensityAndCounts(vertices []graph.Vertex, edges []graph.Edge) (DensityReport, error) {
	start := time.Now()
	snap, err := s.snapshot(OpDensity, "", vertices, edges)
	if err != nil {
		return DensityReport{}, err
	}

	report := densityOf(snap)
	s.metrics.RecordRun(OpDensity, "", metrics.StatusSuccess, time.Since(start), report.VertexCount, report.EdgeCount)
	return report, nil
}

// RunCentrality computes the named centrality for every vertex and persists
// one AnalysisResult per vertex when a sink is configured.
func (s *Service) RunCentrality(ctx context.Context, vertices []graph.Vertex, edges []graph.Edge, name string) (map[string]float64, error) {
	alg, err := algorithms.ParseCentralityAlgorithm(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(OpCentrality, string(alg), vertices, edges)
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	scores, _, err := s.centralityOn(ctx, snap, alg, runID)
	if err != nil {
		return nil, err
	}

	computedAt := s.now().UTC()
	if err := s.saveResults(ctx, centralityRows(snap, alg, scores, computedAt, runID)); err != nil {
		return nil, err
	}
	return scores, nil
}

// DetectCommunities partitions the graph with the named algorithm. Assignments
// and a modularity row are persisted when a sink is configured.
func (s *Service) DetectCommunities(ctx context.Context, vertices []graph.Vertex, edges []graph.Edge, name string) (*algorithms.CommunityResult, error) {
	alg, err := algorithms.ParseCommunityAlgorithm(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(OpCommunities, string(alg), vertices, edges)
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	result, err := s.communitiesOn(ctx, snap, alg, runID)
	if err != nil {
		return nil, err
	}

	computedAt := s.now().UTC()
	if err := s.saveCommunities(ctx, snap, result, computedAt, runID); err != nil {
		return nil, err
	}
	return result, nil
}

// Results returns the latest persisted rows for a metric
func (s *Service) Results(ctx context.Context, analysisType, metricName string) ([]AnalysisResult, error) {
	reader, err := s.reader()
	if err != nil {
		return nil, err
	}
	return reader.LatestResults(ctx, analysisType, metricName)
}

// Communities returns the latest persisted assignments of an algorithm
func (s *Service) Communities(ctx context.Context, algorithm string) ([]CommunityAssignment, error) {
	reader, err := s.reader()
	if err != nil {
		return nil, err
	}
	return reader.LatestCommunities(ctx, algorithm)
}

func (s *Service) reader() (Reader, error) {
	if s.sink == nil {
		return nil, ErrNoSink
	}
	reader, ok := s.sink.(Reader)
	if !ok {
		return nil, ErrSinkNotReadable
	}
	return reader, nil
}

// snapshot builds the run's snapshot. Rejections are counted and logged here
// so every operation reports them the same way.
func (s *Service) snapshot(op, alg string, vertices []graph.Vertex, edges []graph.Edge) (*graph.Snapshot, error) {
	snap, err := graph.NewSnapshot(vertices, edges)
	if err != nil {
		s.metrics.RecordRejection(err)
		s.metrics.RecordRun(op, alg, metrics.StatusRejected, 0, len(vertices), len(edges))
		s.logger.Warn("snapshot rejected",
			logging.Operation(op),
			logging.Algorithm(alg),
			logging.String("reason", metrics.RejectionReason(err)),
			logging.VertexCount(len(vertices)),
			logging.EdgeCount(len(edges)),
			logging.Error(err),
		)
		return nil, err
	}
	return snap, nil
}

// centralityOn runs one centrality algorithm and checks ctx once it returns.
// A run cancelled while computing yields ctx's error and no scores.
func (s *Service) centralityOn(ctx context.Context, snap *graph.Snapshot, alg algorithms.CentralityAlgorithm, runID string) (map[string]float64, PageRankSummary, error) {
	timer := logging.StartTimer(s.logger, "centrality computed",
		logging.RunID(runID),
		logging.Algorithm(string(alg)),
		logging.VertexCount(snap.VertexCount()),
		logging.EdgeCount(snap.EdgeCount()),
	)
	start := time.Now()

	var (
		scores  map[string]float64
		summary PageRankSummary
		err     error
	)
	if alg == algorithms.PageRankAlgorithm {
		pr := algorithms.PageRank(snap, s.centrality.PageRank)
		summary = PageRankSummary{Iterations: pr.Iterations, Converged: pr.Converged}
		s.metrics.RecordPageRank(pr.Iterations, pr.Converged)
		if !pr.Converged {
			s.logger.Warn("pagerank did not converge",
				logging.RunID(runID),
				logging.Iterations(pr.Iterations),
			)
		}
		scores = pr.Scores
	} else {
		scores, err = algorithms.RunCentrality(snap, alg, s.centrality)
	}
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		s.metrics.RecordRun(OpCentrality, string(alg), metrics.StatusError, time.Since(start), snap.VertexCount(), snap.EdgeCount())
		timer.EndError(err)
		return nil, PageRankSummary{}, fmt.Errorf("%s: %w", alg, err)
	}

	s.metrics.RecordRun(OpCentrality, string(alg), metrics.StatusSuccess, time.Since(start), snap.VertexCount(), snap.EdgeCount())
	timer.End()
	return scores, summary, nil
}

func (s *Service) communitiesOn(ctx context.Context, snap *graph.Snapshot, alg algorithms.CommunityAlgorithm, runID string) (*algorithms.CommunityResult, error) {
	timer := logging.StartTimer(s.logger, "communities detected",
		logging.RunID(runID),
		logging.Algorithm(string(alg)),
		logging.VertexCount(snap.VertexCount()),
		logging.EdgeCount(snap.EdgeCount()),
	)
	start := time.Now()

	result, err := algorithms.DetectCommunities(snap, alg, s.community)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.metrics.RecordRun(OpCommunities, string(alg), metrics.StatusError, time.Since(start), snap.VertexCount(), snap.EdgeCount())
		timer.EndError(err)
		return nil, fmt.Errorf("%s: %w", alg, err)
	}

	s.metrics.RecordRun(OpCommunities, string(alg), metrics.StatusSuccess, time.Since(start), snap.VertexCount(), snap.EdgeCount())
	s.metrics.RecordCommunities(string(alg), len(result.Communities), result.Modularity)
	timer.End(
		logging.Count(len(result.Communities)),
		logging.Modularity(result.Modularity),
		logging.Iterations(result.Iterations),
	)
	return result, nil
}

func (s *Service) saveResults(ctx context.Context, rows []AnalysisResult) error {
	if s.sink == nil || len(rows) == 0 {
		return nil
	}
	start := time.Now()
	err := s.sink.SaveResults(ctx, rows)
	s.metrics.RecordSinkWrite(sinkName(s.sink), "results", len(rows), time.Since(start), err)
	if err != nil {
		s.logger.Error("saving results failed", logging.Count(len(rows)), logging.Error(err))
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

func (s *Service) saveCommunities(ctx context.Context, snap *graph.Snapshot, result *algorithms.CommunityResult, computedAt time.Time, runID string) error {
	if s.sink == nil {
		return nil
	}

	assignments := communityRows(snap, result, computedAt, runID)
	if len(assignments) > 0 {
		start := time.Now()
		err := s.sink.SaveCommunities(ctx, assignments)
		s.metrics.RecordSinkWrite(sinkName(s.sink), "communities", len(assignments), time.Since(start), err)
		if err != nil {
			s.logger.Error("saving communities failed", logging.Count(len(assignments)), logging.Error(err))
			return fmt.Errorf("save communities: %w", err)
		}
	}

	return s.saveResults(ctx, []AnalysisResult{modularityRow(result, computedAt, runID)})
}

// Named sinks report their name to metrics
type Named interface {
	Name() string
}

func sinkName(sink Sink) string {
	if n, ok := sink.(Named); ok {
		return n.Name()
	}
	return "custom"
}
