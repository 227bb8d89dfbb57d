package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
)

// PGSink writes analysis results to PostgreSQL
type PGSink struct {
	pool   *pgxpool.Pool
	policy analysis.ReplacePolicy
}

// PGOptions configures the connection pool
type PGOptions struct {
	MaxConns int32
	Policy   analysis.ReplacePolicy
}

// NewPGSink connects to databaseURL, verifies the connection and creates the
// result tables if they don't exist.
func NewPGSink(ctx context.Context, databaseURL string, opts PGOptions) (*PGSink, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 4
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	policy := opts.Policy
	if policy == "" {
		policy = analysis.PolicyReplace
	}
	s := &PGSink{pool: pool, policy: policy}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// Ping checks database connectivity
func (s *PGSink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PGSink) Close() error {
	s.pool.Close()
	return nil
}

// Name identifies the sink in metrics
func (s *PGSink) Name() string {
	return "postgres"
}

func (s *PGSink) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_results (
		seq BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		vertex_id TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		metric_value DOUBLE PRECISION NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_metric ON analysis_results(analysis_type, metric_name);

	CREATE TABLE IF NOT EXISTS graph_communities (
		seq BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		community_id INTEGER NOT NULL,
		vertex_id TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		modularity DOUBLE PRECISION NOT NULL,
		computed_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_communities_algorithm ON graph_communities(algorithm);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// SaveResults copies result rows in one transaction, superseding earlier
// rows of the same metric under the replace policy.
func (s *PGSink) SaveResults(ctx context.Context, results []analysis.AnalysisResult) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.copyResults(ctx, tx, results)
	})
}

// SaveCommunities copies community assignments in one transaction
func (s *PGSink) SaveCommunities(ctx context.Context, assignments []analysis.CommunityAssignment) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return s.copyCommunities(ctx, tx, assignments)
	})
}

// SaveBatch copies the rows and assignments of one run in a single
// transaction
func (s *PGSink) SaveBatch(ctx context.Context, results []analysis.AnalysisResult, assignments []analysis.CommunityAssignment) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.copyCommunities(ctx, tx, assignments); err != nil {
			return err
		}
		return s.copyResults(ctx, tx, results)
	})
}

func (s *PGSink) copyResults(ctx context.Context, tx pgx.Tx, results []analysis.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	if s.policy == analysis.PolicyReplace {
		for _, key := range resultKeys(results) {
			if _, err := tx.Exec(ctx,
				`DELETE FROM analysis_results WHERE analysis_type = $1 AND metric_name = $2`,
				key[0], key[1]); err != nil {
				return fmt.Errorf("failed to supersede results: %w", err)
			}
		}
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"analysis_results"},
		[]string{"run_id", "vertex_id", "analysis_type", "metric_name", "metric_value", "computed_at"},
		pgx.CopyFromSlice(len(results), func(i int) ([]any, error) {
			r := results[i]
			return []any{r.RunID, r.VertexID, r.AnalysisType, r.MetricName, r.MetricValue, r.ComputedAt.UTC()}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy results: %w", err)
	}
	return nil
}

func (s *PGSink) copyCommunities(ctx context.Context, tx pgx.Tx, assignments []analysis.CommunityAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	if s.policy == analysis.PolicyReplace {
		for _, alg := range communityAlgorithms(assignments) {
			if _, err := tx.Exec(ctx, `DELETE FROM graph_communities WHERE algorithm = $1`, alg); err != nil {
				return fmt.Errorf("failed to supersede communities: %w", err)
			}
		}
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"graph_communities"},
		[]string{"run_id", "community_id", "vertex_id", "algorithm", "modularity", "computed_at"},
		pgx.CopyFromSlice(len(assignments), func(i int) ([]any, error) {
			a := assignments[i]
			return []any{a.RunID, int32(a.CommunityID), a.VertexID, a.Algorithm, a.Modularity, a.ComputedAt.UTC()}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy communities: %w", err)
	}
	return nil
}

// LatestResults returns the rows of the most recent run that wrote the metric
func (s *PGSink) LatestResults(ctx context.Context, analysisType, metricName string) ([]analysis.AnalysisResult, error) {
	query := `
		SELECT run_id, vertex_id, analysis_type, metric_name, metric_value, computed_at
		FROM analysis_results
		WHERE analysis_type = $1 AND metric_name = $2 AND run_id = (
			SELECT run_id FROM analysis_results
			WHERE analysis_type = $1 AND metric_name = $2
			ORDER BY seq DESC LIMIT 1)
		ORDER BY seq
	`

	rows, err := s.pool.Query(ctx, query, analysisType, metricName)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analysis.AnalysisResult, error) {
		var r analysis.AnalysisResult
		err := row.Scan(&r.RunID, &r.VertexID, &r.AnalysisType, &r.MetricName, &r.MetricValue, &r.ComputedAt)
		r.ComputedAt = r.ComputedAt.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return out, nil
}

// LatestCommunities returns the assignments of the most recent run of the algorithm
func (s *PGSink) LatestCommunities(ctx context.Context, algorithm string) ([]analysis.CommunityAssignment, error) {
	query := `
		SELECT run_id, community_id, vertex_id, algorithm, modularity, computed_at
		FROM graph_communities
		WHERE algorithm = $1 AND run_id = (
			SELECT run_id FROM graph_communities WHERE algorithm = $1 ORDER BY seq DESC LIMIT 1)
		ORDER BY seq
	`

	rows, err := s.pool.Query(ctx, query, algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analysis.CommunityAssignment, error) {
		var (
			a  analysis.CommunityAssignment
			id int32
		)
		err := row.Scan(&a.RunID, &id, &a.VertexID, &a.Algorithm, &a.Modularity, &a.ComputedAt)
		a.CommunityID = int(id)
		a.ComputedAt = a.ComputedAt.UTC()
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan communities: %w", err)
	}
	return out, nil
}
