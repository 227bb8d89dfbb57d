// Package store holds the persistence adapters of the analytics engine: the
// SQLite vault that is both graph source and result sink, a Postgres result
// sink, and a compressed append-only result journal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/validation"
)

// SQLiteStore is the local vault database. It reads the graph from
// graph_vertices/graph_edges and writes analysis_results/graph_communities.
type SQLiteStore struct {
	db     *sql.DB
	policy analysis.ReplacePolicy
}

// NewSQLiteStore opens (or creates) the vault at dbPath in WAL mode and
// migrates the schema.
func NewSQLiteStore(dbPath string, policy analysis.ReplacePolicy) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// database/sql may open several connections; sqlite serializes writers.
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if policy == "" {
		policy = analysis.PolicyReplace
	}
	s := &SQLiteStore{db: db, policy: policy}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database file is still reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Name identifies the sink in metrics
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

func (s *SQLiteStore) migrate() error {
	// seq columns preserve insertion order, which the algorithms depend on.
	query := `
	CREATE TABLE IF NOT EXISTS graph_vertices (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		properties JSON,
		size REAL NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT '',
		x_position REAL NOT NULL DEFAULT 0,
		y_position REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS graph_edges (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		relationship_type TEXT NOT NULL DEFAULT '',
		weight REAL,
		direction TEXT NOT NULL DEFAULT 'directed',
		properties JSON
	);

	CREATE TABLE IF NOT EXISTS analysis_results (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		vertex_id TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		metric_name TEXT NOT NULL,
		metric_value REAL NOT NULL,
		computed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_metric ON analysis_results(analysis_type, metric_name);

	CREATE TABLE IF NOT EXISTS graph_communities (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		community_id INTEGER NOT NULL,
		vertex_id TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		modularity REAL NOT NULL,
		computed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_communities_algorithm ON graph_communities(algorithm);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// SaveGraph replaces the stored graph with the given vertices and edges
func (s *SQLiteStore) SaveGraph(ctx context.Context, vertices []graph.Vertex, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_edges; DELETE FROM graph_vertices;`); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}

	vstmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_vertices
		(id, label, type, properties, size, color, x_position, y_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vertex insert: %w", err)
	}
	defer vstmt.Close()

	for _, v := range vertices {
		props, err := encodeProperties(v.Properties)
		if err != nil {
			return fmt.Errorf("vertex %q: %w", v.ID, err)
		}
		if _, err := vstmt.ExecContext(ctx, v.ID, v.Label, v.Type, props, v.Size, v.Color, v.XPosition, v.YPosition); err != nil {
			return fmt.Errorf("failed to insert vertex %q: %w", v.ID, err)
		}
	}

	estmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_edges
		(id, source_id, target_id, relationship_type, weight, direction, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer estmt.Close()

	for _, e := range edges {
		props, err := encodeProperties(e.Properties)
		if err != nil {
			return fmt.Errorf("edge %q: %w", e.ID, err)
		}
		var weight any
		if e.ExplicitWeight() {
			weight = e.Weight
		}
		if _, err := estmt.ExecContext(ctx, e.ID, e.SourceID, e.TargetID, e.RelationshipType, weight, e.Direction.String(), props); err != nil {
			return fmt.Errorf("failed to insert edge %q: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// LoadGraph reads the stored graph in insertion order. Rows pass through the
// same validation as graph files; snapshot-level checks happen at analysis
// time.
func (s *SQLiteStore) LoadGraph(ctx context.Context) ([]graph.Vertex, []graph.Edge, error) {
	vertices, err := s.loadVertices(ctx)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.loadEdges(ctx)
	if err != nil {
		return nil, nil, err
	}
	return vertices, edges, nil
}

func (s *SQLiteStore) loadVertices(ctx context.Context) ([]graph.Vertex, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, type, properties, size, color, x_position, y_position
		FROM graph_vertices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vertices: %w", err)
	}
	defer rows.Close()

	var vertices []graph.Vertex
	for rows.Next() {
		var (
			in    validation.VertexInput
			props sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.Label, &in.Type, &props, &in.Size, &in.Color, &in.XPosition, &in.YPosition); err != nil {
			return nil, fmt.Errorf("failed to scan vertex: %w", err)
		}
		if in.Properties, err = decodeProperties(props); err != nil {
			return nil, fmt.Errorf("vertex %q: %w", in.ID, err)
		}
		v, err := validation.ValidateVertexInput(&in)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", in.ID, err)
		}
		vertices = append(vertices, v)
	}
	return vertices, rows.Err()
}

func (s *SQLiteStore) loadEdges(ctx context.Context) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source_id, target_id, relationship_type, weight, direction, properties
		FROM graph_edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var (
			in     validation.EdgeInput
			weight sql.NullFloat64
			props  sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.SourceID, &in.TargetID, &in.RelationshipType, &weight, &in.Direction, &props); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		if weight.Valid {
			in.Weight = &weight.Float64
		}
		if in.Properties, err = decodeProperties(props); err != nil {
			return nil, fmt.Errorf("edge %q: %w", in.ID, err)
		}
		e, err := validation.ValidateEdgeInput(&in)
		if err != nil {
			return nil, fmt.Errorf("edge %q: %w", in.ID, err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// SaveResults writes result rows in one transaction. Under the replace policy
// earlier rows of the same analysis type and metric are deleted first.
func (s *SQLiteStore) SaveResults(ctx context.Context, results []analysis.AnalysisResult) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.writeResults(ctx, tx, results)
	})
}

// SaveCommunities writes community assignments in one transaction. Under the
// replace policy earlier assignments of the same algorithm are deleted first.
func (s *SQLiteStore) SaveCommunities(ctx context.Context, assignments []analysis.CommunityAssignment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.writeCommunities(ctx, tx, assignments)
	})
}

// SaveBatch writes the result rows and assignments of one run in a single
// transaction, so either all of them land or none do.
func (s *SQLiteStore) SaveBatch(ctx context.Context, results []analysis.AnalysisResult, assignments []analysis.CommunityAssignment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.writeCommunities(ctx, tx, assignments); err != nil {
			return err
		}
		return s.writeResults(ctx, tx, results)
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) writeResults(ctx context.Context, tx *sql.Tx, results []analysis.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	if s.policy == analysis.PolicyReplace {
		for _, key := range resultKeys(results) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_results WHERE analysis_type = ? AND metric_name = ?`,
				key[0], key[1]); err != nil {
				return fmt.Errorf("failed to supersede results: %w", err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO analysis_results
		(run_id, vertex_id, analysis_type, metric_name, metric_value, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.VertexID, r.AnalysisType, r.MetricName, r.MetricValue, r.ComputedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) writeCommunities(ctx context.Context, tx *sql.Tx, assignments []analysis.CommunityAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	if s.policy == analysis.PolicyReplace {
		for _, alg := range communityAlgorithms(assignments) {
			if _, err := tx.ExecContext(ctx, `DELETE FROM graph_communities WHERE algorithm = ?`, alg); err != nil {
				return fmt.Errorf("failed to supersede communities: %w", err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_communities
		(run_id, community_id, vertex_id, algorithm, modularity, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare community insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.ExecContext(ctx, a.RunID, a.CommunityID, a.VertexID, a.Algorithm, a.Modularity, a.ComputedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert community assignment: %w", err)
		}
	}
	return nil
}

// LatestResults returns the rows of the most recent run that wrote the metric
func (s *SQLiteStore) LatestResults(ctx context.Context, analysisType, metricName string) ([]analysis.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, vertex_id, analysis_type, metric_name, metric_value, computed_at
		FROM analysis_results
		WHERE analysis_type = ? AND metric_name = ? AND run_id = (
			SELECT run_id FROM analysis_results
			WHERE analysis_type = ? AND metric_name = ?
			ORDER BY seq DESC LIMIT 1)
		ORDER BY seq`, analysisType, metricName, analysisType, metricName)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []analysis.AnalysisResult
	for rows.Next() {
		var (
			r  analysis.AnalysisResult
			at time.Time
		)
		if err := rows.Scan(&r.RunID, &r.VertexID, &r.AnalysisType, &r.MetricName, &r.MetricValue, &at); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.ComputedAt = at.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestCommunities returns the assignments of the most recent run of the algorithm
func (s *SQLiteStore) LatestCommunities(ctx context.Context, algorithm string) ([]analysis.CommunityAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, community_id, vertex_id, algorithm, modularity, computed_at
		FROM graph_communities
		WHERE algorithm = ? AND run_id = (
			SELECT run_id FROM graph_communities WHERE algorithm = ? ORDER BY seq DESC LIMIT 1)
		ORDER BY seq`, algorithm, algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}
	defer rows.Close()

	var out []analysis.CommunityAssignment
	for rows.Next() {
		var (
			a  analysis.CommunityAssignment
			at time.Time
		)
		if err := rows.Scan(&a.RunID, &a.CommunityID, &a.VertexID, &a.Algorithm, &a.Modularity, &at); err != nil {
			return nil, fmt.Errorf("failed to scan community assignment: %w", err)
		}
		a.ComputedAt = at.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func encodeProperties(props graph.Properties) (any, error) {
	if len(props) == 0 {
		return nil, nil
	}
	raw := make(map[string]any, len(props))
	for k, v := range props {
		raw[k] = v.Interface()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(data), nil
}

func decodeProperties(col sql.NullString) (map[string]any, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(col.String), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return raw, nil
}
