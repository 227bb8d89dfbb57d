package store

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/config"
	"github.com/dd0wney/cluso-analytics/pkg/wal"
)

// OpenSink builds the result sink a configuration selects. The returned
// close function is never nil.
func OpenSink(ctx context.Context, cfg config.SinkConfig) (analysis.Sink, func() error, error) {
	policy, err := analysis.ParseReplacePolicy(cfg.Policy)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Kind {
	case "", config.SinkMemory:
		return analysis.NewMemorySink(policy), func() error { return nil }, nil
	case config.SinkSQLite:
		s, err := NewSQLiteStore(cfg.Path, policy)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.SinkPostgres:
		s, err := NewPGSink(ctx, cfg.DSN, PGOptions{MaxConns: int32(cfg.MaxConns), Policy: policy})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.SinkJournal:
		s, err := NewJournalSink(cfg.Path, wal.Options{})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}
