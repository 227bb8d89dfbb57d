package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/wal"
)

// JournalSink appends each batch as one compressed journal record. The
// journal is append-only, so the replace policy is applied when reading:
// only the latest run of a metric is returned.
type JournalSink struct {
	journal *wal.Journal
}

// NewJournalSink opens the journal file at path
func NewJournalSink(path string, opts wal.Options) (*JournalSink, error) {
	j, err := wal.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &JournalSink{journal: j}, nil
}

// Close closes the journal
func (s *JournalSink) Close() error {
	return s.journal.Close()
}

// Name identifies the sink in metrics
func (s *JournalSink) Name() string {
	return "journal"
}

// Stats returns the journal's compression statistics
func (s *JournalSink) Stats() wal.Stats {
	return s.journal.Stats()
}

// Verify reads every record back and checks its checksum. It returns the
// number of intact records.
func (s *JournalSink) Verify(ctx context.Context) (int, error) {
	count := 0
	err := s.journal.Replay(func(*wal.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// SaveResults appends a batch of result rows
func (s *JournalSink) SaveResults(ctx context.Context, results []analysis.AnalysisResult) error {
	return s.append(ctx, wal.KindResults, results)
}

// SaveCommunities appends a batch of community assignments
func (s *JournalSink) SaveCommunities(ctx context.Context, assignments []analysis.CommunityAssignment) error {
	return s.append(ctx, wal.KindCommunities, assignments)
}

func (s *JournalSink) append(ctx context.Context, kind wal.RecordKind, batch any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode %s batch: %w", kind, err)
	}
	if _, err := s.journal.Append(kind, data); err != nil {
		return err
	}
	return nil
}

// LatestResults replays the journal and returns the rows of the last run that
// wrote the metric
func (s *JournalSink) LatestResults(ctx context.Context, analysisType, metricName string) ([]analysis.AnalysisResult, error) {
	var all []analysis.AnalysisResult
	err := s.replay(ctx, wal.KindResults, func(data []byte) error {
		var batch []analysis.AnalysisResult
		if err := json.Unmarshal(data, &batch); err != nil {
			return err
		}
		for _, r := range batch {
			if r.AnalysisType == analysisType && r.MetricName == metricName {
				all = append(all, r)
			}
		}
		return nil
	})
	if err != nil || len(all) == 0 {
		return nil, err
	}

	runID := all[len(all)-1].RunID
	out := make([]analysis.AnalysisResult, 0, len(all))
	for _, r := range all {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

// LatestCommunities replays the journal and returns the assignments of the
// last run of the algorithm
func (s *JournalSink) LatestCommunities(ctx context.Context, algorithm string) ([]analysis.CommunityAssignment, error) {
	var all []analysis.CommunityAssignment
	err := s.replay(ctx, wal.KindCommunities, func(data []byte) error {
		var batch []analysis.CommunityAssignment
		if err := json.Unmarshal(data, &batch); err != nil {
			return err
		}
		for _, a := range batch {
			if a.Algorithm == algorithm {
				all = append(all, a)
			}
		}
		return nil
	})
	if err != nil || len(all) == 0 {
		return nil, err
	}

	runID := all[len(all)-1].RunID
	out := make([]analysis.CommunityAssignment, 0, len(all))
	for _, a := range all {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *JournalSink) replay(ctx context.Context, kind wal.RecordKind, decode func([]byte) error) error {
	return s.journal.Replay(func(e *wal.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Kind != kind {
			return nil
		}
		if err := decode(e.Data); err != nil {
			return fmt.Errorf("journal entry %d: %w", e.Seq, err)
		}
		return nil
	})
}
