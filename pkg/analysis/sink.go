package analysis

import (
	"context"
	"fmt"
	"sync"
)

// Sink persists analysis output. Implementations must be safe for concurrent
// use; RunAll writes from several goroutines.
type Sink interface {
	SaveResults(ctx context.Context, results []AnalysisResult) error
	SaveCommunities(ctx context.Context, assignments []CommunityAssignment) error
}

// BatchSink is implemented by sinks that can write a whole run atomically.
// RunAll uses it when available so a failed write leaves no partial run.
type BatchSink interface {
	SaveBatch(ctx context.Context, results []AnalysisResult, assignments []CommunityAssignment) error
}

// Reader is implemented by sinks that can return earlier results. Each call
// returns the rows of the most recently written run only.
type Reader interface {
	LatestResults(ctx context.Context, analysisType, metricName string) ([]AnalysisResult, error)
	LatestCommunities(ctx context.Context, algorithm string) ([]CommunityAssignment, error)
}

// ReplacePolicy decides what happens to earlier rows of the same metric
type ReplacePolicy string

const (
	// PolicyReplace deletes earlier rows with the same analysis type and
	// metric (or community algorithm) before writing.
	PolicyReplace ReplacePolicy = "replace"
	// PolicyAppend keeps every run; readers pick the latest.
	PolicyAppend ReplacePolicy = "append"
)

// ParseReplacePolicy maps a config value onto a policy. Empty means replace.
func ParseReplacePolicy(s string) (ReplacePolicy, error) {
	switch ReplacePolicy(s) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyAppend:
		return PolicyAppend, nil
	default:
		return "", fmt.Errorf("unknown sink policy %q", s)
	}
}

// resultKey groups rows that supersede each other
type resultKey struct {
	analysisType string
	metricName   string
}

// MemorySink keeps results in process memory
type MemorySink struct {
	mu          sync.RWMutex
	policy      ReplacePolicy
	results     []AnalysisResult
	communities []CommunityAssignment
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink(policy ReplacePolicy) *MemorySink {
	if policy == "" {
		policy = PolicyReplace
	}
	return &MemorySink{policy: policy}
}

// SaveResults stores a batch of result rows
func (m *MemorySink) SaveResults(ctx context.Context, results []AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.policy == PolicyReplace {
		superseded := make(map[resultKey]bool)
		for _, r := range results {
			superseded[resultKey{r.AnalysisType, r.MetricName}] = true
		}
		kept := m.results[:0]
		for _, r := range m.results {
			if !superseded[resultKey{r.AnalysisType, r.MetricName}] {
				kept = append(kept, r)
			}
		}
		m.results = kept
	}
	m.results = append(m.results, results...)
	return nil
}

// SaveCommunities stores a batch of community assignments
func (m *MemorySink) SaveCommunities(ctx context.Context, assignments []CommunityAssignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.policy == PolicyReplace {
		superseded := make(map[string]bool)
		for _, a := range assignments {
			superseded[a.Algorithm] = true
		}
		kept := m.communities[:0]
		for _, a := range m.communities {
			if !superseded[a.Algorithm] {
				kept = append(kept, a)
			}
		}
		m.communities = kept
	}
	m.communities = append(m.communities, assignments...)
	return nil
}

// LatestResults returns the rows of the last run that wrote the metric
func (m *MemorySink) LatestResults(ctx context.Context, analysisType, metricName string) ([]AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	runID, found := "", false
	for i := len(m.results) - 1; i >= 0; i-- {
		r := m.results[i]
		if r.AnalysisType == analysisType && r.MetricName == metricName {
			runID, found = r.RunID, true
			break
		}
	}
	if !found {
		return nil, nil
	}

	var out []AnalysisResult
	for _, r := range m.results {
		if r.AnalysisType == analysisType && r.MetricName == metricName && r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

// LatestCommunities returns the assignments of the last run of the algorithm
func (m *MemorySink) LatestCommunities(ctx context.Context, algorithm string) ([]CommunityAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	runID, found := "", false
	for i := len(m.communities) - 1; i >= 0; i-- {
		if m.communities[i].Algorithm == algorithm {
			runID, found = m.communities[i].RunID, true
			break
		}
	}
	if !found {
		return nil, nil
	}

	var out []CommunityAssignment
	for _, a := range m.communities {
		if a.Algorithm == algorithm && a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Len returns the number of stored result rows and community assignments
func (m *MemorySink) Len() (results, communities int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results), len(m.communities)
}

// Name identifies the sink in metrics
func (m *MemorySink) Name() string {
	return "memory"
}
