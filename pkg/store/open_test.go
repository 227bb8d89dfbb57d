package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/config"
)

func TestOpenSink(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.SinkConfig
		want any
	}{
		{"memory", config.SinkConfig{Kind: config.SinkMemory}, &analysis.MemorySink{}},
		{"default", config.SinkConfig{}, &analysis.MemorySink{}},
		{"sqlite", config.SinkConfig{Kind: config.SinkSQLite, Path: filepath.Join(dir, "vault.db")}, &SQLiteStore{}},
		{"journal", config.SinkConfig{Kind: config.SinkJournal, Path: filepath.Join(dir, "run.journal"), Policy: config.PolicyAppend}, &JournalSink{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, closeFn, err := OpenSink(context.Background(), tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, closeFn)
			defer closeFn()
			assert.IsType(t, tt.want, sink)
		})
	}
}

func TestOpenSinkErrors(t *testing.T) {
	_, _, err := OpenSink(context.Background(), config.SinkConfig{Kind: "redis"})
	assert.Error(t, err)

	_, _, err = OpenSink(context.Background(), config.SinkConfig{Kind: config.SinkMemory, Policy: "merge"})
	assert.Error(t, err)
}
