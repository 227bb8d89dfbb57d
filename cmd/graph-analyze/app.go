package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-analytics/pkg/analysis"
	"github.com/dd0wney/cluso-analytics/pkg/config"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
	"github.com/dd0wney/cluso-analytics/pkg/store"
)

var errNoGraphSource = errors.New("no graph source: pass --graph or --vault")

// app carries the flags and the wiring shared by every subcommand
type app struct {
	configPath   string
	graphPath    string
	vaultPath    string
	logLevel     string
	jsonOut      bool
	printMetrics bool

	cfg      config.Config
	logger   logging.Logger
	registry *metrics.Registry
	service  *analysis.Service
	sink     analysis.Sink
	vault    *store.SQLiteStore
	closers  []func() error
}

// setup loads configuration and opens the vault and sink. The vault doubles
// as the result sink unless the configuration names another one.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), logging.ParseLevel(level))
	a.registry = metrics.NewRegistry()

	policy, err := analysis.ParseReplacePolicy(cfg.Sink.Policy)
	if err != nil {
		return err
	}

	var sink analysis.Sink
	if a.vaultPath != "" {
		a.vault, err = store.NewSQLiteStore(a.vaultPath, policy)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, a.vault.Close)
	}

	if a.vault != nil && cfg.Sink.Kind == config.SinkMemory {
		sink = a.vault
	} else {
		s, closeFn, err := store.OpenSink(cmd.Context(), cfg.Sink)
		if err != nil {
			return err
		}
		sink = s
		a.closers = append(a.closers, closeFn)
	}

	a.sink = sink
	a.service = analysis.NewService(
		analysis.WithLogger(a.logger),
		analysis.WithMetrics(a.registry),
		analysis.WithSink(sink),
		analysis.WithCentralityOptions(cfg.Engine.CentralityOptions()),
		analysis.WithCommunityOptions(cfg.Engine.CommunityOptions()),
	)

	a.logger.Debug("configured",
		logging.Path(a.configPath),
		logging.String("sink", cfg.Sink.Kind),
		logging.String("policy", string(policy)),
	)
	return nil
}

// teardown prints metrics when asked and closes sinks in reverse order
func (a *app) teardown(cmd *cobra.Command) error {
	var errs []error
	if a.printMetrics && a.registry != nil {
		a.registry.UpdateSystemMetrics()
		if err := writeMetrics(cmd.ErrOrStderr(), a.registry); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// loadGraph reads the graph file when given, otherwise the vault
func (a *app) loadGraph(ctx context.Context) ([]graph.Vertex, []graph.Edge, error) {
	switch {
	case a.graphPath != "":
		return store.LoadGraphFile(a.graphPath)
	case a.vault != nil:
		return a.vault.LoadGraph(ctx)
	default:
		return nil, nil, errNoGraphSource
	}
}

func (a *app) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMetrics(w io.Writer, registry *metrics.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
