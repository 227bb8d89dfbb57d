// Package config loads the analytics engine configuration from a YAML (or
// JSON) file and GRAPH_ANALYTICS_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/validation"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GRAPH_ANALYTICS_"

// Sink kinds
const (
	SinkMemory   = "memory"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkJournal  = "journal"
)

// Sink write policies
const (
	PolicyReplace = "replace"
	PolicyAppend  = "append"
)

// SinkKinds lists the supported sink kinds
var SinkKinds = []string{SinkMemory, SinkSQLite, SinkPostgres, SinkJournal}

// Config is the top-level configuration
type Config struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Sink   SinkConfig   `json:"sink" yaml:"sink"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// EngineConfig tunes the algorithms
type EngineConfig struct {
	Damping             float64 `json:"damping" yaml:"damping"`
	MaxIterations       int     `json:"max_iterations" yaml:"max_iterations"`
	Tolerance           float64 `json:"tolerance" yaml:"tolerance"`
	Workers             int     `json:"workers" yaml:"workers"` // 0 = one per CPU
	LocalMoving         bool    `json:"local_moving" yaml:"local_moving"`
	CommunityIterations int     `json:"community_iterations" yaml:"community_iterations"`
}

// SinkConfig selects where results are written
type SinkConfig struct {
	Kind     string `json:"kind" yaml:"kind"`
	Path     string `json:"path" yaml:"path"` // sqlite database or journal file
	DSN      string `json:"dsn" yaml:"dsn"`   // postgres connection string
	Policy   string `json:"policy" yaml:"policy"`
	MaxConns int    `json:"max_conns" yaml:"max_conns"`
}

// LogConfig configures the JSON logger
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Damping:             algorithms.DefaultDampingFactor,
			MaxIterations:       algorithms.DefaultPageRankIterations,
			Tolerance:           algorithms.DefaultPageRankTolerance,
			CommunityIterations: algorithms.DefaultCommunityIterations,
		},
		Sink: SinkConfig{
			Kind:     SinkMemory,
			Policy:   PolicyReplace,
			MaxConns: 4,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load starts from Default, merges the file at path (if path is non-empty),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// YAML first; a JSON document that YAML rejects gets a second chance
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): YAML error: %v, JSON error: %w", path, err, jsonErr)
		}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = i
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	float("DAMPING", &cfg.Engine.Damping)
	integer("MAX_ITERATIONS", &cfg.Engine.MaxIterations)
	float("TOLERANCE", &cfg.Engine.Tolerance)
	integer("WORKERS", &cfg.Engine.Workers)
	boolean("LOCAL_MOVING", &cfg.Engine.LocalMoving)
	integer("COMMUNITY_ITERATIONS", &cfg.Engine.CommunityIterations)
	str("SINK_KIND", &cfg.Sink.Kind)
	str("SINK_PATH", &cfg.Sink.Path)
	str("SINK_DSN", &cfg.Sink.DSN)
	str("SINK_POLICY", &cfg.Sink.Policy)
	integer("SINK_MAX_CONNS", &cfg.Sink.MaxConns)
	str("LOG_LEVEL", &cfg.Log.Level)

	return errors.Join(errs...)
}

// Validate checks every section and reports all failures together
func (c Config) Validate() error {
	return errors.Join(c.Engine.Validate(), c.Sink.Validate())
}

// Validate checks the engine section
func (e EngineConfig) Validate() error {
	return validation.NewConfigValidator("engine").
		RangeFloat("damping", e.Damping, 0, 1).
		RangeInt("max_iterations", e.MaxIterations, 1, 1000).
		PositiveFloat("tolerance", e.Tolerance).
		NonNegative("workers", e.Workers).
		RangeInt("community_iterations", e.CommunityIterations, 1, 1000).
		Validate()
}

// Validate checks the sink section
func (s SinkConfig) Validate() error {
	return validation.NewConfigValidator("sink").
		OneOf("kind", s.Kind, SinkKinds).
		OneOf("policy", s.Policy, []string{PolicyReplace, PolicyAppend}).
		When(s.Kind == SinkSQLite || s.Kind == SinkJournal, func(v *validation.ConfigValidator) {
			v.Required("path", s.Path)
		}).
		When(s.Kind == SinkPostgres, func(v *validation.ConfigValidator) {
			v.Required("dsn", s.DSN).RangeInt("max_conns", s.MaxConns, 1, 100)
		}).
		Validate()
}

// CentralityOptions maps the engine section onto algorithm options
func (e EngineConfig) CentralityOptions() algorithms.CentralityOptions {
	return algorithms.CentralityOptions{
		PageRank: algorithms.PageRankOptions{
			DampingFactor: e.Damping,
			MaxIterations: e.MaxIterations,
			Tolerance:     e.Tolerance,
		},
		Workers: e.Workers,
	}
}

// CommunityOptions maps the engine section onto community options
func (e EngineConfig) CommunityOptions() algorithms.CommunityOptions {
	opts := algorithms.DefaultCommunityOptions()
	opts.LocalMoving = e.LocalMoving
	opts.MaxIterations = validation.DefaultOr(e.CommunityIterations, algorithms.DefaultCommunityIterations)
	return opts
}
