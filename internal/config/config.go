// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/rankengine/internal/domain/model"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// CriterionConfig seeds one evaluation criterion at startup.
type CriterionConfig struct {
	ID           string  `koanf:"id"`
	Name         string  `koanf:"name"`
	Description  string  `koanf:"description"`
	Weight       float64 `koanf:"weight"`
	Direction    string  `koanf:"direction"`
	DisplayOrder int     `koanf:"display_order"`
	Active       bool    `koanf:"active"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageDriver selects memory, sqlite or postgres.
	StorageDriver string `koanf:"storage_driver"`
	// StorageDSN is passed to the SQL driver.
	StorageDSN string `koanf:"storage_dsn"`

	// QueueSize bounds the recompute job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`
	// MaxAttempts bounds retries of one recompute unit.
	MaxAttempts int `koanf:"max_attempts"`
	// RecomputeIntervalSec triggers a full recompute periodically; 0 disables it.
	RecomputeIntervalSec int `koanf:"recompute_interval_sec"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// StrengthThreshold and SuggestionThreshold drive the insight generator.
	StrengthThreshold   float64 `koanf:"strength_threshold"`
	SuggestionThreshold float64 `koanf:"suggestion_threshold"`

	// AbsenceCriterion and LateCriterion name the criteria feeding the
	// derived absence and lateness counters.
	AbsenceCriterion string `koanf:"absence_criterion"`
	LateCriterion    string `koanf:"late_criterion"`

	// Criteria seeds the registry on startup.
	Criteria []CriterionConfig `koanf:"criteria"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StorageDriver:        DriverMemory,
		QueueSize:            1_024,
		WorkerCount:          runtime.NumCPU(),
		MaxAttempts:          3,
		RecomputeIntervalSec: 0,
		MaxRankingLimit:      500,
		StrengthThreshold:    80,
		SuggestionThreshold:  60,
		AbsenceCriterion:     "Assiduidade",
		LateCriterion:        "Pontualidade",
		Criteria: []CriterionConfig{
			{ID: "produtividade", Name: "Produtividade", Weight: 30, Direction: string(model.HigherBetter), DisplayOrder: 1, Active: true},
			{ID: "qualidade", Name: "Qualidade", Weight: 25, Direction: string(model.HigherBetter), DisplayOrder: 2, Active: true},
			{ID: "assiduidade", Name: "Assiduidade", Weight: 20, Direction: string(model.HigherBetter), DisplayOrder: 3, Active: true},
			{ID: "pontualidade", Name: "Pontualidade", Weight: 15, Direction: string(model.LowerBetter), DisplayOrder: 4, Active: true},
			{ID: "trabalho_equipe", Name: "Trabalho em equipe", Weight: 10, Direction: string(model.HigherBetter), DisplayOrder: 5, Active: true},
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StrengthThreshold < 0 || c.StrengthThreshold > 100:
		return fmt.Errorf("%w: strength_threshold must be within [0,100]", ErrInvalidConfig)
	case c.SuggestionThreshold < 0 || c.SuggestionThreshold > 100:
		return fmt.Errorf("%w: suggestion_threshold must be within [0,100]", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StorageDriver) {
	case DriverMemory, DriverSQLite, DriverPostgres, "postgresql":
	default:
		return fmt.Errorf("%w: unsupported storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	return nil
}

// SeedCriteria validates the configured criteria.
func (c *Config) SeedCriteria() ([]model.Criterion, error) {
	out := make([]model.Criterion, 0, len(c.Criteria))
	for _, cc := range c.Criteria {
		crit, err := model.NewCriterion(model.Criterion{
			ID:           cc.ID,
			Name:         cc.Name,
			Description:  cc.Description,
			Weight:       cc.Weight,
			Direction:    model.Direction(cc.Direction),
			DisplayOrder: cc.DisplayOrder,
			Active:       cc.Active,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out = append(out, crit)
	}
	return out, nil
}
