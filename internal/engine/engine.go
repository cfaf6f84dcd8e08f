// Package engine orchestrates the ranking pipeline.
//
// An Engine pulls a consistent snapshot from its sources (criteria,
// measurements, employee directory and, for variation, the persisted ranking
// of the preceding period) and then runs the pure domain pipeline:
// normalization and weighting, consolidation, ranking, insights and derived
// counters. It holds no mutable state between calls.
package engine

import (
	"context"

	"github.com/okian/rankengine/internal/domain/derived"
	"github.com/okian/rankengine/internal/domain/insight"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
)

// CriteriaSource provides the criteria registry contents.
type CriteriaSource interface {
	Criteria(ctx context.Context) ([]model.Criterion, error)
}

// MeasurementSource provides raw measurements for a scope.
type MeasurementSource interface {
	Measurements(ctx context.Context, q model.MeasurementQuery) ([]model.Measurement, error)
}

// EmployeeDirectory resolves employee identity fields.
type EmployeeDirectory interface {
	Employees(ctx context.Context) ([]model.Employee, error)
}

// HistorySource returns the persisted ranking of a period.
// An empty result means no ranking was persisted.
type HistorySource interface {
	Ranking(ctx context.Context, period model.Period) ([]model.RankingResult, error)
}

// Engine computes rankings from pulled snapshots.
type Engine struct {
	criteria     CriteriaSource
	measurements MeasurementSource
	directory    EmployeeDirectory
	history      HistorySource

	insights *insight.Generator
	derived  derived.Table
	logger   logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithInsightGenerator replaces the default insight generator.
func WithInsightGenerator(g *insight.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.insights = g
		}
	}
}

// WithDerivedTable replaces the default derived-metric table.
func WithDerivedTable(t derived.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.derived = t
		}
	}
}

// WithHistory sets the source of persisted prior rankings.
// Without it, rank variation is always omitted.
func WithHistory(h HistorySource) Option {
	return func(e *Engine) {
		if h != nil {
			e.history = h
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs an Engine over the mandatory sources.
func New(criteria CriteriaSource, measurements MeasurementSource, directory EmployeeDirectory, opts ...Option) *Engine {
	e := &Engine{
		criteria:     criteria,
		measurements: measurements,
		directory:    directory,
		insights:     insight.NewGenerator(),
		derived:      derived.DefaultTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}
