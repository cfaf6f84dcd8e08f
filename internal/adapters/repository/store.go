// Package repository persists criteria, employees, measurements and computed
// rankings, and serves them back as engine snapshots.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/rankengine/internal/domain/model"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Counts summarizes the store contents.
type Counts struct {
	Criteria     int `json:"criteria"`
	Employees    int `json:"employees"`
	Measurements int `json:"measurements"`
	Rankings     int `json:"rankings"`
}

// Store provides read/write access to the ranking inputs and history.
type Store interface {
	// Init prepares the backing storage (schema, indexes).
	Init(ctx context.Context) error
	Close() error

	// Criteria returns every criterion, active or not.
	Criteria(ctx context.Context) ([]model.Criterion, error)
	// Criterion returns one criterion or ErrNotFound.
	Criterion(ctx context.Context, id string) (model.Criterion, error)
	// UpsertCriterion inserts or replaces a criterion by id.
	UpsertCriterion(ctx context.Context, c model.Criterion) error

	// Employees returns the employee directory ordered by id.
	Employees(ctx context.Context) ([]model.Employee, error)
	// UpsertEmployee inserts or replaces an employee by id.
	UpsertEmployee(ctx context.Context, e model.Employee) error

	// Measurements returns the measurements selected by q.
	Measurements(ctx context.Context, q model.MeasurementQuery) ([]model.Measurement, error)
	// AddMeasurements appends measurements atomically.
	AddMeasurements(ctx context.Context, ms []model.Measurement) error
	// Periods returns the months with measurements in ascending order.
	Periods(ctx context.Context) ([]model.Period, error)

	// Ranking returns the persisted ranking of period ordered by position.
	// It returns an empty slice when nothing was persisted.
	Ranking(ctx context.Context, period model.Period) ([]model.RankingResult, error)
	// SaveRanking replaces the persisted ranking of period atomically.
	SaveRanking(ctx context.Context, period model.Period, rows []model.RankingResult) error

	// Count returns the number of stored records per entity.
	Count(ctx context.Context) (Counts, error)
}

// NewStore builds the store selected by driver. An empty driver selects the
// in-memory store.
func NewStore(driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLite(dsn, opts...)
	case DriverPostgres, "postgresql":
		return NewPostgres(dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func encodeJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
