package repository

import (
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultPostgresDSN = "postgres://localhost:5432/rankengine?sslmode=disable"

// NewPostgres opens a PostgreSQL store through the pgx stdlib driver.
func NewPostgres(dsn string, opts ...Option) (Store, error) {
	s := newSettings(opts)
	if strings.TrimSpace(dsn) == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	return &sqlStore{
		db:       db,
		name:     DriverPostgres,
		numbered: true,
		logger:   s.logger,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS criteria (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				weight DOUBLE PRECISION NOT NULL,
				direction TEXT NOT NULL,
				display_order INTEGER NOT NULL,
				active BOOLEAN NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				department TEXT NOT NULL DEFAULT '',
				job_position TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS measurements (
				id BIGSERIAL PRIMARY KEY,
				employee_id TEXT NOT NULL,
				criterion_id TEXT NOT NULL,
				period TEXT NOT NULL,
				raw_value DOUBLE PRECISION
			)`,
			`CREATE INDEX IF NOT EXISTS idx_measurements_period ON measurements(period)`,
			`CREATE INDEX IF NOT EXISTS idx_measurements_employee ON measurements(employee_id)`,
			`CREATE TABLE IF NOT EXISTS rankings (
				period TEXT NOT NULL,
				employee_id TEXT NOT NULL,
				rank_position INTEGER NOT NULL,
				total_score DOUBLE PRECISION NOT NULL,
				payload TEXT NOT NULL,
				PRIMARY KEY (period, employee_id)
			)`,
		},
	}, nil
}
