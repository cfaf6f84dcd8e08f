package repository

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultSQLiteDSN = "file:rankengine.db?_pragma=busy_timeout(5000)"

// NewSQLite opens a SQLite store. The database is created on first use.
func NewSQLite(dsn string, opts ...Option) (Store, error) {
	s := newSettings(opts)
	if strings.TrimSpace(dsn) == "" {
		dsn = defaultSQLiteDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &sqlStore{
		db:     db,
		name:   DriverSQLite,
		logger: s.logger,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS criteria (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				weight REAL NOT NULL,
				direction TEXT NOT NULL,
				display_order INTEGER NOT NULL,
				active INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				department TEXT NOT NULL DEFAULT '',
				job_position TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS measurements (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				employee_id TEXT NOT NULL,
				criterion_id TEXT NOT NULL,
				period TEXT NOT NULL,
				raw_value REAL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_measurements_period ON measurements(period)`,
			`CREATE INDEX IF NOT EXISTS idx_measurements_employee ON measurements(employee_id)`,
			`CREATE TABLE IF NOT EXISTS rankings (
				period TEXT NOT NULL,
				employee_id TEXT NOT NULL,
				rank_position INTEGER NOT NULL,
				total_score REAL NOT NULL,
				payload TEXT NOT NULL,
				PRIMARY KEY (period, employee_id)
			)`,
		},
	}, nil
}
