package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
)

// sqlStore implements Store over database/sql. Queries are written with '?'
// placeholders and rebound for drivers using numbered ones.
type sqlStore struct {
	db       *sql.DB
	name     string
	numbered bool
	schema   []string
	logger   logger.Logger
}

func (s *sqlStore) Init(ctx context.Context) error {
	for _, stmt := range s.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.name, err)
		}
	}
	s.logger.Info(ctx, "store initialized", logger.String("driver", s.name))
	return nil
}

func (s *sqlStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites '?' placeholders as $1, $2, ... when needed.
func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const criterionColumns = `id, name, description, weight, direction, display_order, active`

func scanCriterion(sc interface{ Scan(...any) error }) (model.Criterion, error) {
	var (
		c   model.Criterion
		dir string
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.Description, &c.Weight, &dir, &c.DisplayOrder, &c.Active); err != nil {
		return model.Criterion{}, err
	}
	c.Direction = model.Direction(dir)
	return c, nil
}

func (s *sqlStore) Criteria(ctx context.Context) ([]model.Criterion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+criterionColumns+` FROM criteria ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Criterion{}
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqlStore) Criterion(ctx context.Context, id string) (model.Criterion, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+criterionColumns+` FROM criteria WHERE id = ?`), id)
	c, err := scanCriterion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Criterion{}, ErrNotFound
	}
	return c, err
}

func (s *sqlStore) UpsertCriterion(ctx context.Context, c model.Criterion) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO criteria (`+criterionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			weight = excluded.weight,
			direction = excluded.direction,
			display_order = excluded.display_order,
			active = excluded.active`),
		c.ID, c.Name, c.Description, c.Weight, string(c.Direction), c.DisplayOrder, c.Active,
	)
	return err
}

func (s *sqlStore) Employees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, department, job_position FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.Position); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlStore) UpsertEmployee(ctx context.Context, e model.Employee) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO employees (id, name, department, job_position) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			job_position = excluded.job_position`),
		e.ID, e.Name, e.Department, e.Position,
	)
	return err
}

func (s *sqlStore) Measurements(ctx context.Context, q model.MeasurementQuery) ([]model.Measurement, error) {
	query := `SELECT employee_id, criterion_id, period, raw_value FROM measurements`
	var (
		conds []string
		args  []any
	)
	if month := q.Period.Month(); month != "" {
		conds = append(conds, "period = ?")
		args = append(args, month)
	}
	if q.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, q.EmployeeID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Measurement{}
	for rows.Next() {
		var (
			m      model.Measurement
			period string
			raw    sql.NullFloat64
		)
		if err := rows.Scan(&m.EmployeeID, &m.CriterionID, &period, &raw); err != nil {
			return nil, err
		}
		m.Period = model.Period(period)
		m.Raw = model.InvalidRaw()
		if raw.Valid {
			m.Raw = model.NumericRaw(raw.Float64)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqlStore) AddMeasurements(ctx context.Context, ms []model.Measurement) error {
	if len(ms) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO measurements (employee_id, criterion_id, period, raw_value) VALUES (?, ?, ?, ?)`))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, m := range ms {
		var raw sql.NullFloat64
		if v, ok := m.Raw.Float64(); ok {
			raw = sql.NullFloat64{Float64: v, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, m.EmployeeID, m.CriterionID, m.Period.Month(), raw); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Periods(ctx context.Context) ([]model.Period, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT period FROM measurements ORDER BY period`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Period{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, model.Period(p))
	}
	return out, rows.Err()
}

func (s *sqlStore) Ranking(ctx context.Context, period model.Period) ([]model.RankingResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT payload FROM rankings WHERE period = ? ORDER BY rank_position, employee_id`), string(period))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RankingResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r model.RankingResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode ranking row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlStore) SaveRanking(ctx context.Context, period model.Period, results []model.RankingResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM rankings WHERE period = ?`), string(period)); err != nil {
		_ = tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO rankings (period, employee_id, rank_position, total_score, payload) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range results {
		payload, err := encodeJSON(r)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, string(period), r.EmployeeID, r.RankPosition, r.TotalScore, payload); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Count(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"criteria", &c.Criteria},
		{"employees", &c.Employees},
		{"measurements", &c.Measurements},
		{"rankings", &c.Rankings},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.table).Scan(t.dst); err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}
