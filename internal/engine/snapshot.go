package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/pkg/logger"
	"github.com/okian/rankengine/pkg/metrics"
)

// snapshot is the fully materialized input of one computation.
type snapshot struct {
	registry     *model.Registry
	names        map[string]string
	measurements []model.Measurement
	employees    map[string]model.Employee
	prior        []model.RankingResult
}

// fetch pulls criteria, measurements and the directory concurrently, plus
// the ranking of prior when withPrior is set. A failing mandatory source
// aborts the computation; a failing history source only drops variation.
func (e *Engine) fetch(ctx context.Context, q model.MeasurementQuery, prior model.Period, withPrior bool, rep *Report) (*snapshot, error) {
	var (
		criteria     []model.Criterion
		measurements []model.Measurement
		employees    []model.Employee
		priorRows    []model.RankingResult
		historyErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := e.criteria.Criteria(gctx)
		if err != nil {
			return fmt.Errorf("%w: criteria: %w", ErrInputUnavailable, err)
		}
		criteria = c
		return nil
	})
	g.Go(func() error {
		ms, err := e.measurements.Measurements(gctx, q)
		if err != nil {
			return fmt.Errorf("%w: measurements: %w", ErrInputUnavailable, err)
		}
		measurements = ms
		return nil
	})
	g.Go(func() error {
		emps, err := e.directory.Employees(gctx)
		if err != nil {
			return fmt.Errorf("%w: employee directory: %w", ErrInputUnavailable, err)
		}
		employees = emps
		return nil
	})
	if withPrior && e.history != nil {
		g.Go(func() error {
			rows, err := e.history.Ranking(gctx, prior)
			if err != nil {
				historyErr = err
				return nil
			}
			priorRows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordInputFailure()
		return nil, err
	}

	if historyErr != nil {
		e.logger.Warn(ctx, "prior ranking unavailable",
			logger.String("period", prior.String()),
			logger.Error(historyErr),
		)
		rep.warnf("prior ranking %s unavailable: %v", prior, historyErr)
	}

	snap := &snapshot{
		registry:     model.NewRegistry(criteria),
		names:        make(map[string]string, len(criteria)),
		measurements: make([]model.Measurement, 0, len(measurements)),
		employees:    make(map[string]model.Employee, len(employees)),
		prior:        priorRows,
	}
	// Derived counters follow the registry: inactive criteria feed nothing.
	for _, c := range snap.registry.Active() {
		snap.names[c.ID] = c.Name
	}
	for _, m := range measurements {
		// Sources may return a superset of the query.
		if q.Matches(m) {
			snap.measurements = append(snap.measurements, m)
		}
	}
	for _, emp := range employees {
		snap.employees[emp.ID] = emp
	}

	rep.WeightSum = snap.registry.WeightSum()
	if rep.RegistryInconsistent() {
		rep.warnf("active criterion weights sum to %s, not 100", formatWeight(rep.WeightSum))
	}
	return snap, nil
}

// identify fills the identity fields of r from the directory. Employees
// missing from the directory are labeled with their id.
func (s *snapshot) identify(r *model.RankingResult) {
	emp, ok := s.employees[r.EmployeeID]
	if !ok {
		r.EmployeeName = r.EmployeeID
		return
	}
	r.EmployeeName = emp.Name
	r.Department = emp.Department
	r.Position = emp.Position
}

// byPeriod groups the snapshot measurements by month, ordered by month.
func (s *snapshot) byPeriod() ([]model.Period, map[model.Period][]model.Measurement) {
	groups := map[model.Period][]model.Measurement{}
	for _, m := range s.measurements {
		p := model.Period(m.Period.Month())
		groups[p] = append(groups[p], m)
	}
	periods := make([]model.Period, 0, len(groups))
	for p := range groups {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
	return periods, groups
}

// byEmployee groups ms by employee, with ids in ascending order.
func byEmployee(ms []model.Measurement) ([]string, map[string][]model.Measurement) {
	groups := map[string][]model.Measurement{}
	for _, m := range ms {
		groups[m.EmployeeID] = append(groups[m.EmployeeID], m)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, groups
}
