package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/rankengine/internal/domain/consolidate"
	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/domain/ranking"
	"github.com/okian/rankengine/internal/domain/scoring"
	"github.com/okian/rankengine/pkg/logger"
	"github.com/okian/rankengine/pkg/metrics"
)

// Metric scope labels.
const (
	scopePeriod       = "period"
	scopeConsolidated = "consolidated"
)

// ComputeRanking ranks every employee with measurements in period, which is
// either a month or model.Consolidated, restricted to department when it is
// not empty. Results are ordered by position.
func (e *Engine) ComputeRanking(ctx context.Context, period model.Period, department string) ([]model.RankingResult, Report, error) {
	start := time.Now()
	rep := Report{Period: period, Department: department}

	prior, withPrior := period.Previous()
	snap, err := e.fetch(ctx, model.MeasurementQuery{Period: period}, prior, withPrior, &rep)
	if err != nil {
		e.logger.Error(ctx, "ranking aborted",
			logger.String("period", period.String()),
			logger.Error(err),
		)
		return nil, rep, err
	}

	rows := e.scopeRows(snap, period, &rep)
	results := ranking.Assign(rows, ranking.Filter{Department: department}, snap.prior)

	if !period.IsConsolidated() && len(snap.prior) == 0 {
		rep.MissingHistory = true
	}
	rep.Employees = len(results)
	rep.Elapsed = time.Since(start)
	rep.record()

	scope := scopePeriod
	if period.IsConsolidated() {
		scope = scopeConsolidated
	}
	metrics.RecordRankingComputed(scope, len(results), float64(rep.Elapsed.Milliseconds()))

	fields := []logger.Field{
		logger.String("period", period.String()),
		logger.Int("employees", rep.Employees),
		logger.Int("dataGaps", rep.DataGaps),
		logger.Int("parseErrors", rep.ParseErrors),
		logger.Bool("missingHistory", rep.MissingHistory),
		logger.Duration("elapsed", rep.Elapsed),
	}
	if department != "" {
		fields = append(fields, logger.String("department", department))
	}
	e.logger.Debug(ctx, "ranking computed", fields...)
	for _, w := range rep.Warnings {
		e.logger.Warn(ctx, w, logger.String("period", period.String()))
	}
	return results, rep, nil
}

// ComputeForEmployee returns one employee's row of the company-wide ranking
// of period.
func (e *Engine) ComputeForEmployee(ctx context.Context, employeeID string, period model.Period) (model.RankingResult, error) {
	results, _, err := e.ComputeRanking(ctx, period, "")
	if err != nil {
		return model.RankingResult{}, err
	}
	for _, r := range results {
		if r.EmployeeID == employeeID {
			return r, nil
		}
	}
	return model.RankingResult{}, fmt.Errorf("%w: %s in %s", ErrEmployeeNotFound, employeeID, period)
}

// Evolution returns the monthly series of one employee: total score and
// company-wide position per month with data, plus absences and delays.
func (e *Engine) Evolution(ctx context.Context, employeeID string) (model.Evolution, error) {
	var rep Report
	snap, err := e.fetch(ctx, model.MeasurementQuery{}, "", false, &rep)
	if err != nil {
		return model.Evolution{}, err
	}

	out := model.Evolution{
		EmployeeID:      employeeID,
		Months:          []model.EvolutionPoint{},
		AbsencesByMonth: []model.MonthCount{},
		DelaysByMonth:   []model.MonthCount{},
	}

	var own []model.Measurement
	periods, groups := snap.byPeriod()
	for _, p := range periods {
		results := ranking.Assign(e.periodRows(snap, p, groups[p], &rep), ranking.Filter{}, nil)
		for _, r := range results {
			if r.EmployeeID != employeeID {
				continue
			}
			out.Months = append(out.Months, model.EvolutionPoint{
				Period:       p,
				TotalScore:   r.TotalScore,
				RankPosition: r.RankPosition,
				Absences:     r.AbsencesCount,
				Delays:       r.LateCount,
			})
		}
		for _, m := range groups[p] {
			if m.EmployeeID == employeeID {
				own = append(own, m)
			}
		}
	}

	if len(own) == 0 {
		if _, ok := snap.employees[employeeID]; !ok {
			return model.Evolution{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, employeeID)
		}
		return out, nil
	}
	out.AbsencesByMonth, out.DelaysByMonth = e.derived.MonthlySeries(snap.names, own)
	return out, nil
}

// scopeRows builds the unranked rows of period. For the consolidated scope
// every month is scored on its own and then merged per employee.
func (e *Engine) scopeRows(snap *snapshot, period model.Period, rep *Report) []model.RankingResult {
	if !period.IsConsolidated() {
		rows := e.periodRows(snap, period, snap.measurements, rep)
		e.annotate(rows)
		return rows
	}

	periods, groups := snap.byPeriod()
	perEmployee := map[string][]model.RankingResult{}
	var ids []string
	for _, p := range periods {
		for _, row := range e.periodRows(snap, p, groups[p], rep) {
			if _, ok := perEmployee[row.EmployeeID]; !ok {
				ids = append(ids, row.EmployeeID)
			}
			perEmployee[row.EmployeeID] = append(perEmployee[row.EmployeeID], row)
		}
	}

	rows := make([]model.RankingResult, 0, len(ids))
	for _, id := range ids {
		merged, ok := consolidate.Consolidate(perEmployee[id])
		if !ok {
			continue
		}
		rows = append(rows, merged)
	}
	e.annotate(rows)
	return rows
}

// periodRows scores every employee with measurements in one month.
func (e *Engine) periodRows(snap *snapshot, period model.Period, ms []model.Measurement, rep *Report) []model.RankingResult {
	ids, groups := byEmployee(ms)
	rows := make([]model.RankingResult, 0, len(ids))
	for _, id := range ids {
		own := groups[id]
		ps, deg := scoring.Aggregate(snap.registry, id, period, own)
		rep.addDegradations(deg)
		counters := e.derived.Count(snap.names, own)

		row := model.RankingResult{
			EmployeeID:      id,
			Period:          period,
			TotalScore:      ps.Total,
			CriterionScores: ps.Scores,
			AbsencesCount:   counters.Absences,
			LateCount:       counters.Late,
		}
		snap.identify(&row)
		rows = append(rows, row)
	}
	return rows
}

// annotate attaches strengths and suggestions to each row.
func (e *Engine) annotate(rows []model.RankingResult) {
	for i := range rows {
		rows[i].Strengths, rows[i].Suggestions = e.insights.Generate(rows[i].CriterionScores)
	}
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(scoring.Round2(v), 'f', -1, 64)
}
