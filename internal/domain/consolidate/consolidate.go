// Package consolidate merges per-period ranking rows into the all-periods view.
package consolidate

import (
	"sort"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/domain/scoring"
)

type criterionAcc struct {
	score      model.CriterionScore
	normalized float64
	weighted   float64
	periods    int
}

// Consolidate merges one employee's per-period rows.
//
// Totals, weighted scores and counters are summed across periods, while each
// criterion's normalized score is the mean over the periods it appears in.
// The two views are not meant to reconcile arithmetically: the sums express
// cumulative standing, the mean keeps the normalized score in [0,100].
//
// Identity fields come from the latest period. Position, variation and
// insights are left for the rank assigner and insight generator.
// It returns false when rows is empty.
func Consolidate(rows []model.RankingResult) (model.RankingResult, bool) {
	if len(rows) == 0 {
		return model.RankingResult{}, false
	}
	ordered := make([]model.RankingResult, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Period < ordered[j].Period })

	latest := ordered[len(ordered)-1]
	out := model.RankingResult{
		EmployeeID:   latest.EmployeeID,
		EmployeeName: latest.EmployeeName,
		Department:   latest.Department,
		Position:     latest.Position,
		Period:       model.Consolidated,
	}

	var (
		total float64
		order []string
		accs  = map[string]*criterionAcc{}
	)
	for _, row := range ordered {
		total += row.TotalScore
		out.AbsencesCount += row.AbsencesCount
		out.LateCount += row.LateCount
		for _, cs := range row.CriterionScores {
			acc, ok := accs[cs.CriterionID]
			if !ok {
				acc = &criterionAcc{score: cs}
				accs[cs.CriterionID] = acc
				order = append(order, cs.CriterionID)
			}
			acc.normalized += cs.NormalizedScore
			acc.weighted += cs.WeightedScore
			acc.periods++
		}
	}

	out.TotalScore = scoring.Round2(total)
	out.CriterionScores = make([]model.CriterionScore, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		cs := acc.score
		cs.NormalizedScore = scoring.Round2(acc.normalized / float64(acc.periods))
		cs.WeightedScore = scoring.Round2(acc.weighted)
		out.CriterionScores = append(out.CriterionScores, cs)
	}
	return out, true
}
