package scoring

import (
	"github.com/okian/rankengine/internal/domain/model"
)

// Degradations counts the non-fatal problems met while scoring.
type Degradations struct {
	// DataGaps counts active criteria without any measurement.
	DataGaps int
	// ParseErrors counts raw values that degraded to zero.
	ParseErrors int
}

// Add accumulates o into d.
func (d *Degradations) Add(o Degradations) {
	d.DataGaps += o.DataGaps
	d.ParseErrors += o.ParseErrors
}

// PeriodScore is the weighted result of one employee in one month.
type PeriodScore struct {
	EmployeeID string
	Period     model.Period
	Scores     []model.CriterionScore
	Total      float64
}

// Aggregate combines an employee's measurements of one period into one
// CriterionScore per active criterion, in registry order. Criteria without
// measurements get an explicit zero entry. Several measurements of the same
// criterion are averaged after normalization. Measurements of inactive or
// unknown criteria are ignored.
func Aggregate(reg *model.Registry, employeeID string, period model.Period, ms []model.Measurement) (PeriodScore, Degradations) {
	var deg Degradations

	sums := make([]float64, reg.Len())
	counts := make([]int, reg.Len())
	for _, m := range ms {
		idx, ok := reg.Index(m.CriterionID)
		if !ok {
			continue
		}
		c, _ := reg.Lookup(m.CriterionID)
		v, err := Normalize(m.Raw, c.Direction)
		if err != nil {
			deg.ParseErrors++
		}
		sums[idx] += v
		counts[idx]++
	}

	out := PeriodScore{
		EmployeeID: employeeID,
		Period:     period,
		Scores:     make([]model.CriterionScore, 0, reg.Len()),
	}
	var total float64
	for i, c := range reg.Active() {
		var normalized float64
		if counts[i] == 0 {
			deg.DataGaps++
		} else {
			normalized = Round2(sums[i] / float64(counts[i]))
		}
		weighted := Round2(normalized * c.Weight / 100)
		// The total is the sum of the rounded rows so it matches them.
		total += weighted
		out.Scores = append(out.Scores, model.CriterionScore{
			CriterionID:     c.ID,
			CriterionName:   c.Name,
			NormalizedScore: normalized,
			Weight:          c.Weight,
			WeightedScore:   weighted,
		})
	}
	out.Total = Round2(total)
	return out, deg
}
