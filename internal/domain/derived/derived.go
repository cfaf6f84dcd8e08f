// Package derived extracts domain counters (absences, late arrivals) from
// measurements of specific, well-known criteria.
//
// The coupling to criterion names is explicit: a Table maps a criterion name
// to the rule that turns its raw values into a counter.
package derived

import (
	"math"
	"sort"

	"github.com/okian/rankengine/internal/domain/model"
)

// Well-known criterion names.
const (
	AttendanceCriterion  = "Assiduidade"
	PunctualityCriterion = "Pontualidade"
)

// Kind identifies which counter a rule feeds.
type Kind int

// Counter kinds.
const (
	KindAbsences Kind = iota + 1
	KindLate
)

const absenceStep = 5

// Extractor converts one raw value into a counter contribution.
// It returns false when the value is out of its domain and must be skipped.
type Extractor func(raw float64) (int, bool)

// Absences reads an attendance percentage: every 5 points below 100 is one
// absence. Values outside [0,100] are skipped.
func Absences(raw float64) (int, bool) {
	if raw < 0 || raw > 100 {
		return 0, false
	}
	return int(math.Round((100 - raw) / absenceStep)), true
}

// Lateness reads a count of late arrivals. Negative values are skipped.
func Lateness(raw float64) (int, bool) {
	if raw < 0 {
		return 0, false
	}
	return int(math.Round(raw)), true
}

// Rule binds a counter kind to its extractor.
type Rule struct {
	Kind    Kind
	Extract Extractor
}

// Table maps criterion names to rules.
type Table map[string]Rule

// DefaultTable binds Assiduidade to absences and Pontualidade to lateness.
func DefaultTable() Table {
	return NewTable(AttendanceCriterion, PunctualityCriterion)
}

// NewTable builds a table for the given criterion names. Empty names are
// left out.
func NewTable(attendance, punctuality string) Table {
	t := Table{}
	if attendance != "" {
		t[attendance] = Rule{Kind: KindAbsences, Extract: Absences}
	}
	if punctuality != "" {
		t[punctuality] = Rule{Kind: KindLate, Extract: Lateness}
	}
	return t
}

// Counters holds the derived counters of a period or of the consolidated view.
type Counters struct {
	Absences int
	Late     int
}

// Add accumulates o into c.
func (c *Counters) Add(o Counters) {
	c.Absences += o.Absences
	c.Late += o.Late
}

// Extract returns the contribution of a single measurement. Unknown
// criteria and unusable values contribute nothing.
func (t Table) Extract(criterionName string, raw model.RawValue) Counters {
	rule, ok := t[criterionName]
	if !ok {
		return Counters{}
	}
	v, ok := raw.Float64()
	if !ok {
		return Counters{}
	}
	n, ok := rule.Extract(v)
	if !ok {
		return Counters{}
	}
	switch rule.Kind {
	case KindAbsences:
		return Counters{Absences: n}
	case KindLate:
		return Counters{Late: n}
	default:
		return Counters{}
	}
}

// Count sums the contributions of ms. names maps criterion id to name.
func (t Table) Count(names map[string]string, ms []model.Measurement) Counters {
	var c Counters
	for _, m := range ms {
		c.Add(t.Extract(names[m.CriterionID], m.Raw))
	}
	return c
}

// MonthlySeries groups the contributions of ms by month. A month appears in
// a series when at least one measurement of the matching criterion was
// usable. Both series are ordered by month.
func (t Table) MonthlySeries(names map[string]string, ms []model.Measurement) (absences, delays []model.MonthCount) {
	absByMonth := map[string]int{}
	lateByMonth := map[string]int{}
	for _, m := range ms {
		name := names[m.CriterionID]
		rule, ok := t[name]
		if !ok {
			continue
		}
		v, ok := m.Raw.Float64()
		if !ok {
			continue
		}
		n, ok := rule.Extract(v)
		if !ok {
			continue
		}
		month := m.Period.Month()
		switch rule.Kind {
		case KindAbsences:
			absByMonth[month] += n
		case KindLate:
			lateByMonth[month] += n
		}
	}
	return toSeries(absByMonth), toSeries(lateByMonth)
}

func toSeries(byMonth map[string]int) []model.MonthCount {
	out := make([]model.MonthCount, 0, len(byMonth))
	for month, n := range byMonth {
		out = append(out, model.MonthCount{Month: month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
