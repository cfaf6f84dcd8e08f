package engine

import (
	"fmt"
	"time"

	"github.com/okian/rankengine/internal/domain/model"
	"github.com/okian/rankengine/internal/domain/scoring"
	"github.com/okian/rankengine/pkg/metrics"
)

// Report describes the non-fatal conditions met during one computation.
type Report struct {
	Period     model.Period  `json:"period"`
	Department string        `json:"department,omitempty"`
	Employees  int           `json:"employees"`
	Elapsed    time.Duration `json:"elapsed"`

	// DataGaps counts active criteria an employee had no measurement for.
	DataGaps int `json:"data_gaps"`
	// ParseErrors counts raw values that could not be read as numbers.
	ParseErrors int `json:"parse_errors"`
	// MissingHistory is set when no prior ranking was available, so every
	// rank variation was omitted.
	MissingHistory bool `json:"missing_history"`
	// WeightSum is the sum of active criterion weights.
	WeightSum float64 `json:"weight_sum"`

	Warnings []string `json:"warnings,omitempty"`
}

// RegistryInconsistent reports whether the active weights do not sum to 100.
func (r *Report) RegistryInconsistent() bool {
	return scoring.Round2(r.WeightSum) != 100
}

func (r *Report) addDegradations(d scoring.Degradations) {
	r.DataGaps += d.DataGaps
	r.ParseErrors += d.ParseErrors
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) record() {
	metrics.RecordDegradation(metrics.DegradationDataGap, r.DataGaps)
	metrics.RecordDegradation(metrics.DegradationParseError, r.ParseErrors)
	if r.MissingHistory {
		metrics.RecordDegradation(metrics.DegradationMissingHistory, 1)
	}
	if r.RegistryInconsistent() {
		metrics.RecordDegradation(metrics.DegradationRegistryInconsistency, 1)
	}
}
