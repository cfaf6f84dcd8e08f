package model

// CriterionScore is one criterion's contribution to a ranking row.
type CriterionScore struct {
	CriterionID     string  `json:"criterion_id"`
	CriterionName   string  `json:"criterion_name"`
	NormalizedScore float64 `json:"normalized_score"`
	Weight          float64 `json:"weight"`
	WeightedScore   float64 `json:"weighted_score"`
}

// RankingResult is the engine output for one employee in one scope.
// RankVariation is nil when no prior ranking exists for the employee.
type RankingResult struct {
	EmployeeID      string           `json:"employee_id"`
	EmployeeName    string           `json:"employee_name"`
	Department      string           `json:"department"`
	Position        string           `json:"position"`
	Period          Period           `json:"period"`
	TotalScore      float64          `json:"total_score"`
	RankPosition    int              `json:"rank_position"`
	RankVariation   *int             `json:"rank_variation,omitempty"`
	CriterionScores []CriterionScore `json:"criterion_scores"`
	Strengths       []string         `json:"strengths"`
	Suggestions     []string         `json:"suggestions"`
	AbsencesCount   int              `json:"absences_count"`
	LateCount       int              `json:"late_count"`
}

// Clone returns a deep copy of r.
func (r RankingResult) Clone() RankingResult {
	out := r
	if r.RankVariation != nil {
		v := *r.RankVariation
		out.RankVariation = &v
	}
	out.CriterionScores = append([]CriterionScore(nil), r.CriterionScores...)
	out.Strengths = append([]string(nil), r.Strengths...)
	out.Suggestions = append([]string(nil), r.Suggestions...)
	return out
}

// MonthCount is one point of a monthly counter series.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// EvolutionPoint is one month of an employee's evolution series.
type EvolutionPoint struct {
	Period       Period  `json:"period"`
	TotalScore   float64 `json:"total_score"`
	RankPosition int     `json:"rank_position"`
	Absences     int     `json:"absences"`
	Delays       int     `json:"delays"`
}

// Evolution is the month-ordered history of one employee.
type Evolution struct {
	EmployeeID      string           `json:"employee_id"`
	Months          []EvolutionPoint `json:"months"`
	AbsencesByMonth []MonthCount     `json:"absences_by_month"`
	DelaysByMonth   []MonthCount     `json:"delays_by_month"`
}
