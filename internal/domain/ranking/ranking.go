// Package ranking orders ranking rows and assigns positions and movement.
//
// Ordering: total score DESC, then employee name ASC, then employee id ASC.
// Positions are always 1..N over the filtered set being displayed.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/rankengine/internal/domain/model"
)

// Filter restricts a ranking to a subset of employees.
type Filter struct {
	// Department matches case-insensitively; empty means every department.
	Department string
}

// Match reports whether r belongs to the filtered set.
func (f Filter) Match(r model.RankingResult) bool {
	dept := strings.TrimSpace(f.Department)
	if dept == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Department), dept)
}

// less returns true if a should appear before b.
func less(a, b model.RankingResult) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.EmployeeName != b.EmployeeName {
		return a.EmployeeName < b.EmployeeName
	}
	return a.EmployeeID < b.EmployeeID
}

// order filters and sorts copies of results and assigns positions.
func order(results []model.RankingResult, f Filter) []model.RankingResult {
	out := make([]model.RankingResult, 0, len(results))
	for _, r := range results {
		if f.Match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	for i := range out {
		out[i].RankPosition = i + 1
	}
	return out
}

// Positions returns each employee's position in results under f.
func Positions(results []model.RankingResult, f Filter) map[string]int {
	ordered := order(results, f)
	pos := make(map[string]int, len(ordered))
	for _, r := range ordered {
		pos[r.EmployeeID] = r.RankPosition
	}
	return pos
}

// Assign returns a new, ordered and positioned ranking of results under f.
//
// prior is the ranking of the immediately preceding period. It is filtered
// and positioned the same way, so movement compares positions within the
// same displayed set. RankVariation is prior position minus current
// position (positive means the employee climbed) and stays nil when the
// employee has no prior position.
func Assign(results []model.RankingResult, f Filter, prior []model.RankingResult) []model.RankingResult {
	out := order(results, f)
	var before map[string]int
	if len(prior) > 0 {
		before = Positions(prior, f)
	}
	for i := range out {
		out[i].RankVariation = nil
		if p, ok := before[out[i].EmployeeID]; ok {
			v := p - out[i].RankPosition
			out[i].RankVariation = &v
		}
	}
	return out
}
