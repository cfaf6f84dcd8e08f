package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Direction tells how a raw measurement relates to performance.
type Direction string

// Supported criterion directions.
const (
	HigherBetter Direction = "higher_better"
	LowerBetter  Direction = "lower_better"
)

// ParseDirection normalizes a direction flag. Empty input means HigherBetter.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "higher", "higher_better", "maior_melhor":
		return HigherBetter, nil
	case "lower", "lower_better", "menor_melhor":
		return LowerBetter, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidCriterion, s)
	}
}

const maxWeight = 100

// Criterion is one evaluation criterion of the registry.
type Criterion struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Weight       float64   `json:"weight"`
	Direction    Direction `json:"direction"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
}

// NewCriterion validates c and returns its canonical form.
func NewCriterion(c Criterion) (Criterion, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	switch {
	case c.ID == "":
		return Criterion{}, fmt.Errorf("%w: missing id", ErrInvalidCriterion)
	case c.Name == "":
		return Criterion{}, fmt.Errorf("%w: missing name", ErrInvalidCriterion)
	case math.IsNaN(c.Weight) || c.Weight < 0 || c.Weight > maxWeight:
		return Criterion{}, fmt.Errorf("%w: weight %v outside [0,100]", ErrInvalidCriterion, c.Weight)
	}
	dir, err := ParseDirection(string(c.Direction))
	if err != nil {
		return Criterion{}, err
	}
	c.Direction = dir
	return c, nil
}

// Registry is a read-only snapshot of the active criteria in display order.
type Registry struct {
	criteria []Criterion
	byID     map[string]int
}

// NewRegistry keeps the active criteria of all, ordered by display order,
// then name, then id. The first occurrence of a duplicated id wins.
func NewRegistry(all []Criterion) *Registry {
	r := &Registry{byID: make(map[string]int, len(all))}
	for _, c := range all {
		if !c.Active {
			continue
		}
		if _, dup := r.byID[c.ID]; dup {
			continue
		}
		r.byID[c.ID] = -1
		r.criteria = append(r.criteria, c)
	}
	sort.SliceStable(r.criteria, func(i, j int) bool {
		a, b := r.criteria[i], r.criteria[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	for i, c := range r.criteria {
		r.byID[c.ID] = i
	}
	return r
}

// Active returns a copy of the active criteria in display order.
func (r *Registry) Active() []Criterion {
	out := make([]Criterion, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Lookup returns the active criterion with the given id.
func (r *Registry) Lookup(id string) (Criterion, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Criterion{}, false
	}
	return r.criteria[i], true
}

// Index returns the display position of an active criterion.
func (r *Registry) Index(id string) (int, bool) {
	i, ok := r.byID[id]
	return i, ok
}

// Len returns the number of active criteria.
func (r *Registry) Len() int { return len(r.criteria) }

// WeightSum returns the sum of active weights. It is meant to be 100.
func (r *Registry) WeightSum() float64 {
	var sum float64
	for _, c := range r.criteria {
		sum += c.Weight
	}
	return sum
}
