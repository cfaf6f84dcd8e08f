package model

import (
	"fmt"
	"strings"
)

// Measurement is one raw per-criterion value for an employee in a month.
type Measurement struct {
	EmployeeID  string   `json:"employee_id"`
	CriterionID string   `json:"criterion_id"`
	Period      Period   `json:"period"`
	Raw         RawValue `json:"raw_value"`
}

// NewMeasurement validates identifiers and the period. The raw value is kept
// even when it is not numeric; scoring degrades it later.
func NewMeasurement(employeeID, criterionID, period string, raw any) (Measurement, error) {
	employeeID = strings.TrimSpace(employeeID)
	criterionID = strings.TrimSpace(criterionID)
	if employeeID == "" {
		return Measurement{}, fmt.Errorf("%w: missing employee_id", ErrInvalidMeasurement)
	}
	if criterionID == "" {
		return Measurement{}, fmt.Errorf("%w: missing criterion_id", ErrInvalidMeasurement)
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return Measurement{}, fmt.Errorf("%w: %w", ErrInvalidMeasurement, err)
	}
	if p.IsConsolidated() {
		return Measurement{}, fmt.Errorf("%w: measurement period must be a month", ErrInvalidMeasurement)
	}
	return Measurement{
		EmployeeID:  employeeID,
		CriterionID: criterionID,
		Period:      p,
		Raw:         ParseRawValue(raw),
	}, nil
}

// MeasurementQuery selects a measurement snapshot. A consolidated or empty
// Period selects every month; an empty EmployeeID selects every employee.
type MeasurementQuery struct {
	Period     Period
	EmployeeID string
}

// Matches reports whether m falls inside q.
func (q MeasurementQuery) Matches(m Measurement) bool {
	if q.EmployeeID != "" && m.EmployeeID != q.EmployeeID {
		return false
	}
	if q.Period != "" && !q.Period.IsConsolidated() && m.Period.Month() != q.Period.Month() {
		return false
	}
	return true
}

// Employee is the directory entry used to label ranking rows.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// NewEmployee validates e. A missing name falls back to the id.
func NewEmployee(e Employee) (Employee, error) {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.Department = strings.TrimSpace(e.Department)
	e.Position = strings.TrimSpace(e.Position)
	if e.ID == "" {
		return Employee{}, fmt.Errorf("%w: missing id", ErrInvalidEmployee)
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	return e, nil
}
