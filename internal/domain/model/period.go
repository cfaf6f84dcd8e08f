// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Period identifies an evaluation window: a calendar month (YYYY-MM) or the
// Consolidated sentinel covering every month.
type Period string

// Consolidated is the all-periods scope.
const Consolidated Period = "consolidated"

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
	monthLen    = len(monthLayout)
)

// ParsePeriod validates s and returns the canonical Period.
// Full dates are truncated to their month.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(Consolidated)) {
		return Consolidated, nil
	}
	if t, err := time.Parse(monthLayout, s); err == nil {
		return Period(t.Format(monthLayout)), nil
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return Period(t.Format(monthLayout)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// MustPeriod is ParsePeriod for literals known to be valid.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsConsolidated reports whether p is the all-periods scope.
func (p Period) IsConsolidated() bool { return p == Consolidated }

// Month returns the YYYY-MM prefix of p, or "" for the consolidated scope.
func (p Period) Month() string {
	if p.IsConsolidated() || len(p) < monthLen {
		return ""
	}
	return string(p)[:monthLen]
}

// Previous returns the immediately preceding month.
// The consolidated scope has no predecessor.
func (p Period) Previous() (Period, bool) {
	t, err := time.Parse(monthLayout, p.Month())
	if err != nil {
		return "", false
	}
	return Period(t.AddDate(0, -1, 0).Format(monthLayout)), true
}

func (p Period) String() string { return string(p) }
