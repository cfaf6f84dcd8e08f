package model

import "errors"

// Sentinel kinds for validation at the ingestion boundary.
var (
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidCriterion   = errors.New("invalid criterion")
	ErrInvalidMeasurement = errors.New("invalid measurement")
	ErrInvalidEmployee    = errors.New("invalid employee")
)
