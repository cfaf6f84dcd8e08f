package engine

import "errors"

// Sentinel errors returned by the engine.
var (
	// ErrInputUnavailable reports that a mandatory snapshot (criteria,
	// measurements or employee directory) could not be fetched. No partial
	// results are produced.
	ErrInputUnavailable = errors.New("input unavailable")
	// ErrEmployeeNotFound reports an employee without any result in scope.
	ErrEmployeeNotFound = errors.New("employee not found")
)
