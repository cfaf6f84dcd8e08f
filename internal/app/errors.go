package service

import (
	"errors"
	"fmt"

	"github.com/okian/rankengine/internal/domain/model"
)

// Sentinel errors returned by the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("recompute queue full")
	// ErrUnknownCriterion is an invalid measurement.
	ErrUnknownCriterion = fmt.Errorf("%w: unknown criterion", model.ErrInvalidMeasurement)
)
