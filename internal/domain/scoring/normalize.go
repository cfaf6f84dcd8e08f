// Package scoring turns raw measurements into normalized and weighted
// per-criterion scores.
package scoring

import (
	"errors"
	"math"

	"github.com/okian/rankengine/internal/domain/model"
)

// Score bounds.
const (
	minScore = 0
	maxScore = 100
)

// ErrUnparsable marks a raw value that could not be read as a number.
var ErrUnparsable = errors.New("raw value is not numeric")

// Normalize maps a raw value to [0,100] where higher always means better.
// Invalid values degrade to 0 and return ErrUnparsable so callers can count
// them; the score is still usable.
func Normalize(raw model.RawValue, dir model.Direction) (float64, error) {
	v, ok := raw.Float64()
	if !ok {
		return 0, ErrUnparsable
	}
	v = Clamp(v)
	if dir == model.LowerBetter {
		v = maxScore - v
	}
	return Clamp(v), nil
}

// Clamp bounds v to [0,100].
func Clamp(v float64) float64 {
	return math.Max(minScore, math.Min(maxScore, v))
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
