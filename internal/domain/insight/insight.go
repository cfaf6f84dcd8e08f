// Package insight derives qualitative feedback from per-criterion scores.
package insight

import (
	"fmt"
	"strconv"

	"github.com/okian/rankengine/internal/domain/model"
)

// Default thresholds and fallback messages.
const (
	DefaultStrengthThreshold   = 80.0
	DefaultSuggestionThreshold = 60.0

	NoStrengthsMessage   = "Desempenho estável em todos os critérios"
	NoSuggestionsMessage = "Manter o desempenho atual"
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithStrengthThreshold sets the minimum normalized score listed as a strength.
func WithStrengthThreshold(v float64) Option {
	return func(g *Generator) {
		if v > 0 {
			g.strength = v
		}
	}
}

// WithSuggestionThreshold sets the score below which a suggestion is emitted.
func WithSuggestionThreshold(v float64) Option {
	return func(g *Generator) {
		if v > 0 {
			g.suggestion = v
		}
	}
}

// Generator turns criterion scores into strengths and suggestions.
type Generator struct {
	strength   float64
	suggestion float64
}

// NewGenerator creates a generator with the default 80/60 thresholds.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		strength:   DefaultStrengthThreshold,
		suggestion: DefaultSuggestionThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate lists strengths (score >= strength threshold) and suggestions
// (score < suggestion threshold) in the order of scores. An empty list is
// replaced by its single fallback message.
func (g *Generator) Generate(scores []model.CriterionScore) (strengths, suggestions []string) {
	for _, s := range scores {
		switch {
		case s.NormalizedScore >= g.strength:
			strengths = append(strengths, fmt.Sprintf("%s: %s%%", s.CriterionName, formatScore(s.NormalizedScore)))
		case s.NormalizedScore < g.suggestion:
			suggestions = append(suggestions, fmt.Sprintf("Melhorar %s (atual: %s%%)", s.CriterionName, formatScore(s.NormalizedScore)))
		}
	}
	if len(strengths) == 0 {
		strengths = []string{NoStrengthsMessage}
	}
	if len(suggestions) == 0 {
		suggestions = []string{NoSuggestionsMessage}
	}
	return strengths, suggestions
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
