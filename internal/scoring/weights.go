// Package scoring combines skill, semantic and experience signals into a weighted score
// for a (resume, job) pair.
package scoring

import (
	"math"

	"github.com/jonathan/resume-screener/internal/types"
)

// Default weights for scoring components
const (
	DefaultSkillWeight      = 0.4
	DefaultSemanticWeight   = 0.4
	DefaultExperienceWeight = 0.2

	// DefaultExperienceCap is the number of years at which experience_score saturates
	DefaultExperienceCap = 10.0

	weightSumTolerance = 1e-6
)

// Weights holds the relative importance of each scoring component
type Weights struct {
	Skill      float64 `json:"skill" mapstructure:"skill"`
	Semantic   float64 `json:"semantic" mapstructure:"semantic"`
	Experience float64 `json:"experience" mapstructure:"experience"`
}

// DefaultWeights returns 0.4 / 0.4 / 0.2
func DefaultWeights() Weights {
	return Weights{
		Skill:      DefaultSkillWeight,
		Semantic:   DefaultSemanticWeight,
		Experience: DefaultExperienceWeight,
	}
}

// Validate checks that every weight is non-negative and that they sum to 1 within 1e-6
func (w Weights) Validate() error {
	components := []struct {
		name  string
		value float64
	}{
		{"skill", w.Skill},
		{"semantic", w.Semantic},
		{"experience", w.Experience},
	}
	for _, c := range components {
		if c.value < 0 || math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return types.NewError(types.KindConfiguration, "weight %s must be a non-negative number, got %v", c.name, c.value)
		}
	}
	if sum := w.Skill + w.Semantic + w.Experience; math.Abs(sum-1) > weightSumTolerance {
		return types.NewError(types.KindConfiguration, "weights must sum to 1, got %.6f", sum)
	}
	return nil
}

// Combine returns the weighted sum of the three component scores
func (w Weights) Combine(skill, semantic, experience float64) float64 {
	return w.Skill*skill + w.Semantic*semantic + w.Experience*experience
}
