package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

const maxNotedSkills = 5

// Explain builds a short human-readable explanation of a result's component scores
func Explain(r *types.ScreeningResult) string {
	var notes []string

	skillPct := r.SkillMatchScore * 100
	switch {
	case skillPct >= 80:
		notes = append(notes, fmt.Sprintf("Excellent skill match (%.0f%%)", skillPct))
	case skillPct >= 60:
		notes = append(notes, fmt.Sprintf("Good skill match (%.0f%%)", skillPct))
	case skillPct >= 40:
		notes = append(notes, fmt.Sprintf("Moderate skill match (%.0f%%)", skillPct))
	default:
		notes = append(notes, fmt.Sprintf("Limited skill match (%.0f%%)", skillPct))
	}

	semanticPct := r.SemanticSimilarityScore * 100
	switch {
	case r.Partial:
		notes = append(notes, "Semantic similarity unavailable")
	case semanticPct >= 75:
		notes = append(notes, fmt.Sprintf("Strong semantic alignment (%.0f%%)", semanticPct))
	case semanticPct >= 50:
		notes = append(notes, fmt.Sprintf("Moderate semantic alignment (%.0f%%)", semanticPct))
	default:
		notes = append(notes, fmt.Sprintf("Weak semantic alignment (%.0f%%)", semanticPct))
	}

	switch {
	case r.ExperienceScore >= 1:
		notes = append(notes, "Meets or exceeds experience requirements")
	case r.ExperienceScore >= 0.75:
		notes = append(notes, "Close to experience requirements")
	default:
		notes = append(notes, "Below experience requirements")
	}

	if len(r.MatchedSkills) > 0 {
		shown := r.MatchedSkills
		if len(shown) > maxNotedSkills {
			shown = shown[:maxNotedSkills]
		}
		list := strings.Join(shown, ", ")
		if extra := len(r.MatchedSkills) - len(shown); extra > 0 {
			list += fmt.Sprintf(" (+%d more)", extra)
		}
		notes = append(notes, "Matched skills: "+list)
	}

	return strings.Join(notes, " | ")
}
