// Package ranking orders a job's scored candidates into a stable rank sequence.
package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

// Rank sorts results best-first and assigns ranks 1..N in place.
// Order: overall score desc, skill match desc, candidate name asc (case-insensitive),
// resume id asc. Equal scores still receive distinct, contiguous ranks.
func Rank(results []*types.ScreeningResult) []*types.ScreeningResult {
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i], results[j])
	})
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}

func less(a, b *types.ScreeningResult) bool {
	if a.OverallScore != b.OverallScore {
		return a.OverallScore > b.OverallScore
	}
	if a.SkillMatchScore != b.SkillMatchScore {
		return a.SkillMatchScore > b.SkillMatchScore
	}
	an, bn := strings.ToLower(a.CandidateName), strings.ToLower(b.CandidateName)
	if an != bn {
		return an < bn
	}
	return a.ResumeID < b.ResumeID
}

// TopK returns the first k ranked results. k <= 0 returns all of them.
func TopK(ranked []*types.ScreeningResult, k int) []*types.ScreeningResult {
	if k <= 0 || k >= len(ranked) {
		return ranked
	}
	return ranked[:k]
}

// FilterByThreshold keeps results whose overall score is at least minScore, preserving order.
// Ranks are left as assigned over the full set.
func FilterByThreshold(ranked []*types.ScreeningResult, minScore float64) []*types.ScreeningResult {
	out := make([]*types.ScreeningResult, 0, len(ranked))
	for _, r := range ranked {
		if r.OverallScore >= minScore {
			out = append(out, r)
		}
	}
	return out
}
