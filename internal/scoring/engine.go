package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
)

// Engine scores a resume against a job posting. It is stateless after construction
// and safe for concurrent use.
type Engine struct {
	weights       Weights
	experienceCap float64
	taxonomy      *skills.Taxonomy
	now           func() time.Time
}

// NewEngine validates weights and the experience cap and returns an engine.
// taxonomy resolves synonyms between required and resume skills; nil means exact names only.
func NewEngine(weights Weights, experienceCap float64, taxonomy *skills.Taxonomy) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if experienceCap <= 0 || math.IsNaN(experienceCap) || math.IsInf(experienceCap, 0) {
		return nil, types.NewError(types.KindConfiguration, "experience cap must be positive, got %v", experienceCap)
	}
	return &Engine{
		weights:       weights,
		experienceCap: experienceCap,
		taxonomy:      taxonomy,
		now:           time.Now,
	}, nil
}

// Weights returns the engine's weights
func (e *Engine) Weights() Weights {
	return e.weights
}

// ScoreOne computes all component scores for resume against job. No rank is assigned.
// Missing vectors yield a partial result with semantic_similarity_score 0; vectors from
// different model versions or dimensions are rejected with a model_mismatch error.
func (e *Engine) ScoreOne(resume *types.Resume, job *types.JobPosting) (*types.ScreeningResult, error) {
	if resume == nil || job == nil {
		return nil, types.NewError(types.KindNotFound, "resume and job are required")
	}

	matched, skillScore := e.matchSkills(job.RequiredSkills, resume.Skills)

	semantic, partial, err := semanticScore(resume, job)
	if err != nil {
		return nil, err
	}

	experience := ExperienceScore(resume.ExperienceYears, e.experienceCap)
	overall := clamp01(e.weights.Combine(skillScore, semantic, experience))

	result := &types.ScreeningResult{
		JobID:                   job.ID,
		ResumeID:                resume.ID,
		CandidateName:           resume.CandidateName,
		SkillMatchScore:         skillScore,
		SemanticSimilarityScore: semantic,
		ExperienceScore:         experience,
		OverallScore:            overall,
		MatchedSkills:           matched,
		Partial:                 partial,
		ComputedAt:              e.now().UTC(),
	}
	result.Notes = Explain(result)
	return result, nil
}

// matchSkills returns the required skills present in the resume after synonym
// resolution, and their fraction of the distinct required skills.
// Extra resume skills never contribute.
func (e *Engine) matchSkills(required, have []string) ([]string, float64) {
	canonical := func(s string) string {
		if e.taxonomy != nil {
			if c, ok := e.taxonomy.Canonical(s); ok {
				return c
			}
		}
		return parsing.NormalizeSkillName(s)
	}

	haveSet := make(map[string]bool, len(have))
	for _, s := range have {
		haveSet[canonical(s)] = true
	}

	seen := make(map[string]bool, len(required))
	matched := make([]string, 0)
	for _, req := range required {
		c := canonical(req)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if haveSet[c] {
			matched = append(matched, req)
		}
	}
	sort.Strings(matched)

	if len(seen) == 0 {
		return matched, 0.0
	}
	return matched, float64(len(matched)) / float64(len(seen))
}

func semanticScore(resume *types.Resume, job *types.JobPosting) (float64, bool, error) {
	if len(resume.Embedding) == 0 || len(job.Embedding) == 0 {
		return 0.0, true, nil
	}
	if resume.EmbeddingModel != job.EmbeddingModel || len(resume.Embedding) != len(job.Embedding) {
		return 0, false, types.NewError(types.KindModelMismatch,
			"resume %s vector (%s, d=%d) is not comparable with job %s vector (%s, d=%d)",
			resume.ID, resume.EmbeddingModel, len(resume.Embedding),
			job.ID, job.EmbeddingModel, len(job.Embedding))
	}
	return math.Max(0, embedding.Cosine(resume.Embedding, job.Embedding)), false, nil
}

// ExperienceScore is linear in years up to experienceCap and saturates at 1
func ExperienceScore(years, experienceCap float64) float64 {
	if years <= 0 || experienceCap <= 0 {
		return 0.0
	}
	return math.Min(1.0, years/experienceCap)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
