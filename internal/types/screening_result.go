package types

import "time"

// ScreeningResult is the score of one resume against one job.
// All score fields lie in [0,1]; Rank is 1-based and contiguous per job.
// Partial is set when the result was computed without a semantic signal.
type ScreeningResult struct {
	JobID                   string    `json:"job_id"`
	ResumeID                string    `json:"resume_id"`
	CandidateName           string    `json:"candidate_name"`
	SkillMatchScore         float64   `json:"skill_match_score"`
	SemanticSimilarityScore float64   `json:"semantic_similarity_score"`
	ExperienceScore         float64   `json:"experience_score"`
	OverallScore            float64   `json:"overall_score"`
	MatchedSkills           []string  `json:"matched_skills"`
	Rank                    int       `json:"rank"`
	Partial                 bool      `json:"partial"`
	Notes                   string    `json:"notes,omitempty"`
	ComputedAt              time.Time `json:"computed_at"`
}

// RunStatus describes how a screening run finished
type RunStatus string

// Run statuses
const (
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial"
)

// ScreeningRunOutcome is what a screening run returns to its caller.
// Warning carries the embedding failure that degraded the run, if any.
type ScreeningRunOutcome struct {
	RunID        string             `json:"run_id"`
	JobID        string             `json:"job_id"`
	Status       RunStatus          `json:"status"`
	ModelVersion string             `json:"model_version"`
	Results      []*ScreeningResult `json:"results"`
	Warning      string             `json:"warning,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
}

// Degraded reports whether any result was computed without semantic similarity
func (o *ScreeningRunOutcome) Degraded() bool {
	return o.Status == RunStatusPartial
}
