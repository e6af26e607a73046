package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
)

func sampleResults(n int) []*types.ScreeningResult {
	out := make([]*types.ScreeningResult, n)
	for i := range out {
		out[i] = &types.ScreeningResult{
			JobID:         "job-1",
			ResumeID:      fmt.Sprintf("r-%d", i),
			CandidateName: fmt.Sprintf("Candidate %d", i),
			OverallScore:  1 - float64(i)*0.05,
			Rank:          i + 1,
		}
	}
	return out
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	results := sampleResults(3)
	results[2].Partial = true
	p.PrintOutcome(&types.ScreeningRunOutcome{
		RunID:        "run-1",
		JobID:        "job-1",
		Status:       types.RunStatusPartial,
		ModelVersion: "hashing-v1-d256",
		Warning:      "embedding_unavailable: timed out",
		Results:      results,
	}, 0)
	output := buf.String()

	assert.Contains(t, output, "SCREENING RESULTS")
	assert.Contains(t, output, "partial")
	assert.Contains(t, output, "hashing-v1-d256")
	assert.Contains(t, output, "Candidate 0")
	assert.Contains(t, output, "1.000")
	assert.Contains(t, output, "semantic similarity unavailable")
}

func TestPrintOutcome_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutcome(nil, 5)
	assert.Empty(t, buf.String())
}

func TestPrintResults_Truncates(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResults("job-1", sampleResults(12), 10)
	output := buf.String()

	assert.Contains(t, output, "Candidate 9")
	assert.NotContains(t, output, "Candidate 10")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResults("job-1", nil, 0)
	assert.Contains(t, buf.String(), "No results.")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(&types.ScreeningResult{
		JobID:           "job-1",
		ResumeID:        "r-1",
		CandidateName:   "Ada",
		OverallScore:    0.527,
		SkillMatchScore: 0.5,
		MatchedSkills:   []string{"go", "python"},
		Notes:           "Moderate skill match",
	})
	output := buf.String()

	assert.Contains(t, output, "0.527")
	assert.Contains(t, output, "go, python")
	assert.Contains(t, output, "Moderate skill match")
}

func TestPrintBox_LongLinesTruncated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("TITLE", strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintIngested(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResume(&types.Resume{ID: "r-1", CandidateName: "Ada", Skills: []string{"go"}, ExperienceYears: 6})
	p.PrintJob(&types.JobPosting{ID: "j-1", Title: "Engineer", Embedding: []float32{1, 0}, EmbeddingModel: "m"})
	p.PrintStats(&types.StoreStats{Jobs: 1, Resumes: 2, Results: 3})
	output := buf.String()

	assert.Contains(t, output, "6.0 years")
	assert.Contains(t, output, "none (embedded at screening time)")
	assert.Contains(t, output, "m, 2 dims")
	assert.Contains(t, output, "Results:  3")
}
