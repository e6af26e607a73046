// Package observability provides human-readable CLI output for screening runs.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// DefaultMaxRows is the number of ranked rows shown when no limit is given
	DefaultMaxRows = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// PrintOutcome outputs the ranked table of a screening run, showing at most maxRows rows
func (p *Printer) PrintOutcome(outcome *types.ScreeningRunOutcome, maxRows int) {
	if outcome == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", outcome.JobID))
	sb.WriteString(fmt.Sprintf("Run:      %s\n", outcome.RunID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", outcome.Status))
	if outcome.ModelVersion != "" {
		sb.WriteString(fmt.Sprintf("Model:    %s\n", outcome.ModelVersion))
	}
	if outcome.Warning != "" {
		sb.WriteString(fmt.Sprintf("Warning:  %s\n", outcome.Warning))
	}
	sb.WriteString("\n")
	sb.WriteString(rankTable(outcome.Results, maxRows))

	p.printBox("SCREENING RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResults outputs stored results of a job
func (p *Printer) PrintResults(jobID string, results []*types.ScreeningResult, maxRows int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n\n", jobID))
	sb.WriteString(rankTable(results, maxRows))
	p.printBox("STORED RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

func rankTable(results []*types.ScreeningResult, maxRows int) string {
	if len(results) == 0 {
		return "No results.\n"
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-24s %7s %6s %6s %6s\n", "#", "Candidate", "Overall", "Skill", "Sem", "Exp"))
	count := min(len(results), maxRows)
	for i := 0; i < count; i++ {
		r := results[i]
		name := r.CandidateName
		if name == "" {
			name = r.ResumeID
		}
		marker := ""
		if r.Partial {
			marker = " *"
		}
		sb.WriteString(fmt.Sprintf("%-4d %-24s %7.3f %6.2f %6.2f %6.2f%s\n",
			r.Rank, truncate(name, 24), r.OverallScore, r.SkillMatchScore,
			r.SemanticSimilarityScore, r.ExperienceScore, marker))
	}
	if len(results) > count {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(results)-count))
	}
	for _, r := range results[:count] {
		if r.Partial {
			sb.WriteString("* semantic similarity unavailable\n")
			break
		}
	}
	return sb.String()
}

// PrintResult outputs the full breakdown of one score
func (p *Printer) PrintResult(result *types.ScreeningResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resume:     %s\n", result.ResumeID))
	if result.CandidateName != "" {
		sb.WriteString(fmt.Sprintf("Candidate:  %s\n", result.CandidateName))
	}
	sb.WriteString(fmt.Sprintf("Job:        %s\n\n", result.JobID))
	sb.WriteString(fmt.Sprintf("Overall:    %.3f\n", result.OverallScore))
	sb.WriteString(fmt.Sprintf("Skills:     %.3f\n", result.SkillMatchScore))
	sb.WriteString(fmt.Sprintf("Semantic:   %.3f\n", result.SemanticSimilarityScore))
	sb.WriteString(fmt.Sprintf("Experience: %.3f\n", result.ExperienceScore))
	if len(result.MatchedSkills) > 0 {
		sb.WriteString(fmt.Sprintf("Matched:    %s\n", strings.Join(result.MatchedSkills, ", ")))
	}
	if result.Notes != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Notes)
	}

	p.printBox("SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResume outputs what ingestion derived from a resume
func (p *Printer) PrintResume(resume *types.Resume) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:         %s\n", resume.ID))
	sb.WriteString(fmt.Sprintf("Candidate:  %s\n", resume.CandidateName))
	if resume.Contact.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:      %s\n", resume.Contact.Email))
	}
	if resume.Contact.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone:      %s\n", resume.Contact.Phone))
	}
	sb.WriteString(fmt.Sprintf("Experience: %.1f years\n", resume.ExperienceYears))
	sb.WriteString(fmt.Sprintf("Skills:     %s\n", joinOrNone(resume.Skills)))
	sb.WriteString(fmt.Sprintf("Embedding:  %s", embeddingSummary(resume.Embedding, resume.EmbeddingModel)))

	p.printBox("INGESTED RESUME", sb.String())
}

// PrintJob outputs what ingestion derived from a job posting
func (p *Printer) PrintJob(job *types.JobPosting) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:         %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Title:      %s\n", job.Title))
	sb.WriteString(fmt.Sprintf("Required:   %s\n", joinOrNone(job.RequiredSkills)))
	sb.WriteString(fmt.Sprintf("Embedding:  %s", embeddingSummary(job.Embedding, job.EmbeddingModel)))

	p.printBox("INGESTED JOB", sb.String())
}

// PrintStats outputs record counts
func (p *Printer) PrintStats(stats *types.StoreStats) {
	if stats == nil {
		return
	}
	p.printBox("STORE", fmt.Sprintf("Jobs:     %d\nResumes:  %d\nResults:  %d",
		stats.Jobs, stats.Resumes, stats.Results))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func embeddingSummary(vec []float32, model string) string {
	if len(vec) == 0 {
		return "none (embedded at screening time)"
	}
	return fmt.Sprintf("%s, %d dims", model, len(vec))
}
