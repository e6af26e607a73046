// Package screening coordinates screening runs: it loads a job and its candidate resumes,
// scores and ranks them, and writes the complete result set in one step.
package screening

import (
	"context"

	"github.com/jonathan/resume-screener/internal/types"
)

// Store is the storage collaborator of the orchestrator.
// Lookups return nil, nil when the record does not exist.
type Store interface {
	GetJob(ctx context.Context, id string) (*types.JobPosting, error)
	GetResume(ctx context.Context, id string) (*types.Resume, error)
	// ListResumes returns the resumes with the given ids that exist, or every resume when ids is empty
	ListResumes(ctx context.Context, ids []string) ([]*types.Resume, error)
	// UpsertResults atomically replaces all stored results of jobID with results
	UpsertResults(ctx context.Context, jobID string, results []*types.ScreeningResult) error
}
