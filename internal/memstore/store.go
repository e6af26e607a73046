// Package memstore is an in-memory record store for jobs, resumes and screening results.
// It backs tests and one-off CLI runs that have no database.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/jonathan/resume-screener/internal/types"
)

// Store keeps records in maps guarded by a single RWMutex.
// Records are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*types.JobPosting
	resumes map[string]*types.Resume
	results map[string][]*types.ScreeningResult
}

// New creates an empty store
func New() *Store {
	return &Store{
		jobs:    make(map[string]*types.JobPosting),
		resumes: make(map[string]*types.Resume),
		results: make(map[string][]*types.ScreeningResult),
	}
}

// CreateJob inserts or replaces a job posting
func (s *Store) CreateJob(_ context.Context, job *types.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// CreateResume inserts or replaces a resume
func (s *Store) CreateResume(_ context.Context, resume *types.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[resume.ID] = copyResume(resume)
	return nil
}

// GetJob returns the job or nil if absent
func (s *Store) GetJob(_ context.Context, id string) (*types.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return copyJob(job), nil
}

// GetResume returns the resume or nil if absent
func (s *Store) GetResume(_ context.Context, id string) (*types.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resumes[id]
	if !ok {
		return nil, nil
	}
	return copyResume(r), nil
}

// ListJobs returns all jobs ordered by creation time, then id
func (s *Store) ListJobs(_ context.Context) ([]*types.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.JobPosting, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, copyJob(j))
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}

// ListResumes returns the existing resumes among ids, or all resumes when ids is empty,
// ordered by creation time, then id
func (s *Store) ListResumes(_ context.Context, ids []string) ([]*types.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Resume, 0, len(s.resumes))
	if len(ids) == 0 {
		for _, r := range s.resumes {
			out = append(out, copyResume(r))
		}
	} else {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if r, ok := s.resumes[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, copyResume(r))
			}
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out, nil
}

// UpsertResults replaces all results of jobID in one step
func (s *Store) UpsertResults(_ context.Context, jobID string, results []*types.ScreeningResult) error {
	copied := make([]*types.ScreeningResult, len(results))
	for i, r := range results {
		copied[i] = copyResult(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = copied
	return nil
}

// ListResults returns the stored results of jobID ordered by rank
func (s *Store) ListResults(_ context.Context, jobID string) ([]*types.ScreeningResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.results[jobID]
	out := make([]*types.ScreeningResult, len(stored))
	for i, r := range stored {
		out[i] = copyResult(r)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Rank < out[k].Rank })
	return out, nil
}

// Stats counts stored records
func (s *Store) Stats(_ context.Context) (*types.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &types.StoreStats{Jobs: len(s.jobs), Resumes: len(s.resumes)}
	for _, rs := range s.results {
		stats.Results += len(rs)
	}
	return stats, nil
}

func copyJob(j *types.JobPosting) *types.JobPosting {
	c := *j
	c.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	c.Embedding = append([]float32(nil), j.Embedding...)
	return &c
}

func copyResume(r *types.Resume) *types.Resume {
	c := *r
	c.Skills = append([]string(nil), r.Skills...)
	c.Embedding = append([]float32(nil), r.Embedding...)
	return &c
}

func copyResult(r *types.ScreeningResult) *types.ScreeningResult {
	c := *r
	c.MatchedSkills = append([]string(nil), r.MatchedSkills...)
	return &c
}
