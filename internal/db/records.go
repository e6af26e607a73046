package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-screener/internal/types"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

const jobColumns = `id, title, description, normalized_text, required_skills,
	embedding, embedding_model, created_at`

// CreateJob inserts a job posting or replaces the stored one with the same ID
func (db *DB) CreateJob(ctx context.Context, job *types.JobPosting) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		     title = EXCLUDED.title,
		     description = EXCLUDED.description,
		     normalized_text = EXCLUDED.normalized_text,
		     required_skills = EXCLUDED.required_skills,
		     embedding = EXCLUDED.embedding,
		     embedding_model = EXCLUDED.embedding_model`,
		job.ID, job.Title, job.Description, job.NormalizedText, nonNil(job.RequiredSkills),
		job.Embedding, job.EmbeddingModel, createdAt(job.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob retrieves a job by ID, or nil if it does not exist
func (db *DB) GetJob(ctx context.Context, id string) (*types.JobPosting, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs ordered by creation time
func (db *DB) ListJobs(ctx context.Context) ([]*types.JobPosting, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*types.JobPosting, error) {
	var j types.JobPosting
	if err := row.Scan(&j.ID, &j.Title, &j.Description, &j.NormalizedText, &j.RequiredSkills,
		&j.Embedding, &j.EmbeddingModel, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// -----------------------------------------------------------------------------
// Resume Methods
// -----------------------------------------------------------------------------

const resumeColumns = `id, candidate_name, contact, content, normalized_text, skills,
	experience_years, embedding, embedding_model, created_at`

// CreateResume inserts a resume or replaces the stored one with the same ID
func (db *DB) CreateResume(ctx context.Context, resume *types.Resume) error {
	contactJSON, err := json.Marshal(resume.Contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO resumes (`+resumeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     candidate_name = EXCLUDED.candidate_name,
		     contact = EXCLUDED.contact,
		     content = EXCLUDED.content,
		     normalized_text = EXCLUDED.normalized_text,
		     skills = EXCLUDED.skills,
		     experience_years = EXCLUDED.experience_years,
		     embedding = EXCLUDED.embedding,
		     embedding_model = EXCLUDED.embedding_model`,
		resume.ID, resume.CandidateName, contactJSON, resume.Content, resume.NormalizedText,
		nonNil(resume.Skills), resume.ExperienceYears, resume.Embedding, resume.EmbeddingModel,
		createdAt(resume.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save resume %s: %w", resume.ID, err)
	}
	return nil
}

// GetResume retrieves a resume by ID, or nil if it does not exist
func (db *DB) GetResume(ctx context.Context, id string) (*types.Resume, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id)
	resume, err := scanResume(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

// ListResumes returns the existing resumes among ids, or every resume when ids is empty,
// ordered by creation time, then id
func (db *DB) ListResumes(ctx context.Context, ids []string) ([]*types.Resume, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(ids) == 0 {
		rows, err = db.pool.Query(ctx,
			`SELECT `+resumeColumns+` FROM resumes ORDER BY created_at, id`)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT `+resumeColumns+` FROM resumes WHERE id = ANY($1) ORDER BY created_at, id`, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*types.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

func scanResume(row pgx.Row) (*types.Resume, error) {
	var r types.Resume
	var contactJSON []byte
	if err := row.Scan(&r.ID, &r.CandidateName, &contactJSON, &r.Content, &r.NormalizedText,
		&r.Skills, &r.ExperienceYears, &r.Embedding, &r.EmbeddingModel, &r.CreatedAt); err != nil {
		return nil, err
	}
	if contactJSON != nil {
		if err := json.Unmarshal(contactJSON, &r.Contact); err != nil {
			return nil, fmt.Errorf("failed to decode contact: %w", err)
		}
	}
	return &r, nil
}
