package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-screener/internal/types"
)

const resultColumns = `job_id, resume_id, candidate_name, skill_match_score,
	semantic_similarity_score, experience_score, overall_score, matched_skills,
	rank, partial, notes, computed_at`

// UpsertResults replaces every stored result of jobID in a single transaction,
// so readers see either the previous run or the new one.
func (db *DB) UpsertResults(ctx context.Context, jobID string, results []*types.ScreeningResult) (err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && rErr != pgx.ErrTxClosed && err == nil {
			err = fmt.Errorf("failed to rollback: %w", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM screening_results WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear results for job %s: %w", jobID, err)
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(
			`INSERT INTO screening_results (`+resultColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			jobID, r.ResumeID, r.CandidateName, r.SkillMatchScore,
			r.SemanticSimilarityScore, r.ExperienceScore, r.OverallScore, nonNil(r.MatchedSkills),
			r.Rank, r.Partial, r.Notes, createdAt(r.ComputedAt),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert results for job %s: %w", jobID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// ListResults returns the stored results of jobID ordered by rank
func (db *DB) ListResults(ctx context.Context, jobID string) ([]*types.ScreeningResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM screening_results WHERE job_id = $1 ORDER BY rank`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []*types.ScreeningResult{}
	for rows.Next() {
		var r types.ScreeningResult
		if err := rows.Scan(&r.JobID, &r.ResumeID, &r.CandidateName, &r.SkillMatchScore,
			&r.SemanticSimilarityScore, &r.ExperienceScore, &r.OverallScore, &r.MatchedSkills,
			&r.Rank, &r.Partial, &r.Notes, &r.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Stats counts stored records
func (db *DB) Stats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := db.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM jobs),
		        (SELECT COUNT(*) FROM resumes),
		        (SELECT COUNT(*) FROM screening_results)`,
	).Scan(&stats.Jobs, &stats.Resumes, &stats.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	return &stats, nil
}
