//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db
}

func seed(t *testing.T, db *DB) (*types.JobPosting, []*types.Resume) {
	t.Helper()
	ctx := context.Background()
	prefix := "it-" + uuid.NewString()[:8]

	job := &types.JobPosting{
		ID:             prefix + "-job",
		Title:          "Backend Engineer",
		Description:    "Go and PostgreSQL",
		RequiredSkills: []string{"go", "postgresql"},
		Embedding:      []float32{0.6, 0.8},
		EmbeddingModel: "hashing-v1-d2",
	}
	require.NoError(t, db.CreateJob(ctx, job))

	base := time.Now().UTC().Truncate(time.Millisecond)
	var resumes []*types.Resume
	for i, name := range []string{"Ada", "Grace"} {
		r := &types.Resume{
			ID:              prefix + "-" + name,
			CandidateName:   name,
			Contact:         types.Contact{Email: name + "@example.com"},
			Content:         name + " writes Go",
			Skills:          []string{"go"},
			ExperienceYears: float64(i + 3),
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.CreateResume(ctx, r))
		resumes = append(resumes, r)
	}

	t.Cleanup(func() {
		_, _ = db.pool.Exec(ctx, "DELETE FROM jobs WHERE id LIKE $1", prefix+"%")
		_, _ = db.pool.Exec(ctx, "DELETE FROM resumes WHERE id LIKE $1", prefix+"%")
	})
	return job, resumes
}

func TestIntegration_JobAndResumeRoundTrip(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	job, resumes := seed(t, db)

	got, err := db.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.RequiredSkills, got.RequiredSkills)
	assert.Equal(t, job.Embedding, got.Embedding)
	assert.Equal(t, job.EmbeddingModel, got.EmbeddingModel)

	r, err := db.GetResume(ctx, resumes[0].ID)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Ada@example.com", r.Contact.Email)
	assert.Nil(t, r.Embedding)

	missing, err := db.GetResume(ctx, "absent-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	subset, err := db.ListResumes(ctx, []string{resumes[1].ID, "absent"})
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, resumes[1].ID, subset[0].ID)
}

func TestIntegration_UpsertResultsReplaces(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	job, resumes := seed(t, db)

	first := []*types.ScreeningResult{
		{JobID: job.ID, ResumeID: resumes[0].ID, OverallScore: 0.9, SkillMatchScore: 1, Rank: 1, MatchedSkills: []string{"go"}},
		{JobID: job.ID, ResumeID: resumes[1].ID, OverallScore: 0.5, SkillMatchScore: 0.5, Rank: 2},
	}
	require.NoError(t, db.UpsertResults(ctx, job.ID, first))

	second := []*types.ScreeningResult{
		{JobID: job.ID, ResumeID: resumes[1].ID, OverallScore: 0.7, Rank: 1, Partial: true},
	}
	require.NoError(t, db.UpsertResults(ctx, job.ID, second))

	stored, err := db.ListResults(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, resumes[1].ID, stored[0].ResumeID)
	assert.True(t, stored[0].Partial)
	assert.Equal(t, 1, stored[0].Rank)
}

func TestIntegration_UpsertResultsRollsBack(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	job, resumes := seed(t, db)

	original := []*types.ScreeningResult{
		{JobID: job.ID, ResumeID: resumes[0].ID, OverallScore: 0.9, Rank: 1},
	}
	require.NoError(t, db.UpsertResults(ctx, job.ID, original))

	// Duplicate rank violates the unique constraint, so nothing may change
	broken := []*types.ScreeningResult{
		{JobID: job.ID, ResumeID: resumes[0].ID, OverallScore: 0.4, Rank: 1},
		{JobID: job.ID, ResumeID: resumes[1].ID, OverallScore: 0.3, Rank: 1},
	}
	require.Error(t, db.UpsertResults(ctx, job.ID, broken))

	stored, err := db.ListResults(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.9, stored[0].OverallScore, 1e-9)
}
