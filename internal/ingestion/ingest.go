package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// Writer stores newly ingested records
type Writer interface {
	CreateResume(ctx context.Context, resume *types.Resume) error
	CreateJob(ctx context.Context, job *types.JobPosting) error
}

// ResumeInput is the already-extracted text of one resume
type ResumeInput struct {
	ID            string `json:"id,omitempty"`
	CandidateName string `json:"candidate_name,omitempty" validate:"max=200"`
	Content       string `json:"content" validate:"required"`
}

// JobInput is the already-extracted text of one job posting.
// RequiredSkills, when given, replace the skills found in the description.
type JobInput struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title" validate:"required,max=300"`
	Description    string   `json:"description" validate:"required"`
	RequiredSkills []string `json:"required_skills,omitempty" validate:"dive,required"`
}

// Ingester derives record fields from text and writes the records
type Ingester struct {
	extractor *skills.Extractor
	engine    embedding.Engine
	writer    Writer
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewIngester creates an ingester. engine may be nil, in which case records are stored
// without vectors and embedded on first screening.
func NewIngester(extractor *skills.Extractor, engine embedding.Engine, writer Writer, log *zap.Logger) *Ingester {
	return &Ingester{
		extractor: extractor,
		engine:    engine,
		writer:    writer,
		logger:    logger.WithFields(log),
		validate:  validator.New(),
		now:       time.Now,
	}
}

// IngestResume builds and stores a resume from its text
func (i *Ingester) IngestResume(ctx context.Context, in ResumeInput) (*types.Resume, error) {
	if err := i.validate.Struct(in); err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "invalid resume")
	}

	content := CleanContent(in.Content)
	now := i.now().UTC()
	resume := &types.Resume{
		ID:              in.ID,
		CandidateName:   in.CandidateName,
		Contact:         parsing.ExtractContact(content),
		Content:         content,
		NormalizedText:  parsing.Normalize(content),
		ExperienceYears: parsing.ExtractExperienceYearsAt(content, now),
		CreatedAt:       now,
	}
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}
	if resume.CandidateName == "" {
		resume.CandidateName = FirstLine(content)
	}
	resume.Skills = i.extractor.Extract(resume.NormalizedText)
	resume.Embedding, resume.EmbeddingModel = i.embed(ctx, resume.NormalizedText, "resume", resume.ID)

	if err := i.writer.CreateResume(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	i.logger.Info("resume ingested",
		zap.String(logger.FieldResumeID, resume.ID),
		zap.String("preview", logger.TruncateForLog(resume.NormalizedText, previewLength)),
		zap.Int("skills", len(resume.Skills)),
		zap.Float64("experience_years", resume.ExperienceYears),
		zap.Bool("embedded", len(resume.Embedding) > 0))
	return resume, nil
}

// previewLength bounds the content preview written to logs
const previewLength = 80

// IngestJob builds and stores a job posting from its text
func (i *Ingester) IngestJob(ctx context.Context, in JobInput) (*types.JobPosting, error) {
	if err := i.validate.Struct(in); err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "invalid job posting")
	}

	description := CleanContent(in.Description)
	job := &types.JobPosting{
		ID:             in.ID,
		Title:          in.Title,
		Description:    description,
		NormalizedText: parsing.Normalize(in.Title + "\n" + description),
		CreatedAt:      i.now().UTC(),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if len(in.RequiredSkills) > 0 {
		job.RequiredSkills = i.extractor.Taxonomy().Canonicalize(in.RequiredSkills)
	} else {
		job.RequiredSkills = i.extractor.Extract(job.NormalizedText)
	}
	job.Embedding, job.EmbeddingModel = i.embed(ctx, job.NormalizedText, "job", job.ID)

	if err := i.writer.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	i.logger.Info("job ingested",
		zap.String(logger.FieldJobID, job.ID),
		zap.String("preview", logger.TruncateForLog(job.Description, previewLength)),
		zap.Strings("required_skills", job.RequiredSkills),
		zap.Bool("embedded", len(job.Embedding) > 0))
	return job, nil
}

// embed returns the vector for text, or nothing when the engine is absent or failing
func (i *Ingester) embed(ctx context.Context, text, kind, id string) ([]float32, string) {
	if i.engine == nil {
		return nil, ""
	}
	vec, err := i.engine.Embed(ctx, text)
	if err != nil {
		i.logger.Warn("embedding skipped during ingestion",
			zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		return nil, ""
	}
	return vec, i.engine.ModelVersion()
}
