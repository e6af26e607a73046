package screening

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ConflictPolicy decides what happens when a run is requested for a job that is already running
type ConflictPolicy string

const (
	// ConflictReject fails the second request with a concurrency_conflict error
	ConflictReject ConflictPolicy = "reject"
	// ConflictWait joins the in-flight run and returns its outcome
	ConflictWait ConflictPolicy = "wait"
)

// Default orchestrator settings
const (
	DefaultWorkers = 8
	DefaultLockTTL = 5 * time.Minute
)

// Options configures an Orchestrator
type Options struct {
	Workers        int
	ConflictPolicy ConflictPolicy
	FailOnDegraded bool
	BatchSize      int
	// Lock, when set, also excludes runs of the same job in other processes
	Lock    DistributedLock
	LockTTL time.Duration
}

// DefaultOptions returns reject-on-conflict with eight scoring workers
func DefaultOptions() Options {
	return Options{
		Workers:        DefaultWorkers,
		ConflictPolicy: ConflictReject,
		BatchSize:      embedding.DefaultBatchSize,
		LockTTL:        DefaultLockTTL,
	}
}

// Orchestrator runs screenings. At most one run per job executes at any time.
type Orchestrator struct {
	store  Store
	engine embedding.Engine
	scorer *scoring.Engine
	logger *zap.Logger
	opts   Options

	locks  *KeyedMutex
	flight singleflight.Group
	now    func() time.Time
}

// NewOrchestrator wires the orchestrator's collaborators
func NewOrchestrator(store Store, engine embedding.Engine, scorer *scoring.Engine, logger *zap.Logger, opts Options) (*Orchestrator, error) {
	if store == nil || engine == nil || scorer == nil {
		return nil, types.NewError(types.KindConfiguration, "store, embedding engine and scorer are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = embedding.DefaultBatchSize
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	switch opts.ConflictPolicy {
	case "":
		opts.ConflictPolicy = ConflictReject
	case ConflictReject, ConflictWait:
	default:
		return nil, types.NewError(types.KindConfiguration, "unknown conflict policy %q", opts.ConflictPolicy)
	}

	return &Orchestrator{
		store:  store,
		engine: engine,
		scorer: scorer,
		logger: logger,
		opts:   opts,
		locks:  NewKeyedMutex(),
		now:    time.Now,
	}, nil
}

// ScreenJob scores every requested resume against jobID, ranks them and replaces the
// job's stored results. An empty resumeIDs means all resumes in storage.
func (o *Orchestrator) ScreenJob(ctx context.Context, jobID string, resumeIDs []string) (*types.ScreeningRunOutcome, error) {
	if o.opts.ConflictPolicy != ConflictWait {
		return o.runExclusive(ctx, jobID, resumeIDs)
	}

	// Waiters must see their own not_found before joining someone else's run
	if err := o.checkRequest(ctx, jobID, resumeIDs); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-o.screenShared(ctx, jobID, resumeIDs):
		if res.Shared {
			o.logger.Debug("joined in-flight screening run", zap.String(logger.FieldJobID, jobID))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.ScreeningRunOutcome), nil
	}
}

// screenShared starts a run or joins the in-flight run for the same job and resume set.
// A run for the same job with a different resume set is rejected as a conflict.
func (o *Orchestrator) screenShared(ctx context.Context, jobID string, resumeIDs []string) <-chan singleflight.Result {
	return o.flight.DoChan(flightKey(jobID, resumeIDs), func() (any, error) {
		return o.runExclusive(ctx, jobID, resumeIDs)
	})
}

func flightKey(jobID string, resumeIDs []string) string {
	ids := dedupe(resumeIDs)
	sort.Strings(ids)
	return jobID + "\x00" + strings.Join(ids, "\x00")
}

// checkRequest verifies that the job and every named resume exist
func (o *Orchestrator) checkRequest(ctx context.Context, jobID string, resumeIDs []string) error {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return types.NewError(types.KindNotFound, "job %s not found", jobID)
	}
	if len(dedupe(resumeIDs)) == 0 {
		return nil
	}
	_, err = o.loadResumes(ctx, resumeIDs)
	return err
}

// InFlight reports whether a run for jobID is executing in this process
func (o *Orchestrator) InFlight(jobID string) bool {
	return o.locks.Held(jobID)
}

func (o *Orchestrator) runExclusive(ctx context.Context, jobID string, resumeIDs []string) (*types.ScreeningRunOutcome, error) {
	if !o.locks.TryLock(jobID) {
		return nil, types.NewError(types.KindConcurrencyConflict, "screening run for job %s is already in progress", jobID)
	}
	defer o.locks.Unlock(jobID)

	if o.opts.Lock != nil {
		token, err := o.opts.Lock.Acquire(ctx, jobID, o.opts.LockTTL)
		if err != nil {
			return nil, err
		}
		if token == "" {
			return nil, types.NewError(types.KindConcurrencyConflict, "screening run for job %s is in progress elsewhere", jobID)
		}
		defer func() {
			// Release even if the run's context was cancelled
			if err := o.opts.Lock.Release(context.WithoutCancel(ctx), jobID, token); err != nil {
				o.logger.Warn("failed to release screening lock", zap.String(logger.FieldJobID, jobID), zap.Error(err))
			}
		}()
	}

	return o.run(ctx, jobID, resumeIDs)
}

func (o *Orchestrator) run(ctx context.Context, jobID string, resumeIDs []string) (*types.ScreeningRunOutcome, error) {
	started := o.now()
	log := logger.WithFields(o.logger, zap.String(logger.FieldJobID, jobID))

	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return nil, types.NewError(types.KindNotFound, "job %s not found", jobID)
	}

	resumes, err := o.loadResumes(ctx, resumeIDs)
	if err != nil {
		return nil, err
	}
	log.Info("screening run started", zap.Int("resume_count", len(resumes)))

	prepared, err := o.prepare(ctx, job, resumes)
	if err != nil {
		return nil, err
	}
	if prepared.warning != "" {
		log.Warn("screening run degraded", zap.String("warning", prepared.warning))
	}

	results, err := o.scoreAll(ctx, prepared.job, prepared.resumes)
	if err != nil {
		return nil, err
	}
	ranking.Rank(results)

	if err := o.store.UpsertResults(ctx, jobID, results); err != nil {
		return nil, fmt.Errorf("failed to store results for job %s: %w", jobID, err)
	}

	outcome := &types.ScreeningRunOutcome{
		RunID:        uuid.NewString(),
		JobID:        jobID,
		Status:       types.RunStatusComplete,
		ModelVersion: o.engine.ModelVersion(),
		Results:      results,
		Warning:      prepared.warning,
		StartedAt:    started.UTC(),
		FinishedAt:   o.now().UTC(),
	}
	for _, r := range results {
		if r.Partial {
			outcome.Status = types.RunStatusPartial
			break
		}
	}

	log.Info("screening run finished",
		zap.String("status", string(outcome.Status)),
		zap.Int("resume_count", len(results)),
		zap.String(logger.FieldModelVersion, outcome.ModelVersion),
		zap.Bool("degraded", outcome.Degraded()),
		zap.Duration("duration", outcome.FinishedAt.Sub(outcome.StartedAt)))

	return outcome, nil
}

func (o *Orchestrator) loadResumes(ctx context.Context, ids []string) ([]*types.Resume, error) {
	wanted := dedupe(ids)

	resumes, err := o.store.ListResumes(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	if len(wanted) == 0 {
		return resumes, nil
	}

	found := make(map[string]bool, len(resumes))
	for _, r := range resumes {
		found[r.ID] = true
	}
	var missing []string
	for _, id := range wanted {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewError(types.KindNotFound, "resumes not found: %s", strings.Join(missing, ", "))
	}
	return resumes, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type preparedRun struct {
	job     *types.JobPosting
	resumes []*types.Resume
	warning string
}

// prepare gives the job and every resume a vector from the current model.
// Stored vectors are reused when their model version and dimension match; the rest
// are embedded in batches. Stored records are copied, never modified.
// If embedding fails the affected records carry no vector and score as partial.
func (o *Orchestrator) prepare(ctx context.Context, job *types.JobPosting, resumes []*types.Resume) (*preparedRun, error) {
	jobCopy := *job
	p := &preparedRun{job: &jobCopy, resumes: make([]*types.Resume, len(resumes))}

	var failures []error

	if !embedding.Compatible(o.engine, job.EmbeddingModel, job.Embedding) {
		vec, err := o.engine.Embed(ctx, jobText(job))
		if err != nil {
			failures = append(failures, err)
			jobCopy.Embedding, jobCopy.EmbeddingModel = nil, ""
		} else {
			jobCopy.Embedding, jobCopy.EmbeddingModel = vec, o.engine.ModelVersion()
		}
	}

	var stale []int
	for i, r := range resumes {
		c := *r
		p.resumes[i] = &c
		if !embedding.Compatible(o.engine, r.EmbeddingModel, r.Embedding) {
			stale = append(stale, i)
		}
	}

	if len(stale) > 0 {
		texts := make([]string, len(stale))
		for j, i := range stale {
			texts[j] = resumeText(p.resumes[i])
		}
		vecs, err := embedding.EmbedAll(ctx, o.engine, texts, o.opts.BatchSize)
		for j, i := range stale {
			// Texts from failed batches come back without a vector
			if vecs[j] == nil {
				p.resumes[i].Embedding, p.resumes[i].EmbeddingModel = nil, ""
				continue
			}
			p.resumes[i].Embedding, p.resumes[i].EmbeddingModel = vecs[j], o.engine.ModelVersion()
		}
		if err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) == 0 {
		return p, nil
	}

	cause := errors.Join(failures...)
	if o.opts.FailOnDegraded {
		return nil, types.WrapError(types.KindPartialFailure, cause, "embedding unavailable for job %s", job.ID)
	}
	p.warning = types.WrapError(types.KindEmbeddingUnavailable, cause, "semantic similarity not computed").Error()
	return p, nil
}

func (o *Orchestrator) scoreAll(ctx context.Context, job *types.JobPosting, resumes []*types.Resume) ([]*types.ScreeningResult, error) {
	results := make([]*types.ScreeningResult, len(resumes))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, r := range resumes {
		g.Go(func() error {
			res, err := o.scorer.ScoreOne(r, job)
			if err != nil {
				return fmt.Errorf("failed to score resume %s: %w", r.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScoreOne scores a single resume against a job without touching storage.
// Missing or stale vectors are embedded first.
func (o *Orchestrator) ScoreOne(ctx context.Context, resume *types.Resume, job *types.JobPosting) (*types.ScreeningResult, error) {
	if resume == nil || job == nil {
		return nil, types.NewError(types.KindNotFound, "resume and job are required")
	}
	prepared, err := o.prepare(ctx, job, []*types.Resume{resume})
	if err != nil {
		return nil, err
	}
	if prepared.warning != "" {
		o.logger.Warn("ad hoc score degraded", zap.String("warning", prepared.warning))
	}
	return o.scorer.ScoreOne(prepared.resumes[0], prepared.job)
}

func jobText(job *types.JobPosting) string {
	if job.NormalizedText != "" {
		return job.NormalizedText
	}
	return parsing.Normalize(job.Title + " " + job.Description)
}

func resumeText(r *types.Resume) string {
	if r.NormalizedText != "" {
		return r.NormalizedText
	}
	return parsing.Normalize(r.Content)
}
