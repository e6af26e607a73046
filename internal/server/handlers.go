package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/ranking"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// ScreenRequest is the optional body of POST /jobs/{id}/screen.
// An empty ResumeIDs screens every stored resume.
type ScreenRequest struct {
	ResumeIDs []string `json:"resume_ids,omitempty" validate:"dive,required"`
}

// ScoreRequest scores one stored resume against one stored job without persisting anything
type ScoreRequest struct {
	ResumeID string `json:"resume_id" validate:"required"`
	JobID    string `json:"job_id" validate:"required"`
}

// ResultsResponse is the body of GET /jobs/{id}/results
type ResultsResponse struct {
	JobID   string                   `json:"job_id"`
	Total   int                      `json:"total"`
	Results []*types.ScreeningResult `json:"results"`
}

// BatchResumeRequest is the body of POST /resumes/batch. Every entry is validated
// before any is ingested.
type BatchResumeRequest struct {
	Resumes []ingestion.ResumeInput `json:"resumes" validate:"required,min=1,max=100,dive"`
}

// BatchFailure reports one resume of a batch that could not be ingested
type BatchFailure struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// BatchResumeResponse lists the ingested resumes and the failures, in request order
type BatchResumeResponse struct {
	Created []*types.Resume `json:"created"`
	Failed  []BatchFailure  `json:"failed"`
}

// JobsResponse is the body of GET /jobs
type JobsResponse struct {
	Total int                 `json:"total"`
	Jobs  []*types.JobPosting `json:"jobs"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var in ingestion.ResumeInput
	if err := s.decode(w, r, &in); err != nil {
		s.errorResponse(w, err)
		return
	}
	resume, err := s.ingester.IngestResume(r.Context(), in)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resume)
}

// handleCreateResumeBatch ingests each resume independently; one failure does not stop the rest
func (s *Server) handleCreateResumeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchResumeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	resp := BatchResumeResponse{
		Created: make([]*types.Resume, 0, len(req.Resumes)),
		Failed:  []BatchFailure{},
	}
	for i, in := range req.Resumes {
		resume, err := s.ingester.IngestResume(r.Context(), in)
		if err != nil {
			resp.Failed = append(resp.Failed, BatchFailure{
				Index: i,
				ID:    in.ID,
				Error: err.Error(),
				Kind:  string(types.KindOf(err)),
			})
			continue
		}
		resp.Created = append(resp.Created, resume)
	}

	if len(resp.Failed) > 0 {
		s.logger.Warn("resume batch partially failed",
			zap.Int("created", len(resp.Created)), zap.Int("failed", len(resp.Failed)))
	}
	status := http.StatusCreated
	if len(resp.Created) == 0 {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, resp)
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resume, err := s.store.GetResume(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, types.NewError(types.KindNotFound, "resume %s not found", id))
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if jobs == nil {
		jobs = []*types.JobPosting{}
	}
	s.jsonResponse(w, http.StatusOK, JobsResponse{Total: len(jobs), Jobs: jobs})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in ingestion.JobInput
	if err := s.decode(w, r, &in); err != nil {
		s.errorResponse(w, err)
		return
	}
	job, err := s.ingester.IngestJob(r.Context(), in)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, types.NewError(types.KindNotFound, "job %s not found", id))
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleScreen runs a screening for the job and returns the ranked outcome
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			s.errorResponse(w, err)
			return
		}
	}

	outcome, err := s.orchestrator.ScreenJob(r.Context(), r.PathValue("id"), req.ResumeIDs)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, outcome)
}

// handleResults returns stored results, optionally cut by ?top= and ?min_score=
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, types.NewError(types.KindNotFound, "job %s not found", id))
		return
	}

	results, err := s.store.ListResults(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	total := len(results)

	q := r.URL.Query()
	if v := q.Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil || minScore < 0 || minScore > 1 {
			s.errorResponse(w, types.NewError(types.KindInvalidInput, "min_score must be a number in [0,1]"))
			return
		}
		results = ranking.FilterByThreshold(results, minScore)
	}
	if v := q.Get("top"); v != "" {
		top, err := strconv.Atoi(v)
		if err != nil || top < 0 {
			s.errorResponse(w, types.NewError(types.KindInvalidInput, "top must be a non-negative integer"))
			return
		}
		results = ranking.TopK(results, top)
	}

	s.jsonResponse(w, http.StatusOK, ResultsResponse{JobID: id, Total: total, Results: results})
}

// handleScore scores one resume against one job without touching stored results
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	job, err := s.store.GetJob(r.Context(), req.JobID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, types.NewError(types.KindNotFound, "job %s not found", req.JobID))
		return
	}
	resume, err := s.store.GetResume(r.Context(), req.ResumeID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, types.NewError(types.KindNotFound, "resume %s not found", req.ResumeID))
		return
	}

	result, err := s.orchestrator.ScoreOne(r.Context(), resume, job)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
