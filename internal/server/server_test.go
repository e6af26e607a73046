package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/memstore"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/server/ratelimit"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, limits *ratelimit.Config) *Server {
	t.Helper()
	if limits == nil {
		limits = &ratelimit.Config{Enabled: false}
	}

	store := memstore.New()
	taxonomy := skills.DefaultTaxonomy()
	extractor, err := skills.NewExtractor(taxonomy, skills.DefaultFuzzyThreshold, skills.DefaultMaxNgram)
	require.NoError(t, err)
	engine, err := embedding.NewHashingEngine(64)
	require.NoError(t, err)
	scorer, err := scoring.NewEngine(scoring.DefaultWeights(), scoring.DefaultExperienceCap, taxonomy)
	require.NoError(t, err)
	orch, err := screening.NewOrchestrator(store, engine, scorer, zap.NewNop(), screening.DefaultOptions())
	require.NoError(t, err)
	ingester := ingestion.NewIngester(extractor, engine, store, zap.NewNop())

	s, err := New(Config{Port: 0, RateLimit: limits}, store, orch, ingester, zap.NewNop())
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, s *Server) {
	t.Helper()
	w := do(t, s, http.MethodPost, "/jobs", ingestion.JobInput{
		ID:             "job-1",
		Title:          "Backend Engineer",
		Description:    "Build Go services on Kubernetes with PostgreSQL.",
		RequiredSkills: []string{"Go", "Kubernetes", "PostgreSQL"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resumes := []ingestion.ResumeInput{
		{ID: "r-strong", CandidateName: "Ada", Content: "Go and Kubernetes engineer. PostgreSQL tuning.\n2015 - Present Backend Engineer"},
		{ID: "r-weak", CandidateName: "Bob", Content: "Photographer with a passion for travel."},
	}
	for _, in := range resumes {
		w := do(t, s, http.MethodPost, "/resumes", in)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestScreenAndResults(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	w := do(t, s, http.MethodPost, "/jobs/job-1/screen", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome types.ScreeningRunOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, "job-1", outcome.JobID)
	assert.Equal(t, types.RunStatusComplete, outcome.Status)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, "r-strong", outcome.Results[0].ResumeID)
	assert.Equal(t, 1, outcome.Results[0].Rank)
	assert.Equal(t, 2, outcome.Results[1].Rank)

	w = do(t, s, http.MethodGet, "/jobs/job-1/results?top=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results ResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, 2, results.Total)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "r-strong", results.Results[0].ResumeID)

	w = do(t, s, http.MethodGet, "/jobs/job-1/results?min_score=0.99", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Empty(t, results.Results)
}

func TestScreenSubset(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	w := do(t, s, http.MethodPost, "/jobs/job-1/screen", ScreenRequest{ResumeIDs: []string{"r-weak"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome types.ScreeningRunOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "r-weak", outcome.Results[0].ResumeID)
}

func TestScreenErrors(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		kind   types.ErrorKind
	}{
		{"unknown job", "/jobs/nope/screen", nil, http.StatusNotFound, types.KindNotFound},
		{"unknown resume", "/jobs/job-1/screen", ScreenRequest{ResumeIDs: []string{"ghost"}}, http.StatusNotFound, types.KindNotFound},
		{"blank resume id", "/jobs/job-1/screen", ScreenRequest{ResumeIDs: []string{""}}, http.StatusBadRequest, types.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.kind), resp.Kind)
		})
	}
}

func TestResultsUnknownJobAndBadQuery(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/jobs/nope/results", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/jobs/job-1/results?top=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/jobs/job-1/results?min_score=2", nil).Code)
}

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	w := do(t, s, http.MethodPost, "/score", ScoreRequest{ResumeID: "r-strong", JobID: "job-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.ScreeningResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1.0, result.SkillMatchScore)
	assert.ElementsMatch(t, []string{"go", "kubernetes", "postgresql"}, result.MatchedSkills)

	// Scoring does not persist results
	w = do(t, s, http.MethodGet, "/jobs/job-1/results", nil)
	var results ResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, 0, results.Total)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/score", ScoreRequest{JobID: "job-1"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/score", ScoreRequest{ResumeID: "ghost", JobID: "job-1"}).Code)
}

func TestCreateResumeValidation(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/resumes", ingestion.ResumeInput{CandidateName: "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecordsAndStats(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	w := do(t, s, http.MethodGet, "/resumes/r-strong", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resume types.Resume
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resume))
	assert.Equal(t, "Ada", resume.CandidateName)
	assert.Contains(t, resume.Skills, "go")

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/resumes/ghost", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/jobs/ghost", nil).Code)

	w = do(t, s, http.MethodGet, "/stats", nil)
	var stats types.StoreStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, types.StoreStats{Jobs: 1, Resumes: 2}, stats)
}

func TestListJobs(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp JobsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Jobs)

	seed(t, s)
	w = do(t, s, http.MethodPost, "/jobs", ingestion.JobInput{ID: "job-2", Title: "Data Engineer", Description: "Spark and Python pipelines"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	ids := make([]string, len(resp.Jobs))
	for i, j := range resp.Jobs {
		ids[i] = j.ID
	}
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, ids)
}

func TestCreateResumeBatch(t *testing.T) {
	s := newTestServer(t, nil)
	seed(t, s)

	w := do(t, s, http.MethodPost, "/resumes/batch", BatchResumeRequest{Resumes: []ingestion.ResumeInput{
		{ID: "r-b1", CandidateName: "Cy", Content: "Senior Go developer, Kubernetes and PostgreSQL."},
		{ID: "r-b2", Content: "Dana Lee\nPastry chef"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp BatchResumeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Failed)
	require.Len(t, resp.Created, 2)
	assert.Equal(t, "r-b1", resp.Created[0].ID)
	assert.Equal(t, "Dana Lee", resp.Created[1].CandidateName)

	w = do(t, s, http.MethodGet, "/resumes/r-b2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/jobs/job-1/screen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var outcome types.ScreeningRunOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Len(t, outcome.Results, 4)
}

func TestCreateResumeBatchValidation(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"empty batch", BatchResumeRequest{}},
		{"entry without content", BatchResumeRequest{Resumes: []ingestion.ResumeInput{
			{ID: "ok", Content: "Go developer"},
			{ID: "bad"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/resumes/batch", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Nothing from the rejected batch was stored
	w := do(t, s, http.MethodGet, "/resumes/ok", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &ratelimit.Config{
		Enabled: true,
		Rules:   []ratelimit.Rule{{Method: "POST", Pattern: "/jobs/*/screen", Limit: 1, Window: time.Hour}},
	})
	seed(t, s)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/jobs/job-1/screen", nil).Code)
	w := do(t, s, http.MethodPost, "/jobs/job-1/screen", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.NewError(types.KindNotFound, "x"), http.StatusNotFound},
		{types.NewError(types.KindConcurrencyConflict, "x"), http.StatusConflict},
		{types.NewError(types.KindInvalidInput, "x"), http.StatusBadRequest},
		{types.NewError(types.KindModelMismatch, "x"), http.StatusUnprocessableEntity},
		{types.NewError(types.KindEmbeddingUnavailable, "x"), http.StatusServiceUnavailable},
		{types.NewError(types.KindPartialFailure, "x"), http.StatusServiceUnavailable},
		{types.NewError(types.KindConfiguration, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, nil, nil, nil, nil)
	assert.True(t, types.IsKind(err, types.KindConfiguration))
}
