package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/service"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	mu       sync.Mutex
	requests []domain.CheckRequest
}

func (s *stubAnalyzer) CheckPlagiarism(ctx context.Context, req domain.CheckRequest) (*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return &domain.Result{
		PlagiarismOverallScore: testutil.PtrFloat(0.62),
		PlagiarismResults: []domain.SourceMatch{
			{ReferenceID: "1", OverallScore: testutil.PtrFloat(0.7), IsPlagiarized: testutil.PtrBool(true)},
		},
	}, nil
}

func (s *stubAnalyzer) last() domain.CheckRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type stubUploader struct {
	mu   sync.Mutex
	body string
}

func (s *stubUploader) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	data, _ := io.ReadAll(content)
	s.mu.Lock()
	s.body = string(data)
	s.mu.Unlock()
	return "/uploads/1-" + name, nil
}

type envelope struct {
	Success bool             `json:"success"`
	Data    domain.Lifecycle `json:"data"`
}

func setup(t *testing.T) (http.Handler, *stubAnalyzer, *stubUploader) {
	t.Helper()
	analyzer := &stubAnalyzer{}
	uploader := &stubUploader{}
	store := service.NewSubmissionStore(time.Hour)
	t.Cleanup(store.Close)

	svc := service.NewService(service.Dependencies{
		Uploader:      uploader,
		Analyzer:      analyzer,
		PublicBaseURL: "http://localhost:3000",
	}, store, logger.Nop())

	r := chi.NewRouter()
	r.Mount("/api/analyses", NewHandler(svc, domain.DefaultConfiguration(), logger.Nop()).Routes())
	return r, analyzer, uploader
}

func waitForResults(t *testing.T, router http.Handler, id string) domain.Lifecycle {
	t.Helper()
	var lc domain.Lifecycle
	testutil.RequireEventually(t, func() bool {
		rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodGet, "/api/analyses/"+id, nil))
		var env envelope
		if json.Unmarshal(rr.Body.Bytes(), &env) != nil {
			return false
		}
		lc = env.Data
		return lc.State == domain.StateResults
	}, 2*time.Second, 10*time.Millisecond, "analysis did not finish")
	return lc
}

func TestCreate_JSONWithDefaults(t *testing.T) {
	router, analyzer, _ := setup(t)

	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodPost, "/api/analyses", map[string]string{
		"pdf_url": "https://example.com/a.pdf",
	}))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	assert.True(t, env.Success)
	assert.Equal(t, domain.StateLoading, env.Data.State)

	lc := waitForResults(t, router, env.Data.ID)
	assert.Equal(t, 0.62, lc.Result.OverallScore())

	req := analyzer.last()
	assert.Equal(t, "https://example.com/a.pdf", req.PDFURL)
	assert.True(t, req.CheckOnlineSources)
	assert.Equal(t, domain.DefaultThresholds(), req.Thresholds)
	assert.Equal(t, 5, req.NumPapers)
}

func TestCreate_JSONOverrides(t *testing.T) {
	router, analyzer, _ := setup(t)

	body := map[string]interface{}{
		"file_path":            "/uploads/9-x.pdf",
		"check_online_sources": false,
		"thresholds":           map[string]float64{"semantic": 0.6, "ngram": 0.2, "fuzzy": 0.4},
	}
	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodPost, "/api/analyses", body))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	waitForResults(t, router, env.Data.ID)

	req := analyzer.last()
	assert.Equal(t, "http://localhost:3000/uploads/9-x.pdf", req.PDFURL)
	assert.False(t, req.CheckOnlineSources)
	assert.Equal(t, domain.Thresholds{Semantic: 0.6, Ngram: 0.2, Fuzzy: 0.4}, req.Thresholds)
}

func TestCreate_NoInput(t *testing.T) {
	router, _, _ := setup(t)

	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodPost, "/api/analyses", map[string]string{}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	assert.False(t, env.Success)
	assert.Equal(t, domain.StateIdle, env.Data.State)
	assert.Equal(t, "Please upload a file or enter a PDF URL", env.Data.Message)
}

func TestCreate_ThresholdOutOfRange(t *testing.T) {
	router, _, _ := setup(t)

	body := map[string]interface{}{
		"pdf_url":    "https://example.com/a.pdf",
		"thresholds": map[string]float64{"semantic": 0.85, "ngram": 0.95, "fuzzy": 0.7},
	}
	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodPost, "/api/analyses", body))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	assert.Equal(t, "Invalid thresholds: ngram must be at most 0.8", env.Data.Message)
}

func TestCreate_InvalidJSON(t *testing.T) {
	router, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestCreate_MultipartFile(t *testing.T) {
	router, analyzer, uploader := setup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "paper.pdf")
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))
	mw.WriteField("semantic", "0.9")
	mw.WriteField("check_online_sources", "false")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	assert.Equal(t, "paper.pdf", env.Data.Input.FileName)
	waitForResults(t, router, env.Data.ID)

	uploader.mu.Lock()
	assert.Equal(t, "%PDF-1.4", uploader.body)
	uploader.mu.Unlock()

	last := analyzer.last()
	assert.Equal(t, "http://localhost:3000/uploads/1-paper.pdf", last.PDFURL)
	assert.False(t, last.CheckOnlineSources)
	assert.Equal(t, 0.9, last.Thresholds.Semantic)
	assert.Equal(t, 0.4, last.Thresholds.Ngram)
}

func TestCreate_MultipartBadNumber(t *testing.T) {
	router, _, _ := setup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("pdf_url", "https://example.com/a.pdf")
	mw.WriteField("fuzzy", "high")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Contains(t, rr.Body.String(), "must be a number")
}

func TestGet_NotFound(t *testing.T) {
	router, _, _ := setup(t)
	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodGet, "/api/analyses/nope", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestSummary(t *testing.T) {
	router, _, _ := setup(t)

	rr := testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodPost, "/api/analyses", map[string]string{
		"pdf_url": "https://example.com/a.pdf",
	}))
	var env envelope
	testutil.ParseJSONBody(t, rr, &env)
	waitForResults(t, router, env.Data.ID)

	rr = testutil.ExecuteRequest(router, testutil.NewJSONRequest(http.MethodGet, "/api/analyses/"+env.Data.ID+"/summary", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var summary struct {
		Data struct {
			BandLabel      string `json:"band_label"`
			OverallPercent string `json:"overall_percent"`
			Sources        []struct {
				Badge       string `json:"badge"`
				Destructive bool   `json:"destructive"`
			} `json:"sources"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &summary)
	assert.Equal(t, "High Plagiarism", summary.Data.BandLabel)
	assert.Equal(t, "62.00", summary.Data.OverallPercent)
	require.Len(t, summary.Data.Sources, 1)
	assert.Equal(t, "Plagiarism Detected", summary.Data.Sources[0].Badge)
	assert.True(t, summary.Data.Sources[0].Destructive)
}
