package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report/repository"
	"github.com/plagscan/plagscan-dashboard/internal/report/share"
	"github.com/plagscan/plagscan-dashboard/pkg/config"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Save(ctx context.Context, key string, result *domain.Result) error {
	return errors.New("db down")
}

func (failingStore) Load(ctx context.Context, key string) (*domain.Result, error) {
	return nil, errors.New("db down")
}

func setup(t *testing.T, store repository.HandoffStore) http.Handler {
	t.Helper()
	jwtCfg := &config.JWTConfig{Secret: "test-secret", ShareExpiry: time.Hour, Issuer: "plagscan"}
	h := NewHandler(store, share.NewService(store, share.NewManager(jwtCfg), logger.Nop()), logger.Nop())
	h.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func seeded(t *testing.T) *repository.MemoryHandoffStore {
	t.Helper()
	store := repository.NewMemoryHandoffStore()
	require.NoError(t, store.Save(context.Background(), repository.ReportDataKey, &domain.Result{
		PlagiarismOverallScore: testutil.PtrFloat(0.62),
		TotalWordCount:         testutil.PtrInt(2048),
		PlagiarismResults: []domain.SourceMatch{
			{ReferenceID: "1", OverallScore: testutil.PtrFloat(0.62), IsPlagiarized: testutil.PtrBool(true)},
		},
	}))
	return store
}

func TestData_NoReport(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, repository.NewMemoryHandoffStore()), httptest.NewRequest(http.MethodGet, "/api/report/data", nil))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	assert.JSONEq(t, `{"error":"No report data available"}`, rr.Body.String())
}

func TestData_ReturnsBareResult(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, seeded(t)), httptest.NewRequest(http.MethodGet, "/api/report/data", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	var got domain.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 0.62, got.OverallScore())
	assert.Equal(t, 2048, got.WordCount())
	assert.NotContains(t, rr.Body.String(), `"success"`)
}

func TestHTML(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, seeded(t)), httptest.NewRequest(http.MethodGet, "/report", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "High Plagiarism")
	assert.Contains(t, rr.Body.String(), "2,048")
}

func TestHTML_NoReport(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, repository.NewMemoryHandoffStore()), httptest.NewRequest(http.MethodGet, "/report", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestPDF(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, seeded(t)), httptest.NewRequest(http.MethodGet, "/api/report/pdf", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF-"))
}

func TestLoadFailure(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, failingStore{}), httptest.NewRequest(http.MethodGet, "/api/report/pdf", nil))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

func TestShare_RoundTrip(t *testing.T) {
	router := setup(t, seeded(t))

	rr := testutil.ExecuteRequest(router, httptest.NewRequest(http.MethodPost, "/api/report/share", nil))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var body struct {
		Success bool        `json:"success"`
		Data    share.Token `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.Token)

	rr = testutil.ExecuteRequest(router, httptest.NewRequest(http.MethodGet, "/report/shared/"+body.Data.Token, nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "High Plagiarism")
}

func TestShare_NoReport(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, repository.NewMemoryHandoffStore()), httptest.NewRequest(http.MethodPost, "/api/report/share", nil))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	assert.JSONEq(t, `{"error":"No report data available"}`, rr.Body.String())
}

func TestShared_InvalidToken(t *testing.T) {
	rr := testutil.ExecuteRequest(setup(t, seeded(t)), httptest.NewRequest(http.MethodGet, "/report/shared/bogus", nil))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.JSONEq(t, `{"error":"invalid share link"}`, rr.Body.String())
}
