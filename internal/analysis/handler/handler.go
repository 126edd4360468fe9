package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/service"
	"github.com/plagscan/plagscan-dashboard/internal/report"
	apperrors "github.com/plagscan/plagscan-dashboard/pkg/errors"
	"github.com/plagscan/plagscan-dashboard/pkg/httputil"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

const maxMemory = 32 << 20

// Handler handles HTTP requests for server-side analyses
type Handler struct {
	service  *service.Service
	defaults domain.Configuration
	log      *logger.Logger
}

// NewHandler creates a new analysis handler. defaults fill in whatever the
// request leaves out.
func NewHandler(svc *service.Service, defaults domain.Configuration, log *logger.Logger) *Handler {
	return &Handler{
		service:  svc,
		defaults: defaults,
		log:      log,
	}
}

// Routes returns the analysis routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/summary", h.Summary)
	return r
}

// CreateAnalysisRequest is the JSON body of POST /api/analyses
type CreateAnalysisRequest struct {
	PDFURL             string             `json:"pdf_url"`
	FilePath           string             `json:"file_path"`
	CheckOnlineSources *bool              `json:"check_online_sources"`
	Thresholds         *domain.Thresholds `json:"thresholds"`
}

// Create handles POST /api/analyses
// Accepts either a JSON body or a multipart form with an optional "file"
// plus pdf_url, check_online_sources, semantic, ngram and fuzzy fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sub, err := h.parseSubmission(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lc, err := h.service.Start(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoInput), apperrors.Is(err, apperrors.ErrValidation):
			httputil.JSON(w, http.StatusBadRequest, lc)
		case errors.Is(err, domain.ErrSubmissionInFlight):
			httputil.Error(w, apperrors.Conflict(err.Error()))
		default:
			h.log.Error().Err(err).Msg("failed to start analysis")
			httputil.Error(w, err)
		}
		return
	}

	httputil.Accepted(w, lc)
}

// Get handles GET /api/analyses/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	lc, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, lc)
}

// Summary handles GET /api/analyses/{id}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	lc, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if lc.State != domain.StateResults {
		httputil.Error(w, apperrors.Conflict("analysis has no results yet"))
		return
	}
	httputil.JSON(w, http.StatusOK, report.Summarize(lc.Result))
}

func (h *Handler) parseSubmission(r *http.Request) (service.Submission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.parseMultipart(r)
	}

	var req CreateAnalysisRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return service.Submission{}, err
	}

	cfg := h.defaults
	if req.CheckOnlineSources != nil {
		cfg.CheckOnlineSources = *req.CheckOnlineSources
	}
	if req.Thresholds != nil {
		cfg.Thresholds = *req.Thresholds
	}

	return service.Submission{
		FilePath: req.FilePath,
		PDFURL:   req.PDFURL,
		Config:   cfg,
	}, nil
}

func (h *Handler) parseMultipart(r *http.Request) (service.Submission, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return service.Submission{}, apperrors.BadRequest("invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	cfg := h.defaults
	if v := r.FormValue("check_online_sources"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return service.Submission{}, apperrors.Validation(map[string]string{"check_online_sources": "must be a boolean"})
		}
		cfg.CheckOnlineSources = b
	}

	for field, target := range map[string]*float64{
		"semantic": &cfg.Thresholds.Semantic,
		"ngram":    &cfg.Thresholds.Ngram,
		"fuzzy":    &cfg.Thresholds.Fuzzy,
	} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return service.Submission{}, apperrors.Validation(map[string]string{field: "must be a number"})
		}
		*target = f
	}

	sub := service.Submission{
		FilePath: r.FormValue("file_path"),
		PDFURL:   r.FormValue("pdf_url"),
		Config:   cfg,
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		// the run outlives the request, so the bytes are copied out of the form
		data, err := io.ReadAll(file)
		if err != nil {
			return service.Submission{}, apperrors.Internal("failed to read uploaded file")
		}
		sub.File = &service.LocalFile{Name: header.Filename, Content: bytes.NewReader(data)}
	case !errors.Is(err, http.ErrMissingFile):
		return service.Submission{}, apperrors.BadRequest("invalid file field")
	}

	return sub, nil
}
