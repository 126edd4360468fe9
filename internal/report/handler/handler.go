package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/report/export"
	"github.com/plagscan/plagscan-dashboard/internal/report/repository"
	"github.com/plagscan/plagscan-dashboard/internal/report/share"
	apperrors "github.com/plagscan/plagscan-dashboard/pkg/errors"
	"github.com/plagscan/plagscan-dashboard/pkg/httputil"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

const (
	msgNoReportData = "No report data available"
	msgHTMLFailed   = "HTML export failed"
	msgPDFFailed    = "PDF export failed"
	msgShareFailed  = "Share failed"
)

// Handler serves the report handoff, its exports and share links
type Handler struct {
	store  repository.HandoffStore
	shares *share.Service
	log    *logger.Logger
	now    func() time.Time
}

// NewHandler creates a new report handler
func NewHandler(store repository.HandoffStore, shares *share.Service, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		shares: shares,
		log:    log.WithComponent("report"),
		now:    time.Now,
	}
}

// RegisterRoutes mounts the report endpoints on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/report/data", h.Data)
	r.Get("/api/report/pdf", h.PDF)
	r.Post("/api/report/share", h.Share)
	r.Get("/report", h.HTML)
	r.Get("/report/shared/{token}", h.Shared)
}

// Data handles GET /api/report/data
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	result, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HTML handles GET /report
func (h *Handler) HTML(w http.ResponseWriter, r *http.Request) {
	result, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeHTML(w, result)
}

// PDF handles GET /api/report/pdf
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	result, ok := h.load(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, export.NewDocument(result, h.now())); err != nil {
		h.log.Error().Err(err).Msg("pdf export failed")
		httputil.ErrorMessage(w, http.StatusInternalServerError, msgPDFFailed)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="plagiarism-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Share handles POST /api/report/share
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	token, err := h.shares.Share(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoReportData) {
			httputil.ErrorMessage(w, http.StatusNotFound, msgNoReportData)
			return
		}
		h.log.Error().Err(err).Msg("share failed")
		httputil.ErrorMessage(w, http.StatusInternalServerError, msgShareFailed)
		return
	}

	httputil.JSON(w, http.StatusCreated, token)
}

// Shared handles GET /report/shared/{token}
func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	result, err := h.shares.Open(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.Is(err, repository.ErrNoReportData):
			httputil.ErrorMessage(w, http.StatusNotFound, msgNoReportData)
		case apperrors.As(err, &appErr):
			httputil.ErrorMessage(w, appErr.StatusCode, appErr.Message)
		default:
			h.log.Error().Err(err).Msg("failed to open shared report")
			httputil.ErrorMessage(w, http.StatusInternalServerError, msgHTMLFailed)
		}
		return
	}
	h.writeHTML(w, result)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*domain.Result, bool) {
	result, err := h.store.Load(r.Context(), repository.ReportDataKey)
	if err != nil {
		if errors.Is(err, repository.ErrNoReportData) {
			httputil.ErrorMessage(w, http.StatusNotFound, msgNoReportData)
			return nil, false
		}
		h.log.Error().Err(err).Msg("failed to load report data")
		httputil.ErrorMessage(w, http.StatusInternalServerError, msgNoReportData)
		return nil, false
	}
	return result, true
}

// writeHTML renders to a buffer first so a template failure still yields a clean 500
func (h *Handler) writeHTML(w http.ResponseWriter, result *domain.Result) {
	var buf bytes.Buffer
	if err := export.RenderHTML(&buf, export.NewDocument(result, h.now())); err != nil {
		h.log.Error().Err(err).Msg("html export failed")
		httputil.ErrorMessage(w, http.StatusInternalServerError, msgHTMLFailed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
