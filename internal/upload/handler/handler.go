package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plagscan/plagscan-dashboard/internal/upload/domain"
	"github.com/plagscan/plagscan-dashboard/internal/upload/service"
	"github.com/plagscan/plagscan-dashboard/pkg/httputil"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
)

// multipart parts above this size spill to temp files instead of memory
const maxMemory = 32 << 20

// Handler handles HTTP requests for the upload gateway
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new upload handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Routes mounts the gateway API under /api/upload
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/limits", h.Limits)
	return r
}

// Upload handles POST /api/upload
// Accepts a multipart form with the document in field "file".
// Responds {"filePath": "/uploads/<millis>-<name>"}.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			httputil.ErrorMessage(w, http.StatusBadRequest, domain.MsgNoFile)
			return
		}
		h.log.Error().Err(err).Msg("failed to parse multipart form")
		httputil.ErrorMessage(w, http.StatusInternalServerError, domain.MsgUploadFailed)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(domain.FormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			httputil.ErrorMessage(w, http.StatusBadRequest, domain.MsgNoFile)
			return
		}
		h.log.Error().Err(err).Msg("failed to read form file")
		httputil.ErrorMessage(w, http.StatusInternalServerError, domain.MsgUploadFailed)
		return
	}
	defer file.Close()

	stored, err := h.service.Save(r.Context(), header.Filename, file)
	if err != nil {
		httputil.ErrorMessage(w, http.StatusInternalServerError, domain.MsgUploadFailed)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.UploadResponse{FilePath: stored.FilePath})
}

// Limits handles GET /api/upload/limits
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Limits())
}

// Serve handles GET /uploads/{name}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	obj, err := h.service.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		h.log.Error().Err(err).Str("name", name).Msg("failed to open stored file")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	http.ServeContent(w, r, obj.Name, obj.ModTime, obj.Body)
}

