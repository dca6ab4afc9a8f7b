package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lebbnb/apiserver/internal/services"
	"github.com/lebbnb/apiserver/types"
)

// ContentHandler provides HTTP handlers for the home and about page content.
type ContentHandler struct {
	contentService *services.ContentService
}

// NewContentHandler constructs a handler with the provided service.
func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// ContentRouter registers content routes on the given router. Reads are
// public; updates sit behind the auth gate.
func ContentRouter(
	r chi.Router,
	contentService *services.ContentService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewContentHandler(contentService)

	r.Get("/home", handler.GetHome)
	r.With(authMiddleware).Put("/home", handler.UpdateHome)
	r.Get("/about", handler.GetAbout)
	r.With(authMiddleware).Put("/about", handler.UpdateAbout)
}

func (h *ContentHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	content, err := h.contentService.GetHome(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load home content")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (h *ContentHandler) UpdateHome(w http.ResponseWriter, r *http.Request) {
	var content types.HomeContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.contentService.UpdateHome(r.Context(), content)
	if err != nil {
		writeContentError(w, err, "failed to update home content")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ContentHandler) GetAbout(w http.ResponseWriter, r *http.Request) {
	content, err := h.contentService.GetAbout(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load about content")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (h *ContentHandler) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	var content types.AboutContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.contentService.UpdateAbout(r.Context(), content)
	if err != nil {
		writeContentError(w, err, "failed to update about content")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func writeContentError(w http.ResponseWriter, err error, fallback string) {
	var validationErr services.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}
