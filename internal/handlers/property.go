package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/lebbnb/apiserver/internal/services"
	"github.com/lebbnb/apiserver/internal/storage"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 5 << 20
	maxImagesPerUpload = 10
	formFieldImages    = "images"
)

// PropertyHandler provides HTTP handlers for property listings.
type PropertyHandler struct {
	propertyService *services.PropertyService
}

// NewPropertyHandler constructs a handler with the provided service.
func NewPropertyHandler(propertyService *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// PropertyRouter registers property routes on the given router. Reads are
// public; writes sit behind the auth gate. Image uploads carry their own
// per-IP limit.
func PropertyRouter(
	r chi.Router,
	propertyService *services.PropertyService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewPropertyHandler(propertyService)
	uploadLimiter := httprate.LimitByIP(20, 15*time.Minute)

	r.Get("/", handler.ListProperties)
	r.With(authMiddleware).Post("/", handler.CreateProperty)
	r.Get("/images/{imageKey}", handler.GetImage)
	r.Route("/{propertyID}", func(r chi.Router) {
		r.Get("/", handler.GetProperty)
		r.With(authMiddleware).Put("/", handler.UpdateProperty)
		r.With(authMiddleware).Delete("/", handler.DeleteProperty)
		r.With(authMiddleware, uploadLimiter).Post("/images", handler.UploadImages)
		r.With(authMiddleware).Delete("/images/{imageKey}", handler.RemoveImage)
	})
}

func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.propertyService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}

	writeJSON(w, http.StatusOK, PropertyListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	property, err := h.propertyService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "property not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch property")
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.propertyService.Create(r.Context(), types.Property{
		Title:   req.Title,
		Address: req.Address,
	})
	if err != nil {
		writePropertyError(w, err, "failed to create property")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PropertyUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.propertyService.Update(r.Context(), types.Property{
		ID:      id,
		Title:   req.Title,
		Address: req.Address,
	})
	if err != nil {
		writePropertyError(w, err, "failed to update property")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.propertyService.Delete(r.Context(), id); err != nil {
		writePropertyError(w, err, "failed to delete property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImages accepts a multipart form with one or more files under the
// "images" field, stores each object, and returns the updated property.
func (h *PropertyHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File[formFieldImages]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no images provided")
		return
	}
	if len(files) > maxImagesPerUpload {
		writeError(w, http.StatusBadRequest, "too many images in one request")
		return
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	opened := make([]io.Closer, 0, len(files))
	defer func() {
		for _, closer := range opened {
			_ = closer.Close()
		}
	}()
	for _, header := range files {
		if header.Size > maxImageBytes {
			writeError(w, http.StatusBadRequest, "image exceeds the 5MB size limit")
			return
		}
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload")
			return
		}
		opened = append(opened, file)
		uploads = append(uploads, services.ImageUpload{
			Reader:      file,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	property, err := h.propertyService.AddImages(r.Context(), id, uploads)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImageType) {
			writeError(w, http.StatusBadRequest, "unsupported image type")
			return
		}
		writePropertyError(w, err, "failed to store images")
		return
	}

	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, err := parsePropertyID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := chi.URLParam(r, "imageKey")
	property, err := h.propertyService.RemoveImage(r.Context(), id, key)
	if err != nil {
		writePropertyError(w, err, "failed to remove image")
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// GetImage streams a stored image back to the client.
func (h *PropertyHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "imageKey")

	reader, contentType, err := h.propertyService.OpenImage(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, reader)
}

// PropertyUpsertRequest is the create/update payload.
type PropertyUpsertRequest struct {
	Title   string `json:"title"`
	Address string `json:"address"`
}

// PropertyListResponse is the paginated list response payload.
type PropertyListResponse struct {
	Items []types.Property `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

func parsePropertyID(r *http.Request) (int, error) {
	id, err := parseIDParam(chi.URLParam(r, "propertyID"))
	if err != nil {
		return 0, errors.New("invalid property id")
	}
	return id, nil
}

func writePropertyError(w http.ResponseWriter, err error, fallback string) {
	var validationErr services.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "property not found")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
