package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/lebbnb/apiserver/internal/services"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

// ContactHandler provides HTTP handlers for contact submissions.
type ContactHandler struct {
	contactService *services.ContactService
}

// NewContactHandler constructs a handler with the provided service.
func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRouter registers contact routes on the given router. Submission is
// public but tightly rate limited per IP; everything else sits behind the
// auth gate.
func ContactRouter(
	r chi.Router,
	contactService *services.ContactService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewContactHandler(contactService)
	submitLimiter := httprate.LimitByIP(5, time.Hour)

	r.With(submitLimiter).Post("/", handler.SubmitContact)
	r.With(authMiddleware).Get("/", handler.ListContacts)
	r.Route("/{contactID}", func(r chi.Router) {
		r.With(authMiddleware).Get("/", handler.GetContact)
		r.With(authMiddleware).Put("/status", handler.UpdateStatus)
		r.With(authMiddleware).Post("/reply", handler.ReplyContact)
		r.With(authMiddleware).Delete("/", handler.DeleteContact)
	})
}

// SubmitContact records a public contact-form submission. The caller's IP is
// stored for abuse review but never echoed back.
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	contact, err := h.contactService.Create(r.Context(), types.Contact{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: r.RemoteAddr,
	})
	if err != nil {
		writeContactError(w, err, "failed to submit message")
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := r.URL.Query().Get("status")
	items, total, err := h.contactService.List(r.Context(), status, offset, limit)
	if err != nil {
		writeContactError(w, err, "failed to list contacts")
		return
	}

	writeJSON(w, http.StatusOK, ContactListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetContact returns a submission. Viewing a new submission marks it read.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		writeContactError(w, err, "failed to fetch contact")
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ContactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.contactService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeContactError(w, err, "failed to update status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// ReplyContact stores an admin reply and queues the reply mail. A non-empty
// warning in the response means the reply was saved but the mail job could
// not be queued.
func (h *ContactHandler) ReplyContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ContactReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	contact, warning, err := h.contactService.Reply(r.Context(), id, req.Reply)
	if err != nil {
		writeContactError(w, err, "failed to reply")
		return
	}

	writeJSON(w, http.StatusOK, ContactReplyResponse{Contact: contact, Warning: warning})
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := parseContactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contactService.Delete(r.Context(), id); err != nil {
		writeContactError(w, err, "failed to delete contact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ContactSubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactStatusRequest struct {
	Status string `json:"status"`
}

type ContactReplyRequest struct {
	Reply string `json:"reply"`
}

type ContactReplyResponse struct {
	Contact types.Contact `json:"contact"`
	Warning string        `json:"warning,omitempty"`
}

// ContactListResponse is the paginated list response payload.
type ContactListResponse struct {
	Items []types.Contact `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

func parseContactID(r *http.Request) (int, error) {
	id, err := parseIDParam(chi.URLParam(r, "contactID"))
	if err != nil {
		return 0, errors.New("invalid contact id")
	}
	return id, nil
}

func writeContactError(w http.ResponseWriter, err error, fallback string) {
	var validationErr services.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
