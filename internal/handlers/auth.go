package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/lebbnb/apiserver/internal/auth"
	"github.com/lebbnb/apiserver/internal/services"
	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

const refreshTokenCookie = "refresh_token"

// AuthHandler provides the admin authentication endpoints and the request
// gate used by every protected route.
type AuthHandler struct {
	authService           *services.AuthService
	allowOpenRegistration bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, allowOpenRegistration bool) *AuthHandler {
	return &AuthHandler{
		authService:           authService,
		allowOpenRegistration: allowOpenRegistration,
	}
}

// AuthRouter registers auth routes on the given router. Login and register
// carry stricter per-IP limits than the rest of the API.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	loginLimiter := httprate.LimitByIP(5, 15*time.Minute)
	registerLimiter := httprate.LimitByIP(3, time.Hour)

	if handler.allowOpenRegistration {
		r.With(registerLimiter).Post("/register", handler.Register)
	} else {
		r.With(registerLimiter, handler.RequireAuth, handler.RequireSuperAdmin).Post("/register", handler.Register)
	}
	r.With(loginLimiter).Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.With(handler.RequireAuth).Post("/logout", handler.Logout)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
	r.With(handler.RequireAuth).Put("/change-password", handler.ChangePassword)
}

// RequireAuth enforces bearer-token authentication. The token is verified,
// the account is re-loaded, and the verified identity is injected into the
// request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		admin, err := h.authService.Authenticate(r.Context(), tokenString)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		identity := AdminIdentity{ID: admin.ID, Email: admin.Email, Role: admin.Role}
		ctx := context.WithValue(r.Context(), contextAdminKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSuperAdmin allows superadmins only. It must run after RequireAuth.
func (h *AuthHandler) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if identity.Role != types.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, "superadmin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register creates a new admin account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	admin, err := h.authService.Register(r.Context(), req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, admin)
}

// Login verifies credentials and returns the admin with a fresh token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	admin, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Admin:        admin,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout clears the stored refresh token for the current admin.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), identity.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh rotates a token pair. The refresh token is read from the request
// body or, failing that, from a cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		writeError(w, http.StatusUnauthorized, "refresh token not provided")
		return
	}

	pair, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Me returns the current admin account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	admin, err := h.authService.GetByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "admin not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load admin")
		return
	}

	writeJSON(w, http.StatusOK, admin)
}

// ChangePassword verifies the current password and installs a new one. The
// stored refresh token is cleared, so the client must log in again.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "password changed, please log in again",
	})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AuthResponse struct {
	Admin        types.Admin `json:"admin"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

// writeAuthError maps authentication failures onto distinct status codes so
// clients can tell bad credentials, a lockout, and a deactivated account
// apart. Unrecognized errors are not echoed to the client.
func writeAuthError(w http.ResponseWriter, err error) {
	var validationErr services.ValidationError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrAccountLocked):
		writeError(w, http.StatusLocked, "account temporarily locked, try again later")
	case errors.Is(err, auth.ErrAccountDeactivated):
		writeError(w, http.StatusForbidden, "account is deactivated")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest,
			"password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit, and a symbol")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "admin with this email already exists")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "admin not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func refreshTokenFromRequest(r *http.Request) string {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		if token := strings.TrimSpace(req.RefreshToken); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
