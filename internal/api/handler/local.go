package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/api/validation"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setPasswordRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// LocalAuthHandler handles password login, logout and admin password set.
type LocalAuthHandler struct {
	authenticator *auth.LocalAuthenticator
	sessions      *auth.SessionManager
	users         user.Repository
	bcryptCost    int
}

// NewLocalAuthHandler creates a new LocalAuthHandler.
func NewLocalAuthHandler(authenticator *auth.LocalAuthenticator, sessions *auth.SessionManager, users user.Repository, bcryptCost int) *LocalAuthHandler {
	return &LocalAuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
		users:         users,
		bcryptCost:    bcryptCost,
	}
}

// Login handles POST /api/local/login.
func (h *LocalAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	u, err := h.authenticator.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var locked *auth.LockedOutError
		switch {
		case errors.As(err, &locked):
			response.Err(w, http.StatusUnauthorized, "LOCKED_OUT", locked.Error(), requestID)
		case errors.Is(err, auth.ErrAccountInactive):
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account is inactive", requestID)
		case errors.Is(err, auth.ErrPasswordNotSet):
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Password not set for this account. Use the email sign-in link.", requestID)
		case errors.Is(err, auth.ErrInvalidCredentials):
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", requestID)
		default:
			slog.Error("login failed", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		}
		return
	}

	if err := h.sessions.Issue(w, u, auth.AuthLocal); err != nil {
		slog.Error("failed to issue session", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, messageResponse{Message: "Logged in"}, requestID)
}

// Logout handles POST /api/local/logout.
func (h *LocalAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.sessions.Clear(w)
	response.Success(w, http.StatusOK, messageResponse{Message: "Logged out"}, requestID)
}

// SetPassword handles POST /api/local/set-password. Admin-only; sets a
// password directly on a target user.
func (h *LocalAuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidatePassword(req.Password)
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "userId", Message: "userId must be a valid UUID"})
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	target, err := h.users.GetByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to load user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set password", requestID)
		return
	}

	if !target.LocalAuthEligible() {
		response.Err(w, http.StatusBadRequest, "INVALID_ROLE", "Supplier accounts use magic-link login and cannot have a password", requestID)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set password", requestID)
		return
	}

	if err := h.users.SetPasswordHash(r.Context(), target.ID, string(hash)); err != nil {
		slog.Error("failed to store password hash", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set password", requestID)
		return
	}

	response.Success(w, http.StatusOK, messageResponse{Message: "Password updated"}, requestID)
}
