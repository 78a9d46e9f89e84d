package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/api/validation"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/user"
)

type updateUserRequest struct {
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	HasPassword bool   `json:"hasPassword"`
	CreatedAt   string `json:"createdAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Active:      u.Active,
		HasPassword: u.PasswordHash != nil,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// UserHandler handles admin user-management endpoints.
type UserHandler struct {
	users user.Repository
	magic *auth.MagicLinkService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users user.Repository, magic *auth.MagicLinkService) *UserHandler {
	return &UserHandler{users: users, magic: magic}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}

	response.SuccessList(w, http.StatusOK, out, len(out), 1, len(out), requestID)
}

// Update handles PATCH /api/users/{id} for role and active changes.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "User ID must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.Role == nil && req.Active == nil {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "role", Message: "at least one of role or active is required"}}, requestID)
		return
	}
	if req.Role != nil && !user.ValidRole(*req.Role) {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "role", Message: "role must be admin, procurement or supplier"}}, requestID)
		return
	}

	u, err := h.users.Update(r.Context(), id, req.Role, req.Active)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to update user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", requestID)
		return
	}

	slog.Info("user updated", "userId", u.ID, "role", u.Role, "active", u.Active)
	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// SetupPasswordLink handles POST /api/users/{id}/setup-password-link,
// mailing the target user a single-use password-setup URL.
func (h *UserHandler) SetupPasswordLink(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "User ID must be a valid UUID", requestID)
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
			return
		}
		slog.Error("failed to load user", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue setup link", requestID)
		return
	}

	if !u.LocalAuthEligible() {
		response.Err(w, http.StatusBadRequest, "INVALID_ROLE", "Supplier accounts use magic-link login and cannot have a password", requestID)
		return
	}

	if err := h.magic.IssuePasswordSetup(r.Context(), u); err != nil {
		slog.Error("failed to issue setup link", "userId", u.ID, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue setup link", requestID)
		return
	}

	response.Success(w, http.StatusOK, messageResponse{Message: "Password setup link sent"}, requestID)
}
