package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/api/validation"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/ratelimit"
	"github.com/quotelink/quotelink/internal/token"
	"github.com/quotelink/quotelink/internal/user"
)

// magicLinkSent is returned for every magic-link request that is not a
// server failure: unknown email, rate-limited email and the genuine success
// all share this exact payload so none of them is distinguishable.
const magicLinkSent = "If an account exists for that address, a sign-in link has been sent"

const stateCookie = "ql_oauth_state"

type magicLinkRequest struct {
	Email string `json:"email"`
}

type setupPasswordRequest struct {
	Password string `json:"password"`
}

type supplierSummary struct {
	ID            string `json:"id"`
	SupplierName  string `json:"supplierName"`
	Email         string `json:"email"`
	ContactPerson string `json:"contactPerson"`
}

type verifyResponse struct {
	Success  bool            `json:"success"`
	Supplier supplierSummary `json:"supplier"`
}

type setupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type credentialResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	AuthType  string `json:"authType"`
}

// AuthHandler handles magic-link flows, the OIDC login flow and the
// current-identity endpoint.
type AuthHandler struct {
	magic        *auth.MagicLinkService
	identities   *auth.IdentityService
	sessions     *auth.SessionManager
	users        user.Repository
	emailLimiter *ratelimit.Limiter
	oidc         *auth.ClaimsVerifier // nil when OIDC is not configured
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	magic *auth.MagicLinkService,
	identities *auth.IdentityService,
	sessions *auth.SessionManager,
	users user.Repository,
	emailLimiter *ratelimit.Limiter,
	oidc *auth.ClaimsVerifier,
) *AuthHandler {
	return &AuthHandler{
		magic:        magic,
		identities:   identities,
		sessions:     sessions,
		users:        users,
		emailLimiter: emailLimiter,
		oidc:         oidc,
	}
}

// RequestMagicLink handles POST /api/auth/request-magic-link.
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.ValidateEmail(req.Email); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	email := user.NormalizeEmail(req.Email)

	// The email-keyed limiter rejects with the success payload. A probing
	// client sees no difference between limited, unknown and served.
	decision := h.emailLimiter.Check(r.Context(), email)
	if !decision.Allowed {
		metrics.RateLimited("email")
		slog.Warn("magic link request rate-limited", "email", email)
		response.Success(w, http.StatusOK, messageResponse{Message: magicLinkSent}, requestID)
		return
	}

	if err := h.magic.RequestLink(r.Context(), email); err != nil {
		slog.Error("failed to send magic link", "email", email, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to send login link", requestID)
		return
	}

	response.Success(w, http.StatusOK, messageResponse{Message: magicLinkSent}, requestID)
}

// VerifyMagicLink handles GET /api/auth/verify-magic-link?token=.
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	u, sup, err := h.magic.VerifyLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenUsed):
			response.Err(w, http.StatusBadRequest, "TOKEN_USED", "Token already used", requestID)
		case errors.Is(err, auth.ErrTokenInvalid):
			response.Err(w, http.StatusBadRequest, "TOKEN_INVALID", "Invalid or expired token", requestID)
		case errors.Is(err, auth.ErrAccountInactive):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Account is inactive", requestID)
		default:
			slog.Error("magic link verification failed", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Verification failed", requestID)
		}
		return
	}

	if err := h.sessions.Issue(w, u, auth.AuthSupplier); err != nil {
		slog.Error("failed to issue session", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Verification failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, verifyResponse{
		Success: true,
		Supplier: supplierSummary{
			ID:            sup.ID.String(),
			SupplierName:  sup.SupplierName,
			Email:         sup.Email,
			ContactPerson: sup.ContactPerson,
		},
	}, requestID)
}

// SetupPassword handles POST /api/auth/setup-password?token=.
func (h *AuthHandler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setupPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if fieldErrors := validation.ValidatePassword(req.Password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.magic.SetupPassword(r.Context(), r.URL.Query().Get("token"), req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenUsed):
			response.Err(w, http.StatusBadRequest, "TOKEN_USED", "Token already used", requestID)
		case errors.Is(err, auth.ErrTokenInvalid):
			response.Err(w, http.StatusBadRequest, "TOKEN_INVALID", "Invalid or expired token", requestID)
		default:
			slog.Error("password setup failed", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Password setup failed", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, setupResponse{Success: true, Message: "Password set"}, requestID)
}

// Me handles GET /api/auth/user for any authenticated session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		return
	}

	u, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to load credential", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", requestID)
		return
	}

	response.Success(w, http.StatusOK, credentialResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Active:    u.Active,
		AuthType:  string(identity.Type),
	}, requestID)
}

// OIDCLogin handles GET /api/login/oidc.
func (h *AuthHandler) OIDCLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.oidc == nil {
		response.Err(w, http.StatusServiceUnavailable, "OIDC_UNAVAILABLE", "OIDC login is not configured", requestID)
		return
	}

	state, _, err := token.Generate()
	if err != nil {
		slog.Error("failed to generate OIDC state", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// OIDCCallback handles GET /api/callback. A verified ID token either maps
// to an existing credential or auto-provisions a supplier one; emails that
// match neither are rejected.
func (h *AuthHandler) OIDCCallback(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.oidc == nil {
		response.Err(w, http.StatusServiceUnavailable, "OIDC_UNAVAILABLE", "OIDC login is not configured", requestID)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		response.Err(w, http.StatusBadRequest, "INVALID_STATE", "OIDC state mismatch", requestID)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_CODE", "Missing authorization code", requestID)
		return
	}

	claims, err := h.oidc.Exchange(r.Context(), code)
	if err != nil {
		slog.Warn("OIDC code exchange failed", "error", err)
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "OIDC login failed", requestID)
		return
	}

	u, err := h.identities.ProvisionClaims(r.Context(), claims)
	if err != nil {
		if errors.Is(err, auth.ErrNotRegisteredSupplier) {
			response.Err(w, http.StatusForbidden, "NOT_REGISTERED_SUPPLIER", "Email is not a registered supplier", requestID)
			return
		}
		slog.Error("claims provisioning failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	if !u.Active {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account is inactive", requestID)
		return
	}

	if err := h.sessions.Issue(w, u, auth.AuthClaims); err != nil {
		slog.Error("failed to issue session", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, credentialResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Active:    u.Active,
		AuthType:  string(auth.AuthClaims),
	}, requestID)
}
