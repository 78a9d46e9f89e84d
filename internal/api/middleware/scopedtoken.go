package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/auth"
)

const supplierAccessKey contextKey = "supplierAccess"

// ScopedToken is middleware for the public quote-request routes. It reads
// the ?token= query parameter and resolves it to the (request, supplier)
// pair it was issued for. It proves identity only; handlers still scope
// every mutation to the resolved pair.
func ScopedToken(authenticator *auth.ScopedAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				response.Err(w, http.StatusBadRequest, "INVALID_ID", "Quote request ID must be a valid UUID", requestID)
				return
			}

			presented := r.URL.Query().Get("token")
			if presented == "" {
				response.Err(w, http.StatusBadRequest, "TOKEN_REQUIRED", "Access token is required", requestID)
				return
			}

			access, err := authenticator.Authenticate(r.Context(), id, presented)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenInvalid):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access token", requestID)
				case errors.Is(err, auth.ErrAccessTokenExpired):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Access token expired", requestID)
				default:
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Token validation failed", requestID)
				}
				return
			}

			ctx := context.WithValue(r.Context(), supplierAccessKey, access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSupplierAccess retrieves the resolved scoped access from the context.
func GetSupplierAccess(ctx context.Context) *auth.SupplierAccess {
	if a, ok := ctx.Value(supplierAccessKey).(*auth.SupplierAccess); ok {
		return a
	}
	return nil
}
