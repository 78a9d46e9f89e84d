package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/auth"
)

const identityKey contextKey = "identity"

// Auth is middleware that reads the session cookie and resolves it to an
// Identity. The credential's active flag is re-checked on every request, so
// deactivating an account cuts off existing sessions immediately.
func Auth(sessions *auth.SessionManager, identities *auth.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			sc, err := sessions.Read(r)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			identity, err := identities.Resolve(r.Context(), sc)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
					return
				}
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			if !identity.Active {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account is inactive", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
