package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/user"
)

const supplierKey contextKey = "supplier"

// RequireRole returns middleware that rejects identities whose role is not
// in the allowed list.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			if !allowed[identity.Role] {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSupplier returns middleware for supplier-portal routes. The caller
// must hold a supplier-role identity whose email maps to a supplier record
// with at least one invitation; a matching email with zero invitations is
// not yet a supplier for access purposes and gets 403, distinct from any
// credential failure.
func RequireSupplier(suppliers supplier.Repository, quotes quote.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			if identity.Role != user.RoleSupplier {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Supplier access required", requestID)
				return
			}

			sup, err := suppliers.GetByEmail(r.Context(), identity.Email)
			if err != nil {
				if errors.Is(err, supplier.ErrSupplierNotFound) {
					response.Err(w, http.StatusForbidden, "FORBIDDEN", "No supplier record for this account", requestID)
					return
				}
				slog.Error("failed to load supplier for guard", "error", err)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization failed", requestID)
				return
			}

			count, err := quotes.CountInvitationsForSupplier(r.Context(), sup.ID)
			if err != nil {
				slog.Error("failed to count supplier invitations", "error", err)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization failed", requestID)
				return
			}
			if count == 0 {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "No quote requests for this supplier", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), supplierKey, sup)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSupplier retrieves the guard-resolved supplier from the context.
func GetSupplier(ctx context.Context) *supplier.Supplier {
	if s, ok := ctx.Value(supplierKey).(*supplier.Supplier); ok {
		return s
	}
	return nil
}
