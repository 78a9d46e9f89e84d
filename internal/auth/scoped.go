package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/quote"
)

// ErrAccessTokenInvalid is returned when no invitation for the request
// carries the presented token.
var ErrAccessTokenInvalid = errors.New("invalid access token")

// ErrAccessTokenExpired is returned when the matching token is past expiry.
var ErrAccessTokenExpired = errors.New("access token expired")

// SupplierAccess is the proven (request, supplier) pairing. Handlers must
// scope every mutation to these identifiers and never trust supplier or
// request IDs arriving in a request body.
type SupplierAccess struct {
	RequestID    uuid.UUID
	SupplierID   uuid.UUID
	InvitationID uuid.UUID
}

// ScopedAuthenticator validates the capability tokens embedded in public
// quote-request URLs.
type ScopedAuthenticator struct {
	quotes quote.Repository
	now    func() time.Time
}

// NewScopedAuthenticator creates a ScopedAuthenticator.
func NewScopedAuthenticator(quotes quote.Repository) *ScopedAuthenticator {
	return &ScopedAuthenticator{quotes: quotes, now: time.Now}
}

// Authenticate resolves the presented token against the request's
// invitations. The token is a capability transmitted in the URL itself, so
// it is compared in plaintext rather than by hash.
func (a *ScopedAuthenticator) Authenticate(ctx context.Context, requestID uuid.UUID, presented string) (*SupplierAccess, error) {
	if presented == "" {
		return nil, ErrAccessTokenInvalid
	}

	invitations, err := a.quotes.ListInvitations(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}

	for _, inv := range invitations {
		if inv.AccessToken != presented {
			continue
		}
		if inv.TokenExpired(a.now()) {
			slog.Warn("scoped access rejected: token expired", "requestId", requestID, "supplierId", inv.SupplierID)
			return nil, ErrAccessTokenExpired
		}
		return &SupplierAccess{
			RequestID:    inv.RequestID,
			SupplierID:   inv.SupplierID,
			InvitationID: inv.ID,
		}, nil
	}

	slog.Warn("scoped access rejected: no matching token", "requestId", requestID)
	return nil, ErrAccessTokenInvalid
}
