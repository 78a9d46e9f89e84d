package quote

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRequestNotFound is returned when a quote request is not found.
var ErrRequestNotFound = errors.New("quote request not found")

// ErrQuoteNotFound is returned when a quote is not found.
var ErrQuoteNotFound = errors.New("quote not found")

// Repository provides operations on quote requests, supplier invitations
// and submitted quotes.
type Repository interface {
	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListRequests(ctx context.Context) ([]Request, error)

	// Invite attaches a supplier to a request. Re-inviting the same pair
	// overwrites the stored access token, so exactly one token is live per
	// (request, supplier) at a time.
	Invite(ctx context.Context, inv *Invitation) error
	ListInvitations(ctx context.Context, requestID uuid.UUID) ([]Invitation, error)
	CountInvitationsForSupplier(ctx context.Context, supplierID uuid.UUID) (int, error)
	ListRequestsForSupplier(ctx context.Context, supplierID uuid.UUID) ([]Request, error)

	CreateQuote(ctx context.Context, q *Quote) error
	ListQuotesByRequest(ctx context.Context, requestID uuid.UUID) ([]Quote, error)
	SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) (*Quote, error)
}
