package quote

import (
	"time"

	"github.com/google/uuid"
)

// Quote request statuses.
const (
	RequestOpen   = "open"
	RequestClosed = "closed"
)

// Quote statuses.
const (
	QuoteSubmitted = "submitted"
	QuoteApproved  = "approved"
	QuoteRejected  = "rejected"
)

// AccessTokenExpiry is how long a supplier's capability URL for a quote
// request stays valid. Re-inviting the supplier reissues the token.
const AccessTokenExpiry = 30 * 24 * time.Hour

// Request represents a material quote request created by procurement.
type Request struct {
	ID        uuid.UUID
	Title     string
	Material  string
	Quantity  float64
	Unit      string
	Notes     string
	Status    string
	DueDate   *time.Time
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invitation links a supplier to a quote request. The scoped access token
// pair lives here: the token is a capability embedded in the public URL, so
// it is stored in plaintext rather than hashed.
type Invitation struct {
	ID             uuid.UUID
	RequestID      uuid.UUID
	SupplierID     uuid.UUID
	AccessToken    string
	TokenExpiresAt time.Time
	InvitedAt      time.Time
}

// TokenExpired reports whether the invitation's access token has expired.
func (i *Invitation) TokenExpired(now time.Time) bool {
	return !now.Before(i.TokenExpiresAt)
}

// Quote is a supplier's submitted pricing for one invitation.
type Quote struct {
	ID              uuid.UUID
	RequestSupplier uuid.UUID // invitation ID
	UnitPrice       float64
	Currency        string
	LeadTimeDays    int
	ValidUntil      *time.Time
	Notes           string
	Status          string
	CreatedAt       time.Time
}
