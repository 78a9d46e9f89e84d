package linktoken

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned when no token matches a presented hash.
var ErrTokenNotFound = errors.New("link token not found")

// ErrTokenUsed is returned when a claim loses the compare-and-swap on
// used_at: some other redemption consumed the token first.
var ErrTokenUsed = errors.New("link token already used")

// Repository provides operations on the link_tokens table.
//
// Claim and ConsumePasswordSetup are the only ways a token transitions to
// consumed. Both are atomic compare-and-swaps on used_at, so concurrent
// redemptions of the same secret deterministically produce one winner and
// ErrTokenUsed for everyone else.
type Repository interface {
	Create(ctx context.Context, t *Token) error
	GetByHash(ctx context.Context, hash string) (*Token, error)

	// Claim marks the token consumed iff it is still unconsumed.
	Claim(ctx context.Context, id uuid.UUID) error

	// ConsumePasswordSetup claims the token and writes the user's password
	// hash in a single transaction, so the credential mutation can never
	// happen twice for one token.
	ConsumePasswordSetup(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string) error

	// PurgeExpired deletes expired unconsumed tokens and returns the count.
	PurgeExpired(ctx context.Context) (int64, error)
}
