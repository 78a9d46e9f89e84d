package linktoken

import (
	"time"

	"github.com/google/uuid"
)

// Token types. A login token may never be redeemed to set a password and
// vice versa.
const (
	TypeLogin         = "login"
	TypePasswordSetup = "password_setup"
)

// Lifetimes per token type.
const (
	LoginExpiry         = 15 * time.Minute
	PasswordSetupExpiry = 24 * time.Hour
)

// Token represents a row in the link_tokens table. Only the one-way hash of
// the bearer secret is ever stored.
type Token struct {
	ID        uuid.UUID
	Email     string
	TokenHash string
	Type      string
	ExpiresAt time.Time
	UsedAt    *time.Time // nil means unconsumed
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Used reports whether the token has already been consumed.
func (t *Token) Used() bool {
	return t.UsedAt != nil
}
