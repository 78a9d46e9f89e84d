package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/user"
)

// ErrInvalidCredentials is the single generic rejection for every
// wrong-credential path, so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountInactive is returned for deactivated accounts. The message is
// distinguished deliberately: reaching it requires knowing the account
// exists, so it is not an enumeration vector.
var ErrAccountInactive = errors.New("account is inactive")

// ErrPasswordNotSet is returned when the account has no password hash.
var ErrPasswordNotSet = errors.New("password not set for this account, use the email sign-in link")

// LockedOutError rejects logins while an account lockout is in effect.
type LockedOutError struct {
	Until   time.Time
	Minutes int // remaining, rounded up
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %d minutes", e.Minutes)
}

func newLockedOutError(until, now time.Time) *LockedOutError {
	minutes := int(math.Ceil(until.Sub(now).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return &LockedOutError{Until: until, Minutes: minutes}
}

// LocalAuthenticator validates email+password logins for admin and
// procurement accounts and enforces the lockout policy.
type LocalAuthenticator struct {
	users    user.Repository
	attempts AttemptStore
	now      func() time.Time
}

// NewLocalAuthenticator creates a LocalAuthenticator.
func NewLocalAuthenticator(users user.Repository, attempts AttemptStore) *LocalAuthenticator {
	return &LocalAuthenticator{users: users, attempts: attempts, now: time.Now}
}

// Login validates the credentials and returns the matching user. Failed
// attempts accumulate toward lockout; a success clears the counter.
func (a *LocalAuthenticator) Login(ctx context.Context, email, password string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	now := a.now()

	if until, locked := a.attempts.LockedUntil(email, now); locked {
		slog.Warn("login rejected: account locked", "email", email, "until", until)
		metrics.LoginAttempt("locked")
		return nil, newLockedOutError(until, now)
	}

	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			slog.Warn("login rejected: unknown email", "email", email)
			metrics.LoginAttempt("invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up credential: %w", err)
	}

	// Supplier accounts are magic-link only; rejecting generically keeps
	// this path indistinguishable from an unknown email.
	if !u.LocalAuthEligible() {
		slog.Warn("login rejected: role not eligible for password auth", "email", email, "role", u.Role)
		metrics.LoginAttempt("invalid")
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		slog.Warn("login rejected: inactive account", "email", email)
		metrics.LoginAttempt("inactive")
		return nil, ErrAccountInactive
	}

	if u.PasswordHash == nil {
		slog.Warn("login rejected: no password set", "email", email)
		metrics.LoginAttempt("invalid")
		return nil, ErrPasswordNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		if until, locked := a.attempts.RecordFailure(email, now); locked {
			slog.Warn("login failure triggered lockout", "email", email, "until", until)
		} else {
			slog.Warn("login rejected: wrong password", "email", email)
		}
		metrics.LoginAttempt("invalid")
		return nil, ErrInvalidCredentials
	}

	a.attempts.Reset(email)
	metrics.LoginAttempt("success")
	slog.Info("local login succeeded", "email", email, "role", u.Role)
	return u, nil
}
