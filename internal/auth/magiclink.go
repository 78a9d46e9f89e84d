package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotelink/quotelink/internal/linktoken"
	"github.com/quotelink/quotelink/internal/mail"
	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/token"
	"github.com/quotelink/quotelink/internal/user"
)

// ErrTokenInvalid covers not-found, expired and wrong-type tokens with one
// indistinguishable rejection. The precise reason is logged, never returned.
var ErrTokenInvalid = errors.New("invalid or expired token")

// ErrTokenUsed mirrors linktoken.ErrTokenUsed at this layer.
var ErrTokenUsed = linktoken.ErrTokenUsed

// MagicLinkService issues and redeems the ephemeral link tokens behind
// supplier magic-link login and password setup.
type MagicLinkService struct {
	suppliers  supplier.Repository
	users      user.Repository
	tokens     linktoken.Repository
	mailer     mail.Mailer
	baseURL    string
	bcryptCost int
	now        func() time.Time
}

// NewMagicLinkService creates a MagicLinkService.
func NewMagicLinkService(
	suppliers supplier.Repository,
	users user.Repository,
	tokens linktoken.Repository,
	mailer mail.Mailer,
	baseURL string,
	bcryptCost int,
) *MagicLinkService {
	return &MagicLinkService{
		suppliers:  suppliers,
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		baseURL:    baseURL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// RequestLink issues a login token for the supplier matching the email and
// dispatches the magic link. Unknown or inactive emails return nil without
// side effects: the caller sends the same generic response either way, so
// the endpoint leaks nothing about which emails exist. Only a genuine
// dispatch or persistence failure is returned.
func (s *MagicLinkService) RequestLink(ctx context.Context, email string) error {
	email = user.NormalizeEmail(email)

	sup, err := s.suppliers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			slog.Info("magic link requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("looking up supplier: %w", err)
	}
	if !sup.Active {
		slog.Info("magic link requested for inactive supplier", "email", email)
		return nil
	}

	secret, hash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("generating login token: %w", err)
	}

	t := &linktoken.Token{
		Email:     email,
		TokenHash: hash,
		Type:      linktoken.TypeLogin,
		ExpiresAt: s.now().Add(linktoken.LoginExpiry),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return fmt.Errorf("storing login token: %w", err)
	}

	loginURL := s.baseURL + "/api/auth/verify-magic-link?token=" + secret
	if err := s.mailer.SendMagicLink(ctx, email, loginURL); err != nil {
		return fmt.Errorf("dispatching magic link: %w", err)
	}

	metrics.MagicLinkRequested()
	slog.Info("magic link issued", "email", email, "tokenId", t.ID)

	// Opportunistic cleanup; the sweeper handles anything missed here.
	if n, err := s.tokens.PurgeExpired(ctx); err != nil {
		slog.Warn("purging expired link tokens failed", "error", err)
	} else if n > 0 {
		slog.Debug("purged expired link tokens", "count", n)
	}

	return nil
}

// VerifyLink redeems a login token. The atomic claim decides the winner
// when the same secret is redeemed concurrently; everyone else gets
// ErrTokenUsed. The caller issues the session cookie after this returns.
func (s *MagicLinkService) VerifyLink(ctx context.Context, rawToken string) (*user.User, *supplier.Supplier, error) {
	hash, err := token.HashPresented(rawToken)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	t, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, linktoken.ErrTokenNotFound) {
			slog.Warn("magic link verification failed: unknown token")
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("looking up login token: %w", err)
	}

	if t.Type != linktoken.TypeLogin {
		slog.Warn("magic link verification failed: wrong token type", "email", t.Email, "type", t.Type)
		return nil, nil, ErrTokenInvalid
	}
	if t.Used() {
		slog.Warn("magic link verification failed: token already used", "email", t.Email)
		return nil, nil, ErrTokenUsed
	}
	if t.Expired(s.now()) {
		slog.Warn("magic link verification failed: token expired", "email", t.Email)
		return nil, nil, ErrTokenInvalid
	}

	sup, err := s.suppliers.GetByEmail(ctx, t.Email)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			slog.Warn("magic link verification failed: supplier gone", "email", t.Email)
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("looking up supplier: %w", err)
	}

	u, err := s.findOrCreateSupplierUser(ctx, sup)
	if err != nil {
		return nil, nil, err
	}
	if !u.Active {
		slog.Warn("magic link verification rejected: inactive credential", "email", t.Email)
		return nil, nil, ErrAccountInactive
	}

	if err := s.tokens.Claim(ctx, t.ID); err != nil {
		if errors.Is(err, linktoken.ErrTokenUsed) {
			slog.Warn("magic link verification lost claim race", "email", t.Email)
			return nil, nil, ErrTokenUsed
		}
		return nil, nil, fmt.Errorf("claiming login token: %w", err)
	}

	metrics.TokenConsumed(linktoken.TypeLogin)
	slog.Info("magic link login", "email", t.Email, "supplierId", sup.ID)
	return u, sup, nil
}

func (s *MagicLinkService) findOrCreateSupplierUser(ctx context.Context, sup *supplier.Supplier) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, sup.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up credential: %w", err)
	}

	first, last := sup.ContactNames()
	nu := &user.User{
		Email:     sup.Email,
		FirstName: first,
		LastName:  last,
		Role:      user.RoleSupplier,
		Active:    true,
	}
	if err := s.users.Create(ctx, nu); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return s.users.GetByEmail(ctx, sup.Email)
		}
		return nil, fmt.Errorf("provisioning supplier credential: %w", err)
	}

	slog.Info("supplier credential auto-provisioned", "email", nu.Email, "userId", nu.ID)
	return nu, nil
}

// IssuePasswordSetup creates a password-setup token for a local-auth
// eligible user and mails the setup link.
func (s *MagicLinkService) IssuePasswordSetup(ctx context.Context, u *user.User) error {
	if !u.LocalAuthEligible() {
		return fmt.Errorf("role %s is not eligible for password auth", u.Role)
	}

	secret, hash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("generating setup token: %w", err)
	}

	t := &linktoken.Token{
		Email:     u.Email,
		TokenHash: hash,
		Type:      linktoken.TypePasswordSetup,
		ExpiresAt: s.now().Add(linktoken.PasswordSetupExpiry),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return fmt.Errorf("storing setup token: %w", err)
	}

	setupURL := s.baseURL + "/setup-password?token=" + secret
	if err := s.mailer.SendPasswordSetup(ctx, u.Email, setupURL); err != nil {
		return fmt.Errorf("dispatching setup link: %w", err)
	}

	slog.Info("password setup link issued", "email", u.Email, "tokenId", t.ID)
	return nil
}

// SetupPassword redeems a password-setup token and stores the new password
// hash. The claim and the credential write happen in one storage operation,
// so two concurrent redemptions can never both mutate the credential: the
// loser gets ErrTokenUsed.
func (s *MagicLinkService) SetupPassword(ctx context.Context, rawToken, password string) error {
	hash, err := token.HashPresented(rawToken)
	if err != nil {
		return ErrTokenInvalid
	}

	t, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, linktoken.ErrTokenNotFound) {
			slog.Warn("password setup failed: unknown token")
			return ErrTokenInvalid
		}
		return fmt.Errorf("looking up setup token: %w", err)
	}

	// A login token must not be replayable into a password write.
	if t.Type != linktoken.TypePasswordSetup {
		slog.Warn("password setup failed: wrong token type", "email", t.Email, "type", t.Type)
		return ErrTokenInvalid
	}
	if t.Used() {
		slog.Warn("password setup failed: token already used", "email", t.Email)
		return ErrTokenUsed
	}
	if t.Expired(s.now()) {
		slog.Warn("password setup failed: token expired", "email", t.Email)
		return ErrTokenInvalid
	}

	u, err := s.users.GetByEmail(ctx, t.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			slog.Warn("password setup failed: credential gone", "email", t.Email)
			return ErrTokenInvalid
		}
		return fmt.Errorf("looking up credential: %w", err)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.tokens.ConsumePasswordSetup(ctx, t.ID, u.ID, string(pwHash)); err != nil {
		if errors.Is(err, linktoken.ErrTokenUsed) {
			slog.Warn("password setup lost claim race", "email", t.Email)
			return ErrTokenUsed
		}
		return fmt.Errorf("consuming setup token: %w", err)
	}

	metrics.TokenConsumed(linktoken.TypePasswordSetup)
	slog.Info("password set via setup link", "email", t.Email)
	return nil
}
