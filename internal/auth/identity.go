package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/user"
)

// AuthType tags which strategy authenticated the caller.
type AuthType string

const (
	AuthClaims   AuthType = "claims"
	AuthLocal    AuthType = "local"
	AuthSupplier AuthType = "supplier"
)

// ErrUnauthenticated is returned when no identity can be resolved.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrNotRegisteredSupplier is returned when an OIDC login presents an email
// that matches neither a credential nor a supplier record.
var ErrNotRegisteredSupplier = errors.New("email is not a registered supplier")

// Identity is the normalized projection every guard consumes, regardless of
// which of the three strategies produced it.
type Identity struct {
	Type   AuthType
	UserID uuid.UUID
	Email  string
	Role   string
	Active bool
}

// IdentityService resolves session claims to identities and provisions
// credentials for first-time OIDC logins.
type IdentityService struct {
	users     user.Repository
	suppliers supplier.Repository
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(users user.Repository, suppliers supplier.Repository) *IdentityService {
	return &IdentityService{users: users, suppliers: suppliers}
}

// Resolve turns session claims into an Identity backed by the current
// credential record. The active flag is re-checked here on every request so
// deactivation takes effect without waiting for logout.
func (s *IdentityService) Resolve(ctx context.Context, sc *SessionClaims) (*Identity, error) {
	if sc == nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, sc.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	return &Identity{
		Type:   sc.Type,
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Active: u.Active,
	}, nil
}

// ProvisionClaims finds or creates the credential for a verified OIDC login.
// Unknown emails that match a supplier record get a supplier-role credential
// auto-provisioned; emails matching nothing are rejected.
func (s *IdentityService) ProvisionClaims(ctx context.Context, c *Claims) (*user.User, error) {
	email := user.NormalizeEmail(c.Email)

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up credential: %w", err)
	}

	sup, err := s.suppliers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, supplier.ErrSupplierNotFound) {
			return nil, ErrNotRegisteredSupplier
		}
		return nil, fmt.Errorf("looking up supplier: %w", err)
	}

	first, last := sup.ContactNames()
	if c.GivenName != "" {
		first, last = c.GivenName, c.FamilyName
	}

	nu := &user.User{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      user.RoleSupplier,
		Active:    true,
	}
	if err := s.users.Create(ctx, nu); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// Lost a provisioning race; the winner's record is authoritative.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("provisioning credential: %w", err)
	}

	return nu, nil
}
