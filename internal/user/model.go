package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles a credential can hold. Only admin and procurement are eligible for
// local password login; supplier accounts authenticate via magic link.
const (
	RoleAdmin       = "admin"
	RoleProcurement = "procurement"
	RoleSupplier    = "supplier"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash *string // nil unless a password has been set
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LocalAuthEligible reports whether the user's role may use password login.
func (u *User) LocalAuthEligible() bool {
	return u.Role == RoleAdmin || u.Role == RoleProcurement
}

// NormalizeEmail lower-cases and trims an email for use as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleProcurement, RoleSupplier:
		return true
	}
	return false
}
