package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when creating a user with an email that
// already has a credential.
var ErrEmailTaken = errors.New("email already registered")

// Repository provides operations on the users table. Emails are always
// stored and looked up in normalized form.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Update(ctx context.Context, id uuid.UUID, role *string, active *bool) (*User, error)
}
