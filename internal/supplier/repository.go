package supplier

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSupplierNotFound is returned when a supplier record is not found.
var ErrSupplierNotFound = errors.New("supplier not found")

// ErrEmailTaken is returned when creating a supplier with an email that
// is already registered.
var ErrEmailTaken = errors.New("supplier email already registered")

// Repository provides operations on the suppliers table.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	GetByEmail(ctx context.Context, email string) (*Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
	Update(ctx context.Context, s *Supplier) error
}
