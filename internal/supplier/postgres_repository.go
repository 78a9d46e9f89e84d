package supplier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotelink/quotelink/internal/user"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const supplierColumns = `id, email, supplier_name, contact_person, active, created_at, updated_at`

// Create inserts a new supplier record.
func (r *PostgresRepository) Create(ctx context.Context, s *Supplier) error {
	query := `
		INSERT INTO suppliers (email, supplier_name, contact_person, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.NormalizeEmail(s.Email),
		s.SupplierName,
		s.ContactPerson,
		s.Active,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting supplier: %w", err)
	}

	s.Email = user.NormalizeEmail(s.Email)
	return nil
}

// GetByID retrieves a single supplier by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	var s Supplier
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Email, &s.SupplierName, &s.ContactPerson,
		&s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("querying supplier: %w", err)
	}
	return &s, nil
}

// GetByEmail retrieves a single supplier by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE email = $1`

	var s Supplier
	err := r.pool.QueryRow(ctx, query, user.NormalizeEmail(email)).Scan(
		&s.ID, &s.Email, &s.SupplierName, &s.ContactPerson,
		&s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("querying supplier by email: %w", err)
	}
	return &s, nil
}

// List retrieves all suppliers ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY supplier_name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		err := rows.Scan(
			&s.ID, &s.Email, &s.SupplierName, &s.ContactPerson,
			&s.Active, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning supplier row: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating supplier rows: %w", err)
	}

	if suppliers == nil {
		suppliers = []Supplier{}
	}
	return suppliers, nil
}

// Update persists name, contact and active changes to a supplier.
func (r *PostgresRepository) Update(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE suppliers
		SET supplier_name = $2, contact_person = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query, s.ID, s.SupplierName, s.ContactPerson, s.Active).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSupplierNotFound
		}
		return fmt.Errorf("updating supplier: %w", err)
	}
	return nil
}
