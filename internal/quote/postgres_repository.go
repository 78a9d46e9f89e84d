package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `id, title, material, quantity, unit, notes, status, due_date, created_by, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(
		&r.ID, &r.Title, &r.Material, &r.Quantity, &r.Unit, &r.Notes,
		&r.Status, &r.DueDate, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var r Request
		err := rows.Scan(
			&r.ID, &r.Title, &r.Material, &r.Quantity, &r.Unit, &r.Notes,
			&r.Status, &r.DueDate, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning quote request row: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote request rows: %w", err)
	}

	if requests == nil {
		requests = []Request{}
	}
	return requests, nil
}

// CreateRequest inserts a new quote request.
func (r *PostgresRepository) CreateRequest(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO quote_requests (title, material, quantity, unit, notes, status, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		req.Title, req.Material, req.Quantity, req.Unit, req.Notes,
		req.Status, req.DueDate, req.CreatedBy,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting quote request: %w", err)
	}
	return nil
}

// GetRequest retrieves a single quote request by its UUID.
func (r *PostgresRepository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM quote_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("querying quote request: %w", err)
	}
	return req, nil
}

// ListRequests retrieves all quote requests, newest first.
func (r *PostgresRepository) ListRequests(ctx context.Context) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM quote_requests ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing quote requests: %w", err)
	}
	return collectRequests(rows)
}

// Invite upserts the (request, supplier) pairing, overwriting any previous
// access token for the pair.
func (r *PostgresRepository) Invite(ctx context.Context, inv *Invitation) error {
	query := `
		INSERT INTO request_suppliers (request_id, supplier_id, access_token, token_expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id, supplier_id)
		DO UPDATE SET access_token = EXCLUDED.access_token,
		              token_expires_at = EXCLUDED.token_expires_at,
		              invited_at = NOW()
		RETURNING id, invited_at`

	err := r.pool.QueryRow(ctx, query,
		inv.RequestID, inv.SupplierID, inv.AccessToken, inv.TokenExpiresAt,
	).Scan(&inv.ID, &inv.InvitedAt)
	if err != nil {
		return fmt.Errorf("inviting supplier: %w", err)
	}
	return nil
}

// ListInvitations retrieves all supplier invitations for a request.
func (r *PostgresRepository) ListInvitations(ctx context.Context, requestID uuid.UUID) ([]Invitation, error) {
	query := `
		SELECT id, request_id, supplier_id, access_token, token_expires_at, invited_at
		FROM request_suppliers
		WHERE request_id = $1`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var invitations []Invitation
	for rows.Next() {
		var inv Invitation
		err := rows.Scan(
			&inv.ID, &inv.RequestID, &inv.SupplierID,
			&inv.AccessToken, &inv.TokenExpiresAt, &inv.InvitedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation row: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invitation rows: %w", err)
	}

	if invitations == nil {
		invitations = []Invitation{}
	}
	return invitations, nil
}

// CountInvitationsForSupplier counts invitations across all requests.
func (r *PostgresRepository) CountInvitationsForSupplier(ctx context.Context, supplierID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM request_suppliers WHERE supplier_id = $1`, supplierID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting supplier invitations: %w", err)
	}
	return count, nil
}

// ListRequestsForSupplier retrieves the quote requests a supplier has been
// invited to, newest first.
func (r *PostgresRepository) ListRequestsForSupplier(ctx context.Context, supplierID uuid.UUID) ([]Request, error) {
	query := `
		SELECT q.id, q.title, q.material, q.quantity, q.unit, q.notes,
		       q.status, q.due_date, q.created_by, q.created_at, q.updated_at
		FROM quote_requests q
		JOIN request_suppliers rs ON rs.request_id = q.id
		WHERE rs.supplier_id = $1
		ORDER BY q.created_at DESC`

	rows, err := r.pool.Query(ctx, query, supplierID)
	if err != nil {
		return nil, fmt.Errorf("listing supplier quote requests: %w", err)
	}
	return collectRequests(rows)
}

// CreateQuote inserts a submitted quote for an invitation.
func (r *PostgresRepository) CreateQuote(ctx context.Context, q *Quote) error {
	query := `
		INSERT INTO quotes (request_supplier_id, unit_price, currency, lead_time_days, valid_until, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		q.RequestSupplier, q.UnitPrice, q.Currency, q.LeadTimeDays,
		q.ValidUntil, q.Notes, q.Status,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting quote: %w", err)
	}
	return nil
}

// ListQuotesByRequest retrieves all quotes submitted for a request.
func (r *PostgresRepository) ListQuotesByRequest(ctx context.Context, requestID uuid.UUID) ([]Quote, error) {
	query := `
		SELECT q.id, q.request_supplier_id, q.unit_price, q.currency,
		       q.lead_time_days, q.valid_until, q.notes, q.status, q.created_at
		FROM quotes q
		JOIN request_suppliers rs ON rs.id = q.request_supplier_id
		WHERE rs.request_id = $1
		ORDER BY q.created_at ASC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		err := rows.Scan(
			&q.ID, &q.RequestSupplier, &q.UnitPrice, &q.Currency,
			&q.LeadTimeDays, &q.ValidUntil, &q.Notes, &q.Status, &q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning quote row: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote rows: %w", err)
	}

	if quotes == nil {
		quotes = []Quote{}
	}
	return quotes, nil
}

// SetQuoteStatus updates a quote's status and returns the updated record.
func (r *PostgresRepository) SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) (*Quote, error) {
	query := `
		UPDATE quotes
		SET status = $2
		WHERE id = $1
		RETURNING id, request_supplier_id, unit_price, currency, lead_time_days, valid_until, notes, status, created_at`

	var q Quote
	err := r.pool.QueryRow(ctx, query, id, status).Scan(
		&q.ID, &q.RequestSupplier, &q.UnitPrice, &q.Currency,
		&q.LeadTimeDays, &q.ValidUntil, &q.Notes, &q.Status, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("updating quote status: %w", err)
	}
	return &q, nil
}
