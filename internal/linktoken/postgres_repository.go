package linktoken

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

// Create inserts a new link token.
func (r *PostgresRepository) Create(ctx context.Context, t *Token) error {
	query := `
		INSERT INTO link_tokens (email, token_hash, token_type, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, t.Email, t.TokenHash, t.Type, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting link token: %w", err)
	}
	return nil
}

// GetByHash retrieves a token by the hash of its bearer secret.
func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*Token, error) {
	query := `
		SELECT id, email, token_hash, token_type, expires_at, used_at, created_at
		FROM link_tokens
		WHERE token_hash = $1`

	var t Token
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&t.ID, &t.Email, &t.TokenHash, &t.Type,
		&t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying link token: %w", err)
	}
	return &t, nil
}

// Claim implements the compare-and-swap on used_at.
func (r *PostgresRepository) Claim(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE link_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("claiming link token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenUsed
	}
	return nil
}

// ConsumePasswordSetup claims the token and stores the password hash in one
// transaction. Losing the claim rolls back without touching the credential.
func (r *PostgresRepository) ConsumePasswordSetup(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning token consumption: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE link_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`,
		tokenID,
	)
	if err != nil {
		return fmt.Errorf("claiming link token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenUsed
	}

	result, err = tx.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("storing password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("storing password hash: user %s not found", userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing token consumption: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired unconsumed tokens.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM link_tokens WHERE used_at IS NULL AND expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purging expired link tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
