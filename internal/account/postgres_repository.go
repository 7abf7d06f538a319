package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create creates a new account.
func (r *PostgresRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, type, balance_cents, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.UserID,
		account.Name,
		string(account.Type),
		account.BalanceCents,
		account.Currency,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

// GetByUserAndID retrieves an account by user ID and account ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, accountID string) (*Account, error) {
	query := `
		SELECT id, user_id, name, type, balance_cents, currency, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND user_id = $2
	`

	var a Account
	err := r.pool.QueryRow(ctx, query, accountID, userID).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &a.BalanceCents, &a.Currency, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List retrieves all accounts for a user ordered by name.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Account, error) {
	query := `
		SELECT id, user_id, name, type, balance_cents, currency, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		var a Account
		err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Type, &a.BalanceCents, &a.Currency, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update updates an existing account.
func (r *PostgresRepository) Update(ctx context.Context, account *Account) error {
	query := `
		UPDATE accounts
		SET name = $3, type = $4, balance_cents = $5, currency = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`

	account.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, query,
		account.ID,
		account.UserID,
		account.Name,
		string(account.Type),
		account.BalanceCents,
		account.Currency,
		account.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete deletes an account by user ID and account ID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, accountID string) error {
	query := `DELETE FROM accounts WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, accountID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
