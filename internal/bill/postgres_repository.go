package bill

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

// NewPostgresRepository creates a new PostgreSQL bill repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create creates a new bill.
func (r *PostgresRepository) Create(ctx context.Context, bill *Bill) error {
	query := `
		INSERT INTO bills (id, user_id, name, category, amount_cents, due_day, paid, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		bill.ID,
		bill.UserID,
		bill.Name,
		string(bill.Category),
		bill.AmountCents,
		bill.DueDay,
		bill.Paid,
		bill.PaidAt,
		bill.CreatedAt,
		bill.UpdatedAt,
	)
	return err
}

// GetByUserAndID retrieves a bill by user ID and bill ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, billID string) (*Bill, error) {
	query := `
		SELECT id, user_id, name, category, amount_cents, due_day, paid, paid_at, created_at, updated_at
		FROM bills
		WHERE id = $1 AND user_id = $2
	`

	var b Bill
	err := r.pool.QueryRow(ctx, query, billID, userID).Scan(
		&b.ID, &b.UserID, &b.Name, &b.Category, &b.AmountCents, &b.DueDay,
		&b.Paid, &b.PaidAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List retrieves all bills for a user ordered by due day.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Bill, error) {
	query := `
		SELECT id, user_id, name, category, amount_cents, due_day, paid, paid_at, created_at, updated_at
		FROM bills
		WHERE user_id = $1
		ORDER BY due_day, name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bill
	for rows.Next() {
		var b Bill
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Name, &b.Category, &b.AmountCents, &b.DueDay,
			&b.Paid, &b.PaidAt, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update updates an existing bill.
func (r *PostgresRepository) Update(ctx context.Context, bill *Bill) error {
	query := `
		UPDATE bills
		SET name = $3, category = $4, amount_cents = $5, due_day = $6, paid = $7, paid_at = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
	`

	bill.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, query,
		bill.ID,
		bill.UserID,
		bill.Name,
		string(bill.Category),
		bill.AmountCents,
		bill.DueDay,
		bill.Paid,
		bill.PaidAt,
		bill.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

// Delete deletes a bill by user ID and bill ID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, billID string) error {
	query := `DELETE FROM bills WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, billID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
