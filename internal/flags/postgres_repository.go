package flags

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL feature flag repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetFlag retrieves a single feature flag by name.
func (r *PostgresRepository) GetFlag(ctx context.Context, name string) (*Flag, error) {
	query := `
		SELECT name, kind, enabled, rollout, segments, version, updated_at
		FROM feature_flags
		WHERE name = $1
	`

	var (
		flag         Flag
		segmentsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, name).Scan(
		&flag.Name,
		&flag.Kind,
		&flag.Enabled,
		&flag.Rollout,
		&segmentsJSON,
		&flag.Version,
		&flag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}

	if len(segmentsJSON) > 0 {
		if err := json.Unmarshal(segmentsJSON, &flag.Segments); err != nil {
			return nil, err
		}
	}

	return &flag, nil
}

// GetAllFlags retrieves all feature flags.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) ([]Flag, error) {
	query := `
		SELECT name, kind, enabled, rollout, segments, version, updated_at
		FROM feature_flags
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Flag
	for rows.Next() {
		var (
			flag         Flag
			segmentsJSON []byte
		)

		err := rows.Scan(
			&flag.Name,
			&flag.Kind,
			&flag.Enabled,
			&flag.Rollout,
			&segmentsJSON,
			&flag.Version,
			&flag.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(segmentsJSON) > 0 {
			if err := json.Unmarshal(segmentsJSON, &flag.Segments); err != nil {
				return nil, err
			}
		}

		all = append(all, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return all, nil
}

// SetFlag creates or updates a feature flag.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	query := `
		INSERT INTO feature_flags (name, kind, enabled, rollout, segments, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			kind = EXCLUDED.kind,
			enabled = EXCLUDED.enabled,
			rollout = EXCLUDED.rollout,
			segments = EXCLUDED.segments,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	segmentsJSON, err := json.Marshal(flag.Segments)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		flag.Name, flag.Kind, flag.Enabled, flag.Rollout, segmentsJSON, flag.Version, time.Now())
	return err
}

// SetFlags creates or updates multiple feature flags atomically.
func (r *PostgresRepository) SetFlags(ctx context.Context, all []*Flag) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	query := `
		INSERT INTO feature_flags (name, kind, enabled, rollout, segments, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			kind = EXCLUDED.kind,
			enabled = EXCLUDED.enabled,
			rollout = EXCLUDED.rollout,
			segments = EXCLUDED.segments,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	for _, flag := range all {
		segmentsJSON, err := json.Marshal(flag.Segments)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, query,
			flag.Name, flag.Kind, flag.Enabled, flag.Rollout, segmentsJSON, flag.Version, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteFlag removes a feature flag by name.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, name string) error {
	query := `DELETE FROM feature_flags WHERE name = $1`
	_, err := r.pool.Exec(ctx, query, name)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
