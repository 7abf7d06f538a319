package requirements

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads requirements from the flag_requirements table.
//
// Schema:
//
//	CREATE TABLE flag_requirements (
//	    flag_name      TEXT NOT NULL,
//	    layer          TEXT NOT NULL,
//	    selector       TEXT NOT NULL,
//	    discriminators JSONB NOT NULL DEFAULT '["*"]',
//	    PRIMARY KEY (flag_name, layer, selector)
//	);
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a new PostgreSQL requirements source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Load returns the full requirement set for the given layer.
func (s *PostgresSource) Load(ctx context.Context, layer Layer) (Set, error) {
	query := `
		SELECT flag_name, selector, discriminators
		FROM flag_requirements
		WHERE layer = $1
		ORDER BY flag_name, selector
	`

	rows, err := s.pool.Query(ctx, query, string(layer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := Set{}
	for rows.Next() {
		var (
			flagName  string
			selector  string
			discsJSON []byte
		)

		if err := rows.Scan(&flagName, &selector, &discsJSON); err != nil {
			return nil, err
		}

		var values []string
		if err := json.Unmarshal(discsJSON, &values); err != nil {
			return nil, err
		}
		if len(values) == 0 {
			values = []string{Wildcard}
		}

		entry, ok := set[flagName]
		if !ok {
			entry = Entry{}
			set[flagName] = entry
		}
		entry[selector] = NewDiscriminatorSet(values...)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// Ensure PostgresSource implements Source interface.
var _ Source = (*PostgresSource)(nil)
