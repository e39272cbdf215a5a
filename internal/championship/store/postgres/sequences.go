package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/tx"
)

// Sequences allocates ids from the id_sequences table. The first reservation
// for a collection seeds the counter from the table's highest id. The upsert
// locks the counter row, so concurrent reservations queue rather than collide.
type Sequences struct {
	db *sql.DB
}

func NewSequences(db *sql.DB) *Sequences {
	return &Sequences{db: db}
}

func (s *Sequences) Reserve(ctx context.Context, collection models.Collection, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %d ids for %s: count must be positive", n, collection)
	}
	table, ok := tableNames[collection]
	if !ok {
		return 0, fmt.Errorf("reserve ids: unknown collection %q", collection)
	}
	query := fmt.Sprintf(`
		INSERT INTO id_sequences (collection, last_value)
		VALUES ($1, (SELECT COALESCE(MAX(id), 0) FROM %s) + $2)
		ON CONFLICT (collection) DO UPDATE
			SET last_value = id_sequences.last_value + $2
		RETURNING last_value`, table)

	var last int
	if err := tx.Executor(ctx, s.db).QueryRowContext(ctx, query, string(collection), n).Scan(&last); err != nil {
		return 0, fmt.Errorf("reserve %d ids for %s: %w", n, collection, err)
	}
	return last - n + 1, nil
}

// Sync raises every counter to at least the highest stored id, covering rows
// loaded with explicit ids after the counter was seeded.
func (s *Sequences) Sync(ctx context.Context) error {
	for _, collection := range models.Collections {
		table := tableNames[collection]
		query := fmt.Sprintf(`
			INSERT INTO id_sequences (collection, last_value)
			VALUES ($1, (SELECT COALESCE(MAX(id), 0) FROM %s))
			ON CONFLICT (collection) DO UPDATE
				SET last_value = GREATEST(id_sequences.last_value, EXCLUDED.last_value)`, table)
		if _, err := tx.Executor(ctx, s.db).ExecContext(ctx, query, string(collection)); err != nil {
			return fmt.Errorf("sync %s sequence: %w", collection, err)
		}
	}
	return nil
}
