// Package postgres persists the championship collections in PostgreSQL.
//
// Every table handle resolves its executor from the context, so the same
// handles serve plain calls and calls made inside RunInTx.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/sentinel"
	"paddock/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const defaultTxTimeout = 5 * time.Second

// Postgres error codes the stores translate into sentinels.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// tableNames whitelists the tables a collection maps to; the name is
// interpolated into SQL and must never come from input.
var tableNames = map[models.Collection]string{
	models.CollectionDrivers:      "drivers",
	models.CollectionConstructors: "constructors",
	models.CollectionCircuits:     "circuits",
	models.CollectionRaces:        "races",
	models.CollectionResults:      "results",
}

type Store struct {
	db        *sql.DB
	txTimeout time.Duration
	ids       ports.IDAllocator
}

type Option func(*Store)

// WithTxTimeout bounds transactions whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithAllocator replaces the id_sequences counter.
func WithAllocator(ids ports.IDAllocator) Option {
	return func(s *Store) {
		s.ids = ids
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, txTimeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Stores() ports.Stores {
	var ids ports.IDAllocator = &Sequences{db: s.db}
	if s.ids != nil {
		ids = s.ids
	}
	return ports.Stores{
		Drivers:      &DriverStore{db: s.db},
		Constructors: &ConstructorStore{db: s.db},
		Circuits:     &CircuitStore{db: s.db},
		Races:        &RaceStore{db: s.db},
		Results:      &ResultStore{db: s.db},
		IDs:          ids,
	}
}

// RunInTx opens a transaction, places it in the context handed to fn and
// commits when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, stores ports.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), s.Stores()); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MaxID reports the highest stored id of a collection.
func (s *Store) MaxID(ctx context.Context, collection models.Collection) (int, error) {
	table, ok := tableNames[collection]
	if !ok {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	var highest int
	query := fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) FROM %s`, table)
	if err := tx.Executor(ctx, s.db).QueryRowContext(ctx, query).Scan(&highest); err != nil {
		return 0, fmt.Errorf("max id of %s: %w", table, err)
	}
	return highest, nil
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// writeError wraps a failed write, translating constraint violations.
// A foreign key violation means a referenced row is missing on insert and a
// referencing row still exists on delete; onFK picks the sentinel.
func writeError(err error, what string, onFK error) error {
	switch pqCode(err) {
	case uniqueViolation:
		return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
	case foreignKeyViolation:
		if onFK != nil {
			return fmt.Errorf("%s: %w", what, onFK)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func notFound(what string, id int) error {
	return fmt.Errorf("%s %d: %w", what, id, sentinel.ErrNotFound)
}

// expectRow turns an UPDATE or DELETE that touched nothing into ErrNotFound.
func expectRow(res sql.Result, what string, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", what, id, err)
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

type scanner interface {
	Scan(dest ...any) error
}

func int64s(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
