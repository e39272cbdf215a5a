package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/sentinel"
	"paddock/pkg/platform/tx"
)

const raceColumns = `id, year, round, circuit_id, name, date, url`

type RaceStore struct {
	db *sql.DB
}

func scanRace(row scanner) (*models.Race, error) {
	var r models.Race
	var date sql.NullTime
	if err := row.Scan(&r.ID, &r.Year, &r.Round, &r.CircuitID, &r.Name, &date, &r.URL); err != nil {
		return nil, err
	}
	r.Date = timePtr(date)
	return &r, nil
}

func (s *RaceStore) query(ctx context.Context, query string, args ...any) ([]*models.Race, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*models.Race, 0)
	for rows.Next() {
		r, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RaceStore) FindByID(ctx context.Context, id int) (*models.Race, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+raceColumns+` FROM races WHERE id = $1`, id)
	r, err := scanRace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("race", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find race %d: %w", id, err)
	}
	return r, nil
}

func (s *RaceStore) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Race, error) {
	out := make(map[int]*models.Race, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	races, err := s.query(ctx, `SELECT `+raceColumns+` FROM races WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("find races: %w", err)
	}
	for _, r := range races {
		out[r.ID] = r
	}
	return out, nil
}

// List pushes the year filter into SQL. A nil bound is passed as NULL and
// disables its predicate.
func (s *RaceStore) List(ctx context.Context, filter models.YearFilter) ([]*models.Race, error) {
	from, to := filter.FromYear, filter.ToYear
	if filter.Year != nil {
		from, to = filter.Year, filter.Year
	}
	races, err := s.query(ctx, `
		SELECT `+raceColumns+`
		FROM races
		WHERE ($1::int IS NULL OR year >= $1)
		  AND ($2::int IS NULL OR year <= $2)
		ORDER BY year, round, id`,
		nullInt(from), nullInt(to))
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	return races, nil
}

func (s *RaceStore) Insert(ctx context.Context, r *models.Race) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO races (`+raceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Year, r.Round, r.CircuitID, r.Name, nullTime(r.Date), r.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("insert race %d", r.ID), nil)
	}
	return nil
}

func (s *RaceStore) Update(ctx context.Context, r *models.Race) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE races
		SET year = $2, round = $3, circuit_id = $4, name = $5, date = $6, url = $7
		WHERE id = $1`,
		r.ID, r.Year, r.Round, r.CircuitID, r.Name, nullTime(r.Date), r.URL)
	if err != nil {
		return writeError(err, fmt.Sprintf("update race %d", r.ID), nil)
	}
	return expectRow(res, "race", r.ID)
}

func (s *RaceStore) Delete(ctx context.Context, id int) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		return writeError(err, fmt.Sprintf("delete race %d", id), sentinel.ErrConflict)
	}
	return expectRow(res, "race", id)
}

func (s *RaceStore) DeleteMany(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM races WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return 0, writeError(err, "delete races", sentinel.ErrConflict)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete races: rows affected: %w", err)
	}
	return int(n), nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
