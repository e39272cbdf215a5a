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

const resultColumns = `id, race_id, driver_id, constructor_id, grid, position_text, position_order, points, laps, status_id`

// ResultStore relies on the uq_results_race_* indexes for the per-race
// uniqueness rules; a violation surfaces as sentinel.ErrConflict.
type ResultStore struct {
	db *sql.DB
}

func scanResult(row scanner) (*models.Result, error) {
	var r models.Result
	err := row.Scan(&r.ID, &r.RaceID, &r.DriverID, &r.ConstructorID, &r.Grid,
		&r.PositionText, &r.PositionOrder, &r.Points, &r.Laps, &r.StatusID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ResultStore) query(ctx context.Context, what, query string, args ...any) ([]*models.Result, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()
	out := make([]*models.Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", what, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}

func (s *ResultStore) FindByID(ctx context.Context, id int) (*models.Result, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id = $1`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find result %d: %w", id, err)
	}
	return r, nil
}

func (s *ResultStore) List(ctx context.Context) ([]*models.Result, error) {
	return s.query(ctx, "list results", `SELECT `+resultColumns+` FROM results ORDER BY id`)
}

func (s *ResultStore) ListByRace(ctx context.Context, raceID int) ([]*models.Result, error) {
	return s.query(ctx, "list results by race",
		`SELECT `+resultColumns+` FROM results WHERE race_id = $1 ORDER BY position_order, id`, raceID)
}

func (s *ResultStore) ListByRaces(ctx context.Context, raceIDs []int) ([]*models.Result, error) {
	if len(raceIDs) == 0 {
		return []*models.Result{}, nil
	}
	return s.query(ctx, "list results by races",
		`SELECT `+resultColumns+` FROM results WHERE race_id = ANY($1) ORDER BY race_id, position_order, id`, int64s(raceIDs))
}

func (s *ResultStore) ListByDriver(ctx context.Context, driverID int) ([]*models.Result, error) {
	return s.query(ctx, "list results by driver",
		`SELECT `+resultColumns+` FROM results WHERE driver_id = $1 ORDER BY id`, driverID)
}

func (s *ResultStore) ListByConstructor(ctx context.Context, constructorID int) ([]*models.Result, error) {
	return s.query(ctx, "list results by constructor",
		`SELECT `+resultColumns+` FROM results WHERE constructor_id = $1 ORDER BY id`, constructorID)
}

func (s *ResultStore) FindWinner(ctx context.Context, raceID int) (*models.Result, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM results WHERE race_id = $1 AND position_text = $2 ORDER BY id LIMIT 1`,
		raceID, models.WinnerPositionText)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("winner of race %d: %w", raceID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find winner of race %d: %w", raceID, err)
	}
	return r, nil
}

func (s *ResultStore) CountPositionClaims(ctx context.Context, raceID, grid, positionOrder, excludeID int) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM results
		WHERE race_id = $1 AND id <> $4 AND (grid = $2 OR position_order = $3)`,
		raceID, grid, positionOrder, excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count position claims in race %d: %w", raceID, err)
	}
	return n, nil
}

func (s *ResultStore) CountDriverClaims(ctx context.Context, raceID, driverID, excludeID int) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE race_id = $1 AND driver_id = $2 AND id <> $3`,
		raceID, driverID, excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count driver claims in race %d: %w", raceID, err)
	}
	return n, nil
}

func (s *ResultStore) Insert(ctx context.Context, r *models.Result) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO results (`+resultColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.RaceID, r.DriverID, r.ConstructorID, r.Grid, r.PositionText, r.PositionOrder, r.Points, r.Laps, r.StatusID)
	if err != nil {
		return writeError(err, fmt.Sprintf("insert result %d", r.ID), sentinel.ErrNotFound)
	}
	return nil
}

func (s *ResultStore) Update(ctx context.Context, r *models.Result) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE results
		SET race_id = $2, driver_id = $3, constructor_id = $4, grid = $5, position_text = $6,
		    position_order = $7, points = $8, laps = $9, status_id = $10
		WHERE id = $1`,
		r.ID, r.RaceID, r.DriverID, r.ConstructorID, r.Grid, r.PositionText, r.PositionOrder, r.Points, r.Laps, r.StatusID)
	if err != nil {
		return writeError(err, fmt.Sprintf("update result %d", r.ID), sentinel.ErrNotFound)
	}
	return expectRow(res, "result", r.ID)
}

func (s *ResultStore) Delete(ctx context.Context, id int) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result %d: %w", id, err)
	}
	return expectRow(res, "result", id)
}

func (s *ResultStore) DeleteByRaces(ctx context.Context, raceIDs []int) (int, error) {
	if len(raceIDs) == 0 {
		return 0, nil
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM results WHERE race_id = ANY($1)`, int64s(raceIDs))
	if err != nil {
		return 0, fmt.Errorf("delete results of races: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete results of races: rows affected: %w", err)
	}
	return int(n), nil
}
