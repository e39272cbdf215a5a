package memory

import (
	"context"
	"fmt"
	"slices"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/sentinel"
)

type resultTable struct{ tables }

func byPositionOrder(a, b *models.Result) int {
	if a.PositionOrder != b.PositionOrder {
		return a.PositionOrder - b.PositionOrder
	}
	return a.ID - b.ID
}

func byID(a, b *models.Result) int {
	return a.ID - b.ID
}

func (t resultTable) collect(match func(r *models.Result) bool, cmp func(a, b *models.Result) int) []*models.Result {
	out := make([]*models.Result, 0)
	for _, r := range t.read().results {
		if match(&r) {
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, cmp)
	return out
}

func (t resultTable) FindByID(_ context.Context, id int) (*models.Result, error) {
	r, ok := t.read().results[id]
	if !ok {
		return nil, fmt.Errorf("result %d: %w", id, sentinel.ErrNotFound)
	}
	return &r, nil
}

func (t resultTable) List(_ context.Context) ([]*models.Result, error) {
	return t.collect(func(*models.Result) bool { return true }, byID), nil
}

func (t resultTable) ListByRace(_ context.Context, raceID int) ([]*models.Result, error) {
	return t.collect(func(r *models.Result) bool { return r.RaceID == raceID }, byPositionOrder), nil
}

func (t resultTable) ListByRaces(_ context.Context, raceIDs []int) ([]*models.Result, error) {
	wanted := make(map[int]struct{}, len(raceIDs))
	for _, id := range raceIDs {
		wanted[id] = struct{}{}
	}
	return t.collect(func(r *models.Result) bool {
		_, ok := wanted[r.RaceID]
		return ok
	}, func(a, b *models.Result) int {
		if a.RaceID != b.RaceID {
			return a.RaceID - b.RaceID
		}
		return byPositionOrder(a, b)
	}), nil
}

func (t resultTable) ListByDriver(_ context.Context, driverID int) ([]*models.Result, error) {
	return t.collect(func(r *models.Result) bool { return r.DriverID == driverID }, byID), nil
}

func (t resultTable) ListByConstructor(_ context.Context, constructorID int) ([]*models.Result, error) {
	return t.collect(func(r *models.Result) bool { return r.ConstructorID == constructorID }, byID), nil
}

// FindWinner picks the lowest id when more than one result claims the win.
func (t resultTable) FindWinner(_ context.Context, raceID int) (*models.Result, error) {
	winners := t.collect(func(r *models.Result) bool { return r.RaceID == raceID && r.IsWin() }, byID)
	if len(winners) == 0 {
		return nil, fmt.Errorf("winner of race %d: %w", raceID, sentinel.ErrNotFound)
	}
	return winners[0], nil
}

func (t resultTable) CountPositionClaims(_ context.Context, raceID, grid, positionOrder, excludeID int) (int, error) {
	n := 0
	for id, r := range t.read().results {
		if id != excludeID && r.RaceID == raceID && (r.Grid == grid || r.PositionOrder == positionOrder) {
			n++
		}
	}
	return n, nil
}

func (t resultTable) CountDriverClaims(_ context.Context, raceID, driverID, excludeID int) (int, error) {
	n := 0
	for id, r := range t.read().results {
		if id != excludeID && r.RaceID == raceID && r.DriverID == driverID {
			n++
		}
	}
	return n, nil
}

func (t resultTable) Insert(_ context.Context, result *models.Result) error {
	return t.write(func(st *state) error {
		if err := checkInsertID(result.ID, st.results); err != nil {
			return fmt.Errorf("result %d: %w", result.ID, err)
		}
		if err := checkResultRow(st, result); err != nil {
			return err
		}
		st.results[result.ID] = *result
		return nil
	})
}

func (t resultTable) Update(_ context.Context, result *models.Result) error {
	return t.write(func(st *state) error {
		if _, ok := st.results[result.ID]; !ok {
			return fmt.Errorf("result %d: %w", result.ID, sentinel.ErrNotFound)
		}
		if err := checkResultRow(st, result); err != nil {
			return err
		}
		st.results[result.ID] = *result
		return nil
	})
}

func (t resultTable) Delete(_ context.Context, id int) error {
	return t.write(func(st *state) error {
		if _, ok := st.results[id]; !ok {
			return fmt.Errorf("result %d: %w", id, sentinel.ErrNotFound)
		}
		delete(st.results, id)
		return nil
	})
}

func (t resultTable) DeleteByRaces(_ context.Context, raceIDs []int) (int, error) {
	wanted := make(map[int]struct{}, len(raceIDs))
	for _, id := range raceIDs {
		wanted[id] = struct{}{}
	}
	deleted := 0
	err := t.write(func(st *state) error {
		for id, r := range st.results {
			if _, ok := wanted[r.RaceID]; ok {
				delete(st.results, id)
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// checkResultRow mirrors the foreign key and unique indexes of the SQL schema.
func checkResultRow(st *state, result *models.Result) error {
	if _, ok := st.races[result.RaceID]; !ok {
		return fmt.Errorf("race %d: %w", result.RaceID, sentinel.ErrNotFound)
	}
	for id, other := range st.results {
		if id == result.ID || other.RaceID != result.RaceID {
			continue
		}
		switch {
		case other.Grid == result.Grid:
			return fmt.Errorf("grid %d in race %d: %w", result.Grid, result.RaceID, sentinel.ErrConflict)
		case other.PositionOrder == result.PositionOrder:
			return fmt.Errorf("position order %d in race %d: %w", result.PositionOrder, result.RaceID, sentinel.ErrConflict)
		case other.DriverID == result.DriverID:
			return fmt.Errorf("driver %d in race %d: %w", result.DriverID, result.RaceID, sentinel.ErrConflict)
		}
	}
	return nil
}
