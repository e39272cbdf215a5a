package memory

import (
	"context"
	"fmt"
	"slices"

	"paddock/internal/championship/models"
	"paddock/pkg/platform/sentinel"
)

type raceTable struct{ tables }

func copyRace(r models.Race) *models.Race {
	r.Date = copyTime(r.Date)
	return &r
}

func compareRaces(a, b *models.Race) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	if a.Round != b.Round {
		return a.Round - b.Round
	}
	return a.ID - b.ID
}

func (t raceTable) FindByID(_ context.Context, id int) (*models.Race, error) {
	r, ok := t.read().races[id]
	if !ok {
		return nil, fmt.Errorf("race %d: %w", id, sentinel.ErrNotFound)
	}
	return copyRace(r), nil
}

func (t raceTable) FindByIDs(_ context.Context, ids []int) (map[int]*models.Race, error) {
	st := t.read()
	out := make(map[int]*models.Race, len(ids))
	for _, id := range ids {
		if r, ok := st.races[id]; ok {
			out[id] = copyRace(r)
		}
	}
	return out, nil
}

func (t raceTable) List(_ context.Context, filter models.YearFilter) ([]*models.Race, error) {
	out := make([]*models.Race, 0)
	for _, r := range t.read().races {
		if filter.Matches(r.Year) {
			out = append(out, copyRace(r))
		}
	}
	slices.SortFunc(out, compareRaces)
	return out, nil
}

func (t raceTable) Insert(_ context.Context, race *models.Race) error {
	return t.write(func(st *state) error {
		if err := checkInsertID(race.ID, st.races); err != nil {
			return fmt.Errorf("race %d: %w", race.ID, err)
		}
		st.races[race.ID] = *copyRace(*race)
		return nil
	})
}

func (t raceTable) Update(_ context.Context, race *models.Race) error {
	return t.write(func(st *state) error {
		if _, ok := st.races[race.ID]; !ok {
			return fmt.Errorf("race %d: %w", race.ID, sentinel.ErrNotFound)
		}
		st.races[race.ID] = *copyRace(*race)
		return nil
	})
}

// Delete refuses to orphan results, matching the foreign key of the SQL schema.
func (t raceTable) Delete(_ context.Context, id int) error {
	return t.write(func(st *state) error {
		if _, ok := st.races[id]; !ok {
			return fmt.Errorf("race %d: %w", id, sentinel.ErrNotFound)
		}
		if referenced(st, id) {
			return fmt.Errorf("race %d still has results: %w", id, sentinel.ErrConflict)
		}
		delete(st.races, id)
		return nil
	})
}

func (t raceTable) DeleteMany(_ context.Context, ids []int) (int, error) {
	deleted := 0
	err := t.write(func(st *state) error {
		for _, id := range ids {
			if _, ok := st.races[id]; !ok {
				continue
			}
			if referenced(st, id) {
				return fmt.Errorf("race %d still has results: %w", id, sentinel.ErrConflict)
			}
			delete(st.races, id)
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func referenced(st *state, raceID int) bool {
	for _, r := range st.results {
		if r.RaceID == raceID {
			return true
		}
	}
	return false
}
