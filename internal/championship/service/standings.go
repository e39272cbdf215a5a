package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

// RaceStandings returns the classification of one race by ascending position
// order. Drivers and constructors that no longer resolve are shown as
// models.PlaceholderName. A race without results is not found.
func (s *Service) RaceStandings(ctx context.Context, raceID int) (rows []models.RaceStandingRow, err error) {
	ctx, span := startSpan(ctx, "RaceStandings", attribute.Int("race_id", raceID))
	defer func() { endSpan(span, err) }()
	defer s.observeView("race_standings", time.Now())

	if _, err := s.stores.Races.FindByID(ctx, raceID); err != nil {
		return nil, storeError(err, "race", "load race")
	}
	results, err := s.stores.Results.ListByRace(ctx, raceID)
	if err != nil {
		return nil, storeError(err, "result", "list race results")
	}
	if len(results) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no results found for race %d", raceID))
	}
	names, err := s.participantNames(ctx, results)
	if err != nil {
		return nil, err
	}

	rows = make([]models.RaceStandingRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, models.RaceStandingRow{
			ResultID:        r.ID,
			PositionOrder:   r.PositionOrder,
			PositionText:    r.PositionText,
			Points:          r.Points,
			DriverID:        r.DriverID,
			DriverName:      names.driverName(r.DriverID),
			ConstructorID:   r.ConstructorID,
			ConstructorName: names.constructorName(r.ConstructorID),
		})
	}
	return rows, nil
}

// DriverStandings aggregates the season's results per (driver, constructor)
// pairing. Rows are ordered by points, then wins, both descending, then by
// driver id and constructor id. A year without races yields an empty list.
func (s *Service) DriverStandings(ctx context.Context, year int) (rows []models.StandingRow, err error) {
	ctx, span := startSpan(ctx, "DriverStandings", attribute.Int("year", year))
	defer func() { endSpan(span, err) }()
	defer s.observeView("driver_standings", time.Now())

	races, err := s.stores.Races.List(ctx, models.YearFilter{Year: &year})
	if err != nil {
		return nil, storeError(err, "race", "list races")
	}
	if len(races) == 0 {
		return []models.StandingRow{}, nil
	}
	results, err := s.stores.Results.ListByRaces(ctx, distinct(races, func(r *models.Race) int { return r.ID }))
	if err != nil {
		return nil, storeError(err, "result", "list season results")
	}
	names, err := s.participantNames(ctx, results)
	if err != nil {
		return nil, err
	}

	type pairing struct{ driverID, constructorID int }
	index := make(map[pairing]int)
	rows = make([]models.StandingRow, 0)
	for _, r := range results {
		key := pairing{r.DriverID, r.ConstructorID}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			forename, surname := names.driverParts(r.DriverID)
			rows = append(rows, models.StandingRow{
				DriverID:        r.DriverID,
				Forename:        forename,
				Surname:         surname,
				ConstructorID:   r.ConstructorID,
				ConstructorName: names.constructorName(r.ConstructorID),
			})
		}
		rows[i].TotalPoints += r.Points
		rows[i].RacesCount++
		if r.IsWin() {
			rows[i].Wins++
		}
	}

	slices.SortFunc(rows, func(a, b models.StandingRow) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DriverID, b.DriverID); c != 0 {
			return c
		}
		return cmp.Compare(a.ConstructorID, b.ConstructorID)
	})
	return rows, nil
}

type participants struct {
	drivers      map[int]*models.Driver
	constructors map[int]*models.Constructor
}

func (s *Service) participantNames(ctx context.Context, results []*models.Result) (participants, error) {
	drivers, err := s.stores.Drivers.FindByIDs(ctx, distinct(results, func(r *models.Result) int { return r.DriverID }))
	if err != nil {
		return participants{}, storeError(err, "driver", "load drivers")
	}
	constructors, err := s.stores.Constructors.FindByIDs(ctx, distinct(results, func(r *models.Result) int { return r.ConstructorID }))
	if err != nil {
		return participants{}, storeError(err, "constructor", "load constructors")
	}
	return participants{drivers: drivers, constructors: constructors}, nil
}

func (p participants) driverName(id int) string {
	if d, ok := p.drivers[id]; ok {
		return d.FullName()
	}
	return models.PlaceholderName
}

func (p participants) driverParts(id int) (string, string) {
	if d, ok := p.drivers[id]; ok {
		return d.Forename, d.Surname
	}
	return models.PlaceholderName, models.PlaceholderName
}

func (p participants) constructorName(id int) string {
	if c, ok := p.constructors[id]; ok {
		return c.Name
	}
	return models.PlaceholderName
}
