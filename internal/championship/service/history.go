package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
)

// DriverHistory returns the driver with the results whose race falls within
// the filter. A driver without matching results gets an empty list.
func (s *Service) DriverHistory(ctx context.Context, driverID int, filter models.YearFilter) (history *models.DriverHistory, err error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "DriverHistory", attribute.Int("driver_id", driverID))
	defer func() { endSpan(span, err) }()
	defer s.observeView("driver_history", time.Now())

	driver, err := s.stores.Drivers.FindByID(ctx, driverID)
	if err != nil {
		return nil, storeError(err, "driver", "load driver")
	}
	results, err := s.stores.Results.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, storeError(err, "result", "list driver results")
	}
	filtered, err := filterByRaceYear(ctx, s.stores.Races, results, filter)
	if err != nil {
		return nil, err
	}
	return &models.DriverHistory{Driver: driver, Results: filtered}, nil
}

// ConstructorHistory returns the constructor with the results whose race falls
// within the filter.
func (s *Service) ConstructorHistory(ctx context.Context, constructorID int, filter models.YearFilter) (history *models.ConstructorHistory, err error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ConstructorHistory", attribute.Int("constructor_id", constructorID))
	defer func() { endSpan(span, err) }()
	defer s.observeView("constructor_history", time.Now())

	constructor, err := s.stores.Constructors.FindByID(ctx, constructorID)
	if err != nil {
		return nil, storeError(err, "constructor", "load constructor")
	}
	results, err := s.stores.Results.ListByConstructor(ctx, constructorID)
	if err != nil {
		return nil, storeError(err, "result", "list constructor results")
	}
	filtered, err := filterByRaceYear(ctx, s.stores.Races, results, filter)
	if err != nil {
		return nil, err
	}
	return &models.ConstructorHistory{Constructor: constructor, Results: filtered}, nil
}

// CircuitsForDriver lists the circuits the driver raced at, each once, in the
// order of the first visit. Results whose race or circuit is gone are skipped.
func (s *Service) CircuitsForDriver(ctx context.Context, driverID int) (circuits []*models.Circuit, err error) {
	ctx, span := startSpan(ctx, "CircuitsForDriver", attribute.Int("driver_id", driverID))
	defer func() { endSpan(span, err) }()

	races, err := s.racesForDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	byID, err := s.stores.Circuits.FindByIDs(ctx, distinct(races, func(r *models.Race) int { return r.CircuitID }))
	if err != nil {
		return nil, storeError(err, "circuit", "load circuits")
	}

	circuits = make([]*models.Circuit, 0, len(byID))
	seen := make(map[int]struct{}, len(byID))
	for _, race := range races {
		circuit, ok := byID[race.CircuitID]
		if !ok {
			continue
		}
		if _, dup := seen[circuit.ID]; dup {
			continue
		}
		seen[circuit.ID] = struct{}{}
		circuits = append(circuits, circuit)
	}
	return circuits, nil
}

// ConstructorsForDriver lists the constructors the driver raced for, each
// once, in the order of the first race for them.
func (s *Service) ConstructorsForDriver(ctx context.Context, driverID int) (constructors []*models.Constructor, err error) {
	ctx, span := startSpan(ctx, "ConstructorsForDriver", attribute.Int("driver_id", driverID))
	defer func() { endSpan(span, err) }()

	results, err := s.stores.Results.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, storeError(err, "result", "list driver results")
	}
	ordered, err := filterByRaceYear(ctx, s.stores.Races, results, models.YearFilter{})
	if err != nil {
		return nil, err
	}
	byID, err := s.stores.Constructors.FindByIDs(ctx, distinct(ordered, func(r *models.Result) int { return r.ConstructorID }))
	if err != nil {
		return nil, storeError(err, "constructor", "load constructors")
	}

	constructors = make([]*models.Constructor, 0, len(byID))
	seen := make(map[int]struct{}, len(byID))
	for _, result := range ordered {
		constructor, ok := byID[result.ConstructorID]
		if !ok {
			continue
		}
		if _, dup := seen[constructor.ID]; dup {
			continue
		}
		seen[constructor.ID] = struct{}{}
		constructors = append(constructors, constructor)
	}
	return constructors, nil
}

// racesForDriver returns the races the driver has a result in, ordered by
// (year, round, id).
func (s *Service) racesForDriver(ctx context.Context, driverID int) ([]*models.Race, error) {
	results, err := s.stores.Results.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, storeError(err, "result", "list driver results")
	}
	byID, err := s.stores.Races.FindByIDs(ctx, distinct(results, func(r *models.Result) int { return r.RaceID }))
	if err != nil {
		return nil, storeError(err, "race", "load races")
	}
	races := make([]*models.Race, 0, len(byID))
	for _, race := range byID {
		races = append(races, race)
	}
	slices.SortFunc(races, compareRaces)
	return races, nil
}

// filterByRaceYear keeps the results whose race matches the filter, ordered by
// race year, round, then result id. Results of missing races are dropped.
func filterByRaceYear(ctx context.Context, races ports.RaceStore, results []*models.Result, filter models.YearFilter) ([]*models.Result, error) {
	if len(results) == 0 {
		return []*models.Result{}, nil
	}
	byID, err := races.FindByIDs(ctx, distinct(results, func(r *models.Result) int { return r.RaceID }))
	if err != nil {
		return nil, storeError(err, "race", "load races")
	}

	out := make([]*models.Result, 0, len(results))
	for _, r := range results {
		race, ok := byID[r.RaceID]
		if !ok || !filter.Matches(race.Year) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b *models.Result) int {
		if c := compareRaces(byID[a.RaceID], byID[b.RaceID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func compareRaces(a, b *models.Race) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Round, b.Round); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// distinct collects the keys of items in first-seen order.
func distinct[T any](items []T, key func(T) int) []int {
	seen := make(map[int]struct{}, len(items))
	out := make([]int, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func (s *Service) observeView(view string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveView(view, start)
	}
}
