package service

import (
	"context"

	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
)

// Drivers, constructors, circuits and races are written independently of the
// ledger. Deleting a driver, constructor or circuit leaves results and races
// that reference it in place; views render such references as placeholders.

func (s *Service) GetDriver(ctx context.Context, id int) (*models.Driver, error) {
	driver, err := s.stores.Drivers.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "driver", "load driver")
	}
	return driver, nil
}

// ListDrivers filters by nationality when one is given and orders by surname
// when a sort is requested.
func (s *Service) ListDrivers(ctx context.Context, q models.DriverQuery) ([]*models.Driver, error) {
	if !q.Sort.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "sortAlpha must be asc or desc")
	}
	drivers, err := s.stores.Drivers.List(ctx, q)
	if err != nil {
		return nil, storeError(err, "driver", "list drivers")
	}
	return drivers, nil
}

func (s *Service) Nationalities(ctx context.Context) ([]string, error) {
	nationalities, err := s.stores.Drivers.Nationalities(ctx)
	if err != nil {
		return nil, storeError(err, "driver", "list nationalities")
	}
	return nationalities, nil
}

// SaveDriver inserts the driver when it has no id and updates it otherwise.
func (s *Service) SaveDriver(ctx context.Context, driver *models.Driver) (int, error) {
	if driver == nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "driver is required")
	}
	if err := driver.Validate(); err != nil {
		return 0, validationError(err)
	}
	row := *driver
	return s.save(ctx, models.CollectionDrivers, "driver", &row.ID, func(ctx context.Context, stores ports.Stores, created bool) error {
		if created {
			return stores.Drivers.Insert(ctx, &row)
		}
		return stores.Drivers.Update(ctx, &row)
	})
}

func (s *Service) DeleteDriver(ctx context.Context, id int) error {
	if err := s.stores.Drivers.Delete(ctx, id); err != nil {
		return storeError(err, "driver", "delete driver")
	}
	s.logInfo(ctx, "driver deleted", "driver_id", id)
	return nil
}

func (s *Service) GetConstructor(ctx context.Context, id int) (*models.Constructor, error) {
	constructor, err := s.stores.Constructors.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "constructor", "load constructor")
	}
	return constructor, nil
}

func (s *Service) ListConstructors(ctx context.Context) ([]*models.Constructor, error) {
	constructors, err := s.stores.Constructors.List(ctx)
	if err != nil {
		return nil, storeError(err, "constructor", "list constructors")
	}
	return constructors, nil
}

func (s *Service) SaveConstructor(ctx context.Context, constructor *models.Constructor) (int, error) {
	if constructor == nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "constructor is required")
	}
	if err := constructor.Validate(); err != nil {
		return 0, validationError(err)
	}
	row := *constructor
	return s.save(ctx, models.CollectionConstructors, "constructor", &row.ID, func(ctx context.Context, stores ports.Stores, created bool) error {
		if created {
			return stores.Constructors.Insert(ctx, &row)
		}
		return stores.Constructors.Update(ctx, &row)
	})
}

func (s *Service) DeleteConstructor(ctx context.Context, id int) error {
	if err := s.stores.Constructors.Delete(ctx, id); err != nil {
		return storeError(err, "constructor", "delete constructor")
	}
	s.logInfo(ctx, "constructor deleted", "constructor_id", id)
	return nil
}

func (s *Service) GetCircuit(ctx context.Context, id int) (*models.Circuit, error) {
	circuit, err := s.stores.Circuits.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "circuit", "load circuit")
	}
	return circuit, nil
}

// ListCircuits filters by country when one is given. Circuits are ordered by
// name, ascending unless a descending sort is requested.
func (s *Service) ListCircuits(ctx context.Context, q models.CircuitQuery) ([]*models.Circuit, error) {
	if !q.Sort.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "sortAlpha must be asc or desc")
	}
	circuits, err := s.stores.Circuits.List(ctx, q)
	if err != nil {
		return nil, storeError(err, "circuit", "list circuits")
	}
	return circuits, nil
}

func (s *Service) SaveCircuit(ctx context.Context, circuit *models.Circuit) (int, error) {
	if circuit == nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "circuit is required")
	}
	if err := circuit.Validate(); err != nil {
		return 0, validationError(err)
	}
	row := *circuit
	return s.save(ctx, models.CollectionCircuits, "circuit", &row.ID, func(ctx context.Context, stores ports.Stores, created bool) error {
		if created {
			return stores.Circuits.Insert(ctx, &row)
		}
		return stores.Circuits.Update(ctx, &row)
	})
}

func (s *Service) DeleteCircuit(ctx context.Context, id int) error {
	if err := s.stores.Circuits.Delete(ctx, id); err != nil {
		return storeError(err, "circuit", "delete circuit")
	}
	s.logInfo(ctx, "circuit deleted", "circuit_id", id)
	return nil
}

func (s *Service) GetRace(ctx context.Context, id int) (*models.Race, error) {
	race, err := s.stores.Races.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "race", "load race")
	}
	return race, nil
}

// ListRaces returns races by year, then round.
func (s *Service) ListRaces(ctx context.Context, filter models.YearFilter) ([]*models.Race, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	races, err := s.stores.Races.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "race", "list races")
	}
	return races, nil
}

// SaveRace writes a race. The circuit id is stored as given.
func (s *Service) SaveRace(ctx context.Context, race *models.Race) (int, error) {
	if race == nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "race is required")
	}
	if err := race.Validate(); err != nil {
		return 0, validationError(err)
	}
	row := *race
	return s.save(ctx, models.CollectionRaces, "race", &row.ID, func(ctx context.Context, stores ports.Stores, created bool) error {
		if created {
			return stores.Races.Insert(ctx, &row)
		}
		return stores.Races.Update(ctx, &row)
	})
}

// save allocates an id for a new record and runs write in the same
// transaction.
func (s *Service) save(ctx context.Context, collection models.Collection, entity string, id *int,
	write func(ctx context.Context, stores ports.Stores, created bool) error,
) (int, error) {
	if *id < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, entity+" id cannot be negative")
	}
	created := *id == 0

	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		if created {
			first, err := stores.IDs.Reserve(ctx, collection, 1)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate "+entity+" id")
			}
			*id = first
		}
		if err := write(ctx, stores, created); err != nil {
			return storeError(err, entity, "save "+entity)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logInfo(ctx, entity+" saved",
		entity+"_id", *id,
		"created", created,
	)
	return *id, nil
}
