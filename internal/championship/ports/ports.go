// Package ports declares the entity store contracts shared by the championship
// service and its storage backends.
//
// Stores are pure I/O: they read and write rows and report facts through
// pkg/platform/sentinel (ErrNotFound, ErrConflict). Result invariants, id
// allocation policy, and cascade ordering belong to the service.
package ports

import (
	"context"

	"paddock/internal/championship/models"
)

type DriverStore interface {
	FindByID(ctx context.Context, id int) (*models.Driver, error)
	// FindByIDs returns the drivers that exist; missing ids are absent from the map.
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Driver, error)
	List(ctx context.Context, q models.DriverQuery) ([]*models.Driver, error)
	Nationalities(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, driver *models.Driver) error
	Update(ctx context.Context, driver *models.Driver) error
	Delete(ctx context.Context, id int) error
}

type ConstructorStore interface {
	FindByID(ctx context.Context, id int) (*models.Constructor, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Constructor, error)
	List(ctx context.Context) ([]*models.Constructor, error)
	Insert(ctx context.Context, constructor *models.Constructor) error
	Update(ctx context.Context, constructor *models.Constructor) error
	Delete(ctx context.Context, id int) error
}

type CircuitStore interface {
	FindByID(ctx context.Context, id int) (*models.Circuit, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Circuit, error)
	List(ctx context.Context, q models.CircuitQuery) ([]*models.Circuit, error)
	Insert(ctx context.Context, circuit *models.Circuit) error
	Update(ctx context.Context, circuit *models.Circuit) error
	Delete(ctx context.Context, id int) error
}

type RaceStore interface {
	FindByID(ctx context.Context, id int) (*models.Race, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Race, error)
	// List returns races matching the filter ordered by year, then round.
	List(ctx context.Context, filter models.YearFilter) ([]*models.Race, error)
	Insert(ctx context.Context, race *models.Race) error
	Update(ctx context.Context, race *models.Race) error
	Delete(ctx context.Context, id int) error
	// DeleteMany removes the given races and reports how many existed.
	DeleteMany(ctx context.Context, ids []int) (int, error)
}

type ResultStore interface {
	FindByID(ctx context.Context, id int) (*models.Result, error)
	List(ctx context.Context) ([]*models.Result, error)
	// ListByRace returns the race's results ordered by ascending position order.
	ListByRace(ctx context.Context, raceID int) ([]*models.Result, error)
	ListByRaces(ctx context.Context, raceIDs []int) ([]*models.Result, error)
	ListByDriver(ctx context.Context, driverID int) ([]*models.Result, error)
	ListByConstructor(ctx context.Context, constructorID int) ([]*models.Result, error)
	// FindWinner returns the result with the winning position text, or ErrNotFound.
	FindWinner(ctx context.Context, raceID int) (*models.Result, error)
	// CountPositionClaims counts results in the race, other than excludeID,
	// holding the grid slot or the position order.
	CountPositionClaims(ctx context.Context, raceID, grid, positionOrder, excludeID int) (int, error)
	// CountDriverClaims counts results in the race, other than excludeID, for the driver.
	CountDriverClaims(ctx context.Context, raceID, driverID, excludeID int) (int, error)
	Insert(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id int) error
	// DeleteByRaces removes every result of the given races and reports the count.
	DeleteByRaces(ctx context.Context, raceIDs []int) (int, error)
}

// IDAllocator hands out collection-scoped integer ids from an atomic counter.
type IDAllocator interface {
	// Reserve claims n consecutive ids and returns the first one.
	Reserve(ctx context.Context, collection models.Collection, n int) (int, error)
}

// Stores groups every collection so a transaction can span them.
type Stores struct {
	Drivers      DriverStore
	Constructors ConstructorStore
	Circuits     CircuitStore
	Races        RaceStore
	Results      ResultStore
	IDs          IDAllocator
}

// StoreTx provides a transactional boundary spanning all collections.
// fn must use the ctx it is given; the Postgres implementation carries the
// transaction in it. Returning an error rolls every write back.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
