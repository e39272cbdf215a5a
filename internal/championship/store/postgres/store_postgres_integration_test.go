//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	"paddock/internal/championship/store/postgres"
	"paddock/pkg/platform/sentinel"
	"paddock/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	stores   ports.Stores
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.stores = s.store.Stores()
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "results", "races", "drivers", "constructors", "circuits", "id_sequences")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedRace(id, year, round int) {
	date := time.Date(year, time.March, round, 0, 0, 0, 0, time.UTC)
	err := s.stores.Races.Insert(context.Background(), &models.Race{
		ID: id, Year: year, Round: round, CircuitID: 1, Name: "Grand Prix", Date: &date,
	})
	s.Require().NoError(err)
}

func newResult(id, raceID, driverID, grid, order int) *models.Result {
	return &models.Result{
		ID: id, RaceID: raceID, DriverID: driverID, ConstructorID: 1,
		Grid: grid, PositionOrder: order, PositionText: "2", Points: 18,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Run("driver with date of birth", func() {
		dob := time.Date(1985, time.January, 7, 0, 0, 0, 0, time.UTC)
		d := &models.Driver{ID: 1, DriverRef: "hamilton", Forename: "Lewis", Surname: "Hamilton", DOB: &dob, Nationality: "British"}
		s.Require().NoError(s.stores.Drivers.Insert(ctx, d))

		found, err := s.stores.Drivers.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Equal("Hamilton", found.Surname)
		s.Require().NotNil(found.DOB)
		s.True(dob.Equal(*found.DOB))
	})

	s.Run("duplicate primary key is a conflict", func() {
		err := s.stores.Drivers.Insert(ctx, &models.Driver{ID: 1, DriverRef: "x", Forename: "X", Surname: "Y"})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update of a missing row is not found", func() {
		err := s.stores.Circuits.Update(ctx, &models.Circuit{ID: 404, Name: "Nowhere"})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestRaceFilters() {
	ctx := context.Background()
	s.seedRace(1, 2019, 1)
	s.seedRace(2, 2020, 2)
	s.seedRace(3, 2020, 1)
	s.seedRace(4, 2021, 1)

	year := 2020
	races, err := s.stores.Races.List(ctx, models.YearFilter{Year: &year})
	s.Require().NoError(err)
	s.Require().Len(races, 2)
	s.Equal(3, races[0].ID)
	s.Equal(2, races[1].ID)

	from := 2020
	races, err = s.stores.Races.List(ctx, models.YearFilter{FromYear: &from})
	s.Require().NoError(err)
	s.Len(races, 3)

	all, err := s.stores.Races.List(ctx, models.YearFilter{})
	s.Require().NoError(err)
	s.Len(all, 4)
}

func (s *PostgresStoreSuite) TestResultConstraints() {
	ctx := context.Background()
	s.seedRace(1, 2020, 1)
	s.Require().NoError(s.stores.Results.Insert(ctx, newResult(1, 1, 10, 1, 1)))

	s.Run("unique indexes reject duplicate slots", func() {
		s.ErrorIs(s.stores.Results.Insert(ctx, newResult(2, 1, 11, 1, 2)), sentinel.ErrConflict)
		s.ErrorIs(s.stores.Results.Insert(ctx, newResult(2, 1, 11, 2, 1)), sentinel.ErrConflict)
		s.ErrorIs(s.stores.Results.Insert(ctx, newResult(2, 1, 10, 2, 2)), sentinel.ErrConflict)
	})

	s.Run("foreign key rejects unknown race", func() {
		s.ErrorIs(s.stores.Results.Insert(ctx, newResult(3, 99, 12, 3, 3)), sentinel.ErrNotFound)
	})

	s.Run("claims exclude the result being updated", func() {
		n, err := s.stores.Results.CountPositionClaims(ctx, 1, 1, 5, 1)
		s.Require().NoError(err)
		s.Zero(n)

		n, err = s.stores.Results.CountPositionClaims(ctx, 1, 1, 5, 0)
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("race with results cannot be deleted directly", func() {
		s.ErrorIs(s.stores.Races.Delete(ctx, 1), sentinel.ErrConflict)
	})
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	ctx := context.Background()
	s.seedRace(1, 2020, 1)
	boom := errors.New("boom")

	err := s.store.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		if err := stores.Results.Insert(ctx, newResult(1, 1, 10, 1, 1)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	results, err := s.stores.Results.ListByRace(ctx, 1)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *PostgresStoreSuite) TestCascadeInTx() {
	ctx := context.Background()
	s.seedRace(1, 2020, 1)
	s.seedRace(2, 2020, 2)
	s.Require().NoError(s.stores.Results.Insert(ctx, newResult(1, 1, 10, 1, 1)))
	s.Require().NoError(s.stores.Results.Insert(ctx, newResult(2, 2, 10, 1, 1)))

	var races, results int
	err := s.store.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		var err error
		if results, err = stores.Results.DeleteByRaces(ctx, []int{1, 2}); err != nil {
			return err
		}
		races, err = stores.Races.DeleteMany(ctx, []int{1, 2})
		return err
	})
	s.Require().NoError(err)
	s.Equal(2, races)
	s.Equal(2, results)
}

func (s *PostgresStoreSuite) TestSequences() {
	ctx := context.Background()

	s.Run("seeds from the highest stored id", func() {
		s.seedRace(40, 2020, 1)
		first, err := s.stores.IDs.Reserve(ctx, models.CollectionRaces, 2)
		s.Require().NoError(err)
		s.Equal(41, first)

		next, err := s.stores.IDs.Reserve(ctx, models.CollectionRaces, 1)
		s.Require().NoError(err)
		s.Equal(43, next)
	})

	s.Run("sync catches up with explicit inserts", func() {
		s.seedRace(100, 2021, 1)
		s.Require().NoError(postgres.NewSequences(s.postgres.DB).Sync(ctx))
		first, err := s.stores.IDs.Reserve(ctx, models.CollectionRaces, 1)
		s.Require().NoError(err)
		s.Equal(101, first)
	})
}

// TestConcurrentReservations verifies that concurrent allocators never hand
// out the same id.
func (s *PostgresStoreSuite) TestConcurrentReservations() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var failures atomic.Int32
	seen := sync.Map{}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := s.stores.IDs.Reserve(ctx, models.CollectionResults, 3)
			if err != nil {
				failures.Add(1)
				return
			}
			for id := first; id < first+3; id++ {
				if _, dup := seen.LoadOrStore(id, true); dup {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load(), "reservations overlapped or failed")
}
