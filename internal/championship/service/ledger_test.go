package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"paddock/internal/championship/metrics"
	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

func (s *ServiceSuite) TestSaveResult() {
	s.allowPublish()
	s.seedRace(1, 2021, 1, 1)
	s.seedRace(2, 2021, 2, 1)

	s.Run("insert round trips every field", func() {
		in := result(1, 10, 100, 1, 1, "1", 25)
		id, err := s.service.SaveResult(s.ctx, in)
		s.Require().NoError(err)
		s.Positive(id)
		s.Zero(in.ID, "input is not mutated")

		got, err := s.service.GetResult(s.ctx, id)
		s.Require().NoError(err)
		want := *in
		want.ID = id
		s.Equal(want, *got)
	})

	s.Run("grid already taken in the race is a conflict", func() {
		_, err := s.service.SaveResult(s.ctx, result(1, 11, 100, 1, 2, "2", 18))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("position already taken in the race is a conflict", func() {
		_, err := s.service.SaveResult(s.ctx, result(1, 11, 100, 2, 1, "2", 18))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("driver already classified in the race is a conflict", func() {
		_, err := s.service.SaveResult(s.ctx, result(1, 10, 100, 2, 2, "2", 18))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("same slots in another race are accepted", func() {
		_, err := s.service.SaveResult(s.ctx, result(2, 10, 100, 1, 1, "1", 25))
		s.NoError(err)
	})

	s.Run("unknown race is not found", func() {
		_, err := s.service.SaveResult(s.ctx, result(99, 10, 100, 1, 1, "1", 25))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("invalid result is a validation error", func() {
		_, err := s.service.SaveResult(s.ctx, result(1, 12, 100, 3, 0, "3", 15))
		s.requireCode(err, dErrors.CodeValidation)

		_, err = s.service.SaveResult(s.ctx, nil)
		s.requireCode(err, dErrors.CodeBadRequest)
	})

	s.Run("update keeps its own slots", func() {
		in := result(1, 12, 100, 3, 3, "3", 15)
		id, err := s.service.SaveResult(s.ctx, in)
		s.Require().NoError(err)

		in.ID = id
		in.Points = 16
		updatedID, err := s.service.SaveResult(s.ctx, in)
		s.Require().NoError(err)
		s.Equal(id, updatedID)

		got, err := s.service.GetResult(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(16.0, got.Points)
	})

	s.Run("update onto another result's slot is a conflict", func() {
		in := result(1, 13, 100, 4, 4, "4", 12)
		id, err := s.service.SaveResult(s.ctx, in)
		s.Require().NoError(err)

		in.ID = id
		in.Grid = 1
		_, err = s.service.SaveResult(s.ctx, in)
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("update of a missing result is not found", func() {
		in := result(1, 14, 100, 9, 9, "9", 2)
		in.ID = 4040
		_, err := s.service.SaveResult(s.ctx, in)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("conflicts are counted", func() {
		s.GreaterOrEqual(testutil.ToFloat64(s.metrics.ResultConflicts.WithLabelValues(metrics.ConflictPosition)), 3.0)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ResultConflicts.WithLabelValues(metrics.ConflictDriver)))
	})
}

func (s *ServiceSuite) TestSaveResults() {
	s.allowPublish()
	s.seedRace(1, 2021, 1, 1)
	s.seedRace(2, 2021, 2, 1)

	s.Run("empty batch writes nothing", func() {
		ids, err := s.service.SaveResults(s.ctx, nil)
		s.Require().NoError(err)
		s.Empty(ids)
		s.NotNil(ids)

		all, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		s.Empty(all)
	})

	s.Run("ids follow input order", func() {
		ids, err := s.service.SaveResults(s.ctx, []*models.Result{
			result(1, 10, 100, 1, 1, "1", 25),
			result(1, 20, 200, 2, 2, "2", 18),
			result(2, 10, 100, 1, 1, "1", 25),
		})
		s.Require().NoError(err)
		s.Require().Len(ids, 3)
		s.Equal(ids[0]+1, ids[1])
		s.Equal(ids[1]+1, ids[2])

		got, err := s.service.GetResult(s.ctx, ids[1])
		s.Require().NoError(err)
		s.Equal(20, got.DriverID)
	})

	s.Run("duplicate grid inside the batch rejects every row", func() {
		before, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)

		_, err = s.service.SaveResults(s.ctx, []*models.Result{
			result(1, 30, 300, 3, 3, "3", 15),
			result(1, 40, 400, 3, 4, "4", 12),
		})
		s.requireCode(err, dErrors.CodeConflict)

		after, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after, "no row of a failed batch is visible")
	})

	s.Run("duplicate driver inside the batch is a conflict", func() {
		_, err := s.service.SaveResults(s.ctx, []*models.Result{
			result(2, 30, 300, 5, 5, "5", 10),
			result(2, 30, 300, 6, 6, "6", 8),
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("collision with a stored result rejects the batch", func() {
		_, err := s.service.SaveResults(s.ctx, []*models.Result{
			result(2, 50, 300, 7, 7, "7", 6),
			result(2, 60, 300, 1, 8, "8", 4),
		})
		s.requireCode(err, dErrors.CodeConflict)

		standings, err := s.service.RaceStandings(s.ctx, 2)
		s.Require().NoError(err)
		s.Len(standings, 1)
	})

	s.Run("repeated id inside the batch is a conflict", func() {
		all, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		first := *all[0]
		second := first
		second.Points = 0

		_, err = s.service.SaveResults(s.ctx, []*models.Result{&first, &second})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("batch mixing updates and inserts", func() {
		all, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		existing := *all[0]
		existing.Points = 26

		ids, err := s.service.SaveResults(s.ctx, []*models.Result{
			&existing,
			result(1, 70, 700, 9, 9, "9", 2),
		})
		s.Require().NoError(err)
		s.Equal(existing.ID, ids[0])

		got, err := s.service.GetResult(s.ctx, existing.ID)
		s.Require().NoError(err)
		s.Equal(26.0, got.Points)
	})

	s.Run("invalid row names its index", func() {
		_, err := s.service.SaveResults(s.ctx, []*models.Result{
			result(1, 80, 800, 10, 10, "10", 1),
			result(1, 81, 800, 11, 0, "11", 0),
		})
		s.requireCode(err, dErrors.CodeValidation)
		s.ErrorContains(err, "result 1")
	})
}

// TestConcurrentSaves verifies that concurrent writers racing for the same grid
// slot never both succeed.
func (s *ServiceSuite) TestConcurrentSaves() {
	s.allowPublish()
	s.seedRace(1, 2021, 1, 1)
	const writers = 20

	var wg sync.WaitGroup
	var succeeded, conflicted atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(driverID int) {
			defer wg.Done()
			_, err := s.service.SaveResult(context.Background(), result(1, driverID, 100, 1, driverID, "1", 25))
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicted.Add(1)
			}
		}(i + 1)
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load())
	s.Equal(int32(writers-1), conflicted.Load())
}

func (s *ServiceSuite) TestDeleteResult() {
	s.allowPublish()
	s.seedRace(1, 2021, 1, 1)
	id, err := s.service.SaveResult(s.ctx, result(1, 10, 100, 1, 1, "1", 25))
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteResult(s.ctx, id))
	_, err = s.service.GetResult(s.ctx, id)
	s.requireCode(err, dErrors.CodeNotFound)

	s.requireCode(s.service.DeleteResult(s.ctx, id), dErrors.CodeNotFound)
}
