package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"paddock/internal/championship/events"
	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

func (s *ServiceSuite) seedSeasons() {
	s.seedRace(1, 2020, 1, 1)
	s.seedRace(2, 2020, 2, 1)
	s.seedRace(3, 2021, 1, 1)
	s.seedResult(models.Result{ID: 1, RaceID: 1, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 2, RaceID: 1, DriverID: 20, ConstructorID: 200, Grid: 2, PositionOrder: 2, PositionText: "2", Points: 18})
	s.seedResult(models.Result{ID: 3, RaceID: 2, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 4, RaceID: 3, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
}

func (s *ServiceSuite) TestDeleteRace() {
	s.seedSeasons()

	s.Run("race and its results are removed", func() {
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, evs ...events.Event) error {
				s.Require().Len(evs, 1)
				s.Equal(events.TypeRaceDeleted, evs[0].Type)
				s.Equal(2, evs[0].ResultsDeleted)
				return nil
			})

		report, err := s.service.DeleteRace(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal(models.CascadeReport{RacesDeleted: 1, ResultsDeleted: 2}, report)

		_, err = s.service.GetRace(s.ctx, 1)
		s.requireCode(err, dErrors.CodeNotFound)
		for _, id := range []int{1, 2} {
			_, err = s.service.GetResult(s.ctx, id)
			s.requireCode(err, dErrors.CodeNotFound)
		}
		_, err = s.service.GetResult(s.ctx, 3)
		s.NoError(err, "results of other races stay")

		s.Equal(2.0, testutil.ToFloat64(s.metrics.CascadeDeleted.WithLabelValues("result")))
	})

	s.Run("missing race deletes nothing", func() {
		before, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)

		_, err = s.service.DeleteRace(s.ctx, 404)
		s.requireCode(err, dErrors.CodeNotFound)

		after, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after)
	})
}

func (s *ServiceSuite) TestDeleteSeason() {
	s.seedSeasons()

	s.Run("year without races fails and leaves the store unchanged", func() {
		races, err := s.service.ListRaces(s.ctx, models.YearFilter{})
		s.Require().NoError(err)

		_, err = s.service.DeleteSeason(s.ctx, 1999)
		s.requireCode(err, dErrors.CodeNotFound)

		after, err := s.service.ListRaces(s.ctx, models.YearFilter{})
		s.Require().NoError(err)
		s.Equal(races, after)
	})

	s.Run("every race of the year and their results are removed", func() {
		s.allowPublish()
		report, err := s.service.DeleteSeason(s.ctx, 2020)
		s.Require().NoError(err)
		s.Equal(models.CascadeReport{RacesDeleted: 2, ResultsDeleted: 3}, report)

		seasons, err := s.service.ListSeasons(s.ctx, models.YearFilter{})
		s.Require().NoError(err)
		s.Require().Len(seasons, 1)
		s.Equal(2021, seasons[0].Year)

		remaining, err := s.service.ListResults(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(remaining, 1)
		s.Equal(4, remaining[0].ID)
	})
}
