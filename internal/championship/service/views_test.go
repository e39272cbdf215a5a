package service

import (
	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

func intPtr(v int) *int { return &v }

func (s *ServiceSuite) TestRaceStandings() {
	s.seedRace(1, 2021, 1, 1)
	s.seedDriver(10, "Lewis", "Hamilton")
	s.seedConstructor(100, "Mercedes")

	s.Run("rows follow position order with names resolved", func() {
		s.seedResult(models.Result{ID: 2, RaceID: 1, DriverID: 20, ConstructorID: 200, Grid: 2, PositionOrder: 2, PositionText: "2", Points: 18})
		s.seedResult(models.Result{ID: 1, RaceID: 1, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})

		rows, err := s.service.RaceStandings(s.ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(rows, 2)

		s.Equal(10, rows[0].DriverID)
		s.Equal(25.0, rows[0].Points)
		s.Equal("Lewis Hamilton", rows[0].DriverName)
		s.Equal("Mercedes", rows[0].ConstructorName)

		s.Equal(20, rows[1].DriverID)
		s.Equal(models.PlaceholderName, rows[1].DriverName)
		s.Equal(models.PlaceholderName, rows[1].ConstructorName)
	})

	s.Run("unknown race is not found", func() {
		_, err := s.service.RaceStandings(s.ctx, 404)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("race without results is not found", func() {
		s.seedRace(2, 2021, 2, 1)
		rows, err := s.service.RaceStandings(s.ctx, 2)
		s.requireCode(err, dErrors.CodeNotFound)
		s.Nil(rows)
	})
}

func (s *ServiceSuite) TestDriverStandings() {
	s.seedRace(1, 2021, 1, 1)
	s.seedRace(2, 2021, 2, 1)
	s.seedRace(3, 2020, 1, 1)
	s.seedDriver(10, "Lewis", "Hamilton")
	s.seedDriver(20, "Max", "Verstappen")
	s.seedConstructor(100, "Mercedes")
	s.seedConstructor(200, "Red Bull")

	s.seedResult(models.Result{ID: 1, RaceID: 1, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 2, RaceID: 1, DriverID: 20, ConstructorID: 200, Grid: 2, PositionOrder: 2, PositionText: "2", Points: 18})
	s.seedResult(models.Result{ID: 3, RaceID: 2, DriverID: 20, ConstructorID: 200, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 4, RaceID: 2, DriverID: 10, ConstructorID: 100, Grid: 2, PositionOrder: 2, PositionText: "2", Points: 18})
	s.seedResult(models.Result{ID: 5, RaceID: 2, DriverID: 30, ConstructorID: 300, Grid: 3, PositionOrder: 3, PositionText: "3", Points: 15})
	s.seedResult(models.Result{ID: 6, RaceID: 3, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})

	s.Run("groups a season by driver and constructor", func() {
		rows, err := s.service.DriverStandings(s.ctx, 2021)
		s.Require().NoError(err)
		s.Require().Len(rows, 3)

		// Tied on points and wins: driver id decides.
		s.Equal(10, rows[0].DriverID)
		s.Equal(43.0, rows[0].TotalPoints)
		s.Equal(2, rows[0].RacesCount)
		s.Equal(1, rows[0].Wins)
		s.Equal("Hamilton", rows[0].Surname)
		s.Equal("Mercedes", rows[0].ConstructorName)

		s.Equal(20, rows[1].DriverID)
		s.Equal(43.0, rows[1].TotalPoints)

		s.Equal(30, rows[2].DriverID)
		s.Equal(models.PlaceholderName, rows[2].Forename)
		s.Equal(models.PlaceholderName, rows[2].ConstructorName)
	})

	s.Run("more wins rank first on equal points", func() {
		s.seedRace(4, 2019, 1, 1)
		s.seedRace(5, 2019, 2, 1)
		s.seedResult(models.Result{ID: 7, RaceID: 4, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 2, PositionText: "2", Points: 20})
		s.seedResult(models.Result{ID: 8, RaceID: 4, DriverID: 20, ConstructorID: 200, Grid: 2, PositionOrder: 1, PositionText: "1", Points: 10})
		s.seedResult(models.Result{ID: 9, RaceID: 5, DriverID: 20, ConstructorID: 200, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 10})

		rows, err := s.service.DriverStandings(s.ctx, 2019)
		s.Require().NoError(err)
		s.Require().Len(rows, 2)
		s.Equal(20, rows[0].DriverID)
		s.Equal(2, rows[0].Wins)
	})

	s.Run("year without races is empty", func() {
		rows, err := s.service.DriverStandings(s.ctx, 1950)
		s.Require().NoError(err)
		s.NotNil(rows)
		s.Empty(rows)
	})
}

func (s *ServiceSuite) TestListSeasons() {
	s.seedRace(1, 2018, 1, 1)
	s.seedRace(2, 2019, 1, 1)
	s.seedRace(3, 2019, 2, 1)
	s.seedRace(4, 2020, 1, 1)

	s.Run("all seasons newest first", func() {
		seasons, err := s.service.ListSeasons(s.ctx, models.YearFilter{})
		s.Require().NoError(err)
		s.Require().Len(seasons, 3)
		s.Equal([]int{2020, 2019, 2018}, []int{seasons[0].Year, seasons[1].Year, seasons[2].Year})
		s.Equal(2, seasons[1].RaceCount)
		s.Nil(seasons[0].DriverChampion)
		s.Nil(seasons[0].ConstructorChampion)
	})

	s.Run("from year keeps later seasons", func() {
		seasons, err := s.service.ListSeasons(s.ctx, models.YearFilter{FromYear: intPtr(2019)})
		s.Require().NoError(err)
		s.Require().Len(seasons, 2)
		s.Equal(2020, seasons[0].Year)
		s.Equal(2019, seasons[1].Year)
	})

	s.Run("year overrides the range", func() {
		seasons, err := s.service.ListSeasons(s.ctx, models.YearFilter{Year: intPtr(2018), FromYear: intPtr(2019)})
		s.Require().NoError(err)
		s.Require().Len(seasons, 1)
		s.Equal(2018, seasons[0].Year)
	})

	s.Run("inverted range is rejected", func() {
		_, err := s.service.ListSeasons(s.ctx, models.YearFilter{FromYear: intPtr(2020), ToYear: intPtr(2010)})
		s.requireCode(err, dErrors.CodeInvalidRange)
	})

	s.Run("inverted range is rejected when year is set", func() {
		seasons, err := s.service.ListSeasons(s.ctx, models.YearFilter{Year: intPtr(2019), FromYear: intPtr(2020), ToYear: intPtr(2010)})
		s.requireCode(err, dErrors.CodeInvalidRange)
		s.Nil(seasons)
	})
}

func (s *ServiceSuite) TestGetSeason() {
	s.seedCircuit(1, "Monza")
	s.seedDriver(10, "Lewis", "Hamilton")
	s.seedConstructor(100, "Mercedes")
	s.seedRace(2, 2021, 2, 1)
	s.seedRace(1, 2021, 1, 99)
	s.seedResult(models.Result{ID: 1, RaceID: 2, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 2, RaceID: 1, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "R", Points: 0})

	s.Run("races by round with circuit and winner", func() {
		season, err := s.service.GetSeason(s.ctx, 2021)
		s.Require().NoError(err)
		s.Equal(2, season.RaceCount)
		s.Require().Len(season.Races, 2)

		first := season.Races[0]
		s.Equal(1, first.Round)
		s.Nil(first.CircuitName, "unknown circuit renders null")
		s.Nil(first.Winner, "no winning result renders null")
		s.Nil(first.Team)
		s.Require().NotNil(first.Date)
		s.Equal("2021-03-01", *first.Date)

		second := season.Races[1]
		s.Require().NotNil(second.CircuitName)
		s.Equal("Monza", *second.CircuitName)
		s.Require().NotNil(second.Winner)
		s.Equal("Lewis Hamilton", *second.Winner)
		s.Equal("Mercedes", *second.Team)

		s.Nil(season.DriverChampion)
	})

	s.Run("year without races is not found", func() {
		_, err := s.service.GetSeason(s.ctx, 1999)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestHistory() {
	s.seedDriver(10, "Lewis", "Hamilton")
	s.seedDriver(20, "Max", "Verstappen")
	s.seedConstructor(100, "Mercedes")
	s.seedConstructor(200, "McLaren")
	s.seedCircuit(1, "Monza")
	s.seedCircuit(2, "Silverstone")
	s.seedRace(1, 2020, 2, 2)
	s.seedRace(2, 2019, 1, 1)
	s.seedRace(3, 2021, 1, 1)
	s.seedResult(models.Result{ID: 1, RaceID: 1, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 2, RaceID: 2, DriverID: 10, ConstructorID: 200, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})
	s.seedResult(models.Result{ID: 3, RaceID: 3, DriverID: 10, ConstructorID: 100, Grid: 1, PositionOrder: 1, PositionText: "1", Points: 25})

	s.Run("driver history ordered by season and round", func() {
		history, err := s.service.DriverHistory(s.ctx, 10, models.YearFilter{})
		s.Require().NoError(err)
		s.Equal("Hamilton", history.Surname)
		s.Require().Len(history.Results, 3)
		s.Equal([]int{2, 1, 3}, []int{history.Results[0].ID, history.Results[1].ID, history.Results[2].ID})
	})

	s.Run("driver history honours the range", func() {
		history, err := s.service.DriverHistory(s.ctx, 10, models.YearFilter{FromYear: intPtr(2020), ToYear: intPtr(2020)})
		s.Require().NoError(err)
		s.Require().Len(history.Results, 1)
		s.Equal(1, history.Results[0].ID)
	})

	s.Run("no matching results is an empty list", func() {
		history, err := s.service.DriverHistory(s.ctx, 20, models.YearFilter{})
		s.Require().NoError(err)
		s.NotNil(history.Results)
		s.Empty(history.Results)
	})

	s.Run("unknown driver is not found", func() {
		_, err := s.service.DriverHistory(s.ctx, 404, models.YearFilter{})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("inverted range is rejected before lookup", func() {
		_, err := s.service.DriverHistory(s.ctx, 404, models.YearFilter{FromYear: intPtr(2021), ToYear: intPtr(2020)})
		s.requireCode(err, dErrors.CodeInvalidRange)
	})

	s.Run("inverted range is rejected alongside an exact year", func() {
		_, err := s.service.ConstructorHistory(s.ctx, 100, models.YearFilter{Year: intPtr(2021), FromYear: intPtr(2021), ToYear: intPtr(2020)})
		s.requireCode(err, dErrors.CodeInvalidRange)
	})

	s.Run("constructor history by exact year", func() {
		history, err := s.service.ConstructorHistory(s.ctx, 100, models.YearFilter{Year: intPtr(2021)})
		s.Require().NoError(err)
		s.Equal("Mercedes", history.Name)
		s.Require().Len(history.Results, 1)
		s.Equal(3, history.Results[0].ID)
	})

	s.Run("circuits are listed once in first visit order", func() {
		circuits, err := s.service.CircuitsForDriver(s.ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(circuits, 2)
		s.Equal("Monza", circuits[0].Name)
		s.Equal("Silverstone", circuits[1].Name)
	})

	s.Run("constructors are listed once in first race order", func() {
		constructors, err := s.service.ConstructorsForDriver(s.ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(constructors, 2)
		s.Equal("McLaren", constructors[0].Name)
		s.Equal("Mercedes", constructors[1].Name)
	})

	s.Run("driver without results visited nothing", func() {
		circuits, err := s.service.CircuitsForDriver(s.ctx, 20)
		s.Require().NoError(err)
		s.Empty(circuits)
	})
}
