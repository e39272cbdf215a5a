package service

import (
	"paddock/internal/championship/models"
	dErrors "paddock/pkg/domain-errors"
)

func (s *ServiceSuite) TestSaveEntities() {
	s.Run("new driver gets the next id", func() {
		s.seedDriver(7, "Kimi", "Raikkonen")
		id, err := s.service.SaveDriver(s.ctx, &models.Driver{DriverRef: "alonso", Forename: "Fernando", Surname: "Alonso", Nationality: "Spanish"})
		s.Require().NoError(err)
		s.Equal(8, id)

		got, err := s.service.GetDriver(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("Alonso", got.Surname)
	})

	s.Run("existing driver is updated", func() {
		id, err := s.service.SaveDriver(s.ctx, &models.Driver{ID: 7, DriverRef: "raikkonen", Forename: "Kimi", Surname: "Raikkonen", Nationality: "Finnish"})
		s.Require().NoError(err)
		s.Equal(7, id)

		got, err := s.service.GetDriver(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal("Finnish", got.Nationality)
	})

	s.Run("update of a missing driver is not found", func() {
		_, err := s.service.SaveDriver(s.ctx, &models.Driver{ID: 404, DriverRef: "x", Forename: "X", Surname: "Y"})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("invalid entities are rejected", func() {
		_, err := s.service.SaveConstructor(s.ctx, &models.Constructor{ConstructorRef: "m", Name: "McLaren"})
		s.requireCode(err, dErrors.CodeValidation)

		_, err = s.service.SaveCircuit(s.ctx, &models.Circuit{})
		s.requireCode(err, dErrors.CodeValidation)

		_, err = s.service.SaveRace(s.ctx, &models.Race{Year: 2021, Round: 1})
		s.requireCode(err, dErrors.CodeValidation)

		_, err = s.service.SaveDriver(s.ctx, &models.Driver{ID: -1, DriverRef: "x", Forename: "X", Surname: "Y"})
		s.requireCode(err, dErrors.CodeBadRequest)
	})

	s.Run("race keeps an unknown circuit id", func() {
		id, err := s.service.SaveRace(s.ctx, &models.Race{Year: 2021, Round: 1, CircuitID: 999, Name: "Bahrain Grand Prix"})
		s.Require().NoError(err)
		race, err := s.service.GetRace(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(999, race.CircuitID)
	})

	s.Run("constructor and circuit round trip", func() {
		cid, err := s.service.SaveConstructor(s.ctx, &models.Constructor{ConstructorRef: "mclaren", Name: "McLaren", Nationality: "British"})
		s.Require().NoError(err)
		got, err := s.service.GetConstructor(s.ctx, cid)
		s.Require().NoError(err)
		s.Equal("McLaren", got.Name)

		kid, err := s.service.SaveCircuit(s.ctx, &models.Circuit{CircuitRef: "monza", Name: "Monza", Country: "Italy"})
		s.Require().NoError(err)
		circuit, err := s.service.GetCircuit(s.ctx, kid)
		s.Require().NoError(err)
		s.Equal("Italy", circuit.Country)
	})
}

func (s *ServiceSuite) TestListEntities() {
	s.seedDriver(1, "Lewis", "Hamilton")
	s.seedDriver(2, "Max", "Verstappen")
	s.Require().NoError(s.stores.Drivers.Insert(s.ctx, &models.Driver{ID: 3, DriverRef: "alonso", Forename: "Fernando", Surname: "Alonso", Nationality: "Spanish"}))
	s.seedCircuit(1, "Monza")
	s.Require().NoError(s.stores.Circuits.Insert(s.ctx, &models.Circuit{ID: 2, CircuitRef: "interlagos", Name: "Interlagos", Country: "Brazil"}))

	s.Run("drivers by nationality sorted by surname", func() {
		drivers, err := s.service.ListDrivers(s.ctx, models.DriverQuery{Nationality: "British", Sort: models.SortDesc})
		s.Require().NoError(err)
		s.Require().Len(drivers, 2)
		s.Equal("Verstappen", drivers[0].Surname)
		s.Equal("Hamilton", drivers[1].Surname)
	})

	s.Run("unknown sort is rejected", func() {
		_, err := s.service.ListDrivers(s.ctx, models.DriverQuery{Sort: "sideways"})
		s.requireCode(err, dErrors.CodeBadRequest)
		_, err = s.service.ListCircuits(s.ctx, models.CircuitQuery{Sort: "sideways"})
		s.requireCode(err, dErrors.CodeBadRequest)
	})

	s.Run("distinct nationalities", func() {
		nationalities, err := s.service.Nationalities(s.ctx)
		s.Require().NoError(err)
		s.Equal([]string{"British", "Spanish"}, nationalities)
	})

	s.Run("circuits default to name order", func() {
		circuits, err := s.service.ListCircuits(s.ctx, models.CircuitQuery{})
		s.Require().NoError(err)
		s.Require().Len(circuits, 2)
		s.Equal("Interlagos", circuits[0].Name)

		circuits, err = s.service.ListCircuits(s.ctx, models.CircuitQuery{Country: "Italy"})
		s.Require().NoError(err)
		s.Require().Len(circuits, 1)
		s.Equal("Monza", circuits[0].Name)
	})

	s.Run("deleted driver is gone", func() {
		s.Require().NoError(s.service.DeleteDriver(s.ctx, 3))
		_, err := s.service.GetDriver(s.ctx, 3)
		s.requireCode(err, dErrors.CodeNotFound)
		s.requireCode(s.service.DeleteDriver(s.ctx, 3), dErrors.CodeNotFound)
	})
}
