package service

import (
	"context"
	"fmt"

	"paddock/internal/championship/metrics"
	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
)

// checkUniquePositions rejects a grid slot or finishing order already held by
// another result of the race. excludeID is the result being updated, or 0.
func (s *Service) checkUniquePositions(ctx context.Context, results ports.ResultStore, raceID, grid, positionOrder, excludeID int) error {
	n, err := results.CountPositionClaims(ctx, raceID, grid, positionOrder, excludeID)
	if err != nil {
		return storeError(err, "result", "check positions")
	}
	if n > 0 {
		s.incrementConflict(metrics.ConflictPosition)
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
			"race %d: grid %d or position %d is already taken", raceID, grid, positionOrder))
	}
	return nil
}

// checkUniqueDriver rejects a second result for the same driver in a race.
func (s *Service) checkUniqueDriver(ctx context.Context, results ports.ResultStore, raceID, driverID, excludeID int) error {
	n, err := results.CountDriverClaims(ctx, raceID, driverID, excludeID)
	if err != nil {
		return storeError(err, "result", "check driver")
	}
	if n > 0 {
		s.incrementConflict(metrics.ConflictDriver)
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
			"race %d: driver %d already has a result", raceID, driverID))
	}
	return nil
}

// batchClaims tracks, per race, what earlier rows of the same batch hold.
type batchClaims map[int]*raceClaims

type raceClaims struct {
	grids     map[int]struct{}
	positions map[int]struct{}
	drivers   map[int]struct{}
}

// claim records the row's slots or returns a conflict naming the collision.
func (b batchClaims) claim(r *models.Result) error {
	c, ok := b[r.RaceID]
	if !ok {
		c = &raceClaims{
			grids:     make(map[int]struct{}),
			positions: make(map[int]struct{}),
			drivers:   make(map[int]struct{}),
		}
		b[r.RaceID] = c
	}

	_, gridTaken := c.grids[r.Grid]
	_, positionTaken := c.positions[r.PositionOrder]
	if gridTaken || positionTaken {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
			"duplicate in batch for race %d: grid %d or position %d repeated", r.RaceID, r.Grid, r.PositionOrder))
	}
	if _, taken := c.drivers[r.DriverID]; taken {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(
			"duplicate in batch for race %d: driver %d repeated", r.RaceID, r.DriverID))
	}

	c.grids[r.Grid] = struct{}{}
	c.positions[r.PositionOrder] = struct{}{}
	c.drivers[r.DriverID] = struct{}{}
	return nil
}
