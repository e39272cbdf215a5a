package models

import (
	dErrors "paddock/pkg/domain-errors"
)

// WinnerPositionText marks the race winner; retirements carry "R" and similar.
const WinnerPositionText = "1"

// Result is one driver's classification in one race.
//
// Invariants, scoped to RaceID (enforced by the ledger, backed by the store):
//   - no two results share Grid
//   - no two results share PositionOrder
//   - no two results share DriverID
//
// DriverID and ConstructorID are not checked against their collections on
// write; standings render a missing reference as PlaceholderName.
type Result struct {
	ID            int     `json:"id"`
	RaceID        int     `json:"raceId"`
	DriverID      int     `json:"driverId"`
	ConstructorID int     `json:"constructorId"`
	Grid          int     `json:"grid"`
	PositionText  string  `json:"positionText"`
	PositionOrder int     `json:"positionOrder"`
	Points        float64 `json:"points"`
	Laps          int     `json:"laps"`
	StatusID      int     `json:"statusId"`
}

// IsNew reports whether the result still needs an id from the allocator.
func (r *Result) IsNew() bool {
	return r.ID == 0
}

func (r *Result) IsWin() bool {
	return r.PositionText == WinnerPositionText
}

func (r *Result) Validate() error {
	if r.RaceID <= 0 || r.DriverID <= 0 || r.ConstructorID <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "result must reference a race, driver and constructor")
	}
	if r.PositionText == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "result position text cannot be empty")
	}
	if r.Grid < 0 || r.PositionOrder <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "result grid must be non-negative and position order positive")
	}
	return nil
}
