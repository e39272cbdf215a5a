package models

import (
	dErrors "paddock/pkg/domain-errors"
)

// PlaceholderName is rendered in standings for a driver or constructor id that
// does not resolve to a stored record.
const PlaceholderName = "N/D"

// YearFilter narrows year-scoped views. When Year is set it decides which
// years match and the range bounds are only validated. Bounds are inclusive.
type YearFilter struct {
	Year     *int
	FromYear *int
	ToYear   *int
}

// Validate rejects a range whose lower bound exceeds the upper bound, whether
// or not Year is set. Callers run it before touching the store.
func (f YearFilter) Validate() error {
	if f.FromYear != nil && f.ToYear != nil && *f.FromYear > *f.ToYear {
		return dErrors.New(dErrors.CodeInvalidRange, "invalid year range: from_year must be less than or equal to to_year")
	}
	return nil
}

func (f YearFilter) Matches(year int) bool {
	if f.Year != nil {
		return year == *f.Year
	}
	if f.FromYear != nil && year < *f.FromYear {
		return false
	}
	if f.ToYear != nil && year > *f.ToYear {
		return false
	}
	return true
}

// IsZero reports whether the filter accepts every year.
func (f YearFilter) IsZero() bool {
	return f.Year == nil && f.FromYear == nil && f.ToYear == nil
}

// DriverHistory is a driver with the results that passed the year filter.
type DriverHistory struct {
	*Driver
	Results []*Result `json:"results"`
}

// ConstructorHistory is a constructor with the results that passed the year filter.
type ConstructorHistory struct {
	*Constructor
	Results []*Result `json:"results"`
}

// RaceStandingRow is one classified entry of a single race.
type RaceStandingRow struct {
	ResultID        int     `json:"resultId"`
	PositionOrder   int     `json:"positionOrder"`
	PositionText    string  `json:"positionText"`
	Points          float64 `json:"points"`
	DriverID        int     `json:"driverId"`
	DriverName      string  `json:"driverName"`
	ConstructorID   int     `json:"constructorId"`
	ConstructorName string  `json:"constructorName"`
}

// StandingRow aggregates one (driver, constructor) pairing over a season.
type StandingRow struct {
	DriverID        int     `json:"driverId"`
	Forename        string  `json:"forename"`
	Surname         string  `json:"surname"`
	ConstructorID   int     `json:"constructorId"`
	ConstructorName string  `json:"constructorName"`
	TotalPoints     float64 `json:"totalPoints"`
	RacesCount      int     `json:"racesCount"`
	Wins            int     `json:"wins"`
}

// SeasonRace is a race of a season detail view.
type SeasonRace struct {
	RaceID      int     `json:"raceId"`
	Name        string  `json:"name"`
	Date        *string `json:"date"`
	Round       int     `json:"round"`
	CircuitName *string `json:"circuitName"`
	Winner      *string `json:"winner"`
	Team        *string `json:"team"`
}

// Season is derived on read from races and results. The champion fields are
// never populated.
type Season struct {
	Year                int          `json:"year"`
	RaceCount           int          `json:"raceCount"`
	DriverChampion      *int         `json:"driverChampion"`
	ConstructorChampion *int         `json:"constructorChampion"`
	Races               []SeasonRace `json:"races"`
}

// CascadeReport counts what a cascading delete removed.
type CascadeReport struct {
	RacesDeleted   int `json:"racesDeleted"`
	ResultsDeleted int `json:"resultsDeleted"`
}

// DriverQuery filters the driver list.
type DriverQuery struct {
	Nationality string
	Sort        SortOrder
}

// CircuitQuery filters the circuit list.
type CircuitQuery struct {
	Country string
	Sort    SortOrder
}

// SortOrder is an alphabetical ordering request.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortNone || o == SortAsc || o == SortDesc
}
