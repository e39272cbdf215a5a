package models

import (
	"time"

	dErrors "paddock/pkg/domain-errors"
)

// Collection names a keyed entity collection. Id counters are kept per collection.
type Collection string

const (
	CollectionDrivers      Collection = "drivers"
	CollectionConstructors Collection = "constructors"
	CollectionCircuits     Collection = "circuits"
	CollectionRaces        Collection = "races"
	CollectionResults      Collection = "results"
)

// Collections lists every collection in dependency order (parents first).
var Collections = []Collection{
	CollectionDrivers,
	CollectionConstructors,
	CollectionCircuits,
	CollectionRaces,
	CollectionResults,
}

// Driver is a competitor.
//
// Invariants:
//   - DriverRef, Forename and Surname are non-empty
type Driver struct {
	ID          int        `json:"id"`
	DriverRef   string     `json:"driverRef"`
	Forename    string     `json:"forename"`
	Surname     string     `json:"surname"`
	DOB         *time.Time `json:"dob,omitempty"`
	Nationality string     `json:"nationality"`
	URL         string     `json:"url,omitempty"`
}

func (d *Driver) FullName() string {
	return d.Forename + " " + d.Surname
}

func (d *Driver) Validate() error {
	if d.DriverRef == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "driver ref cannot be empty")
	}
	if d.Forename == "" || d.Surname == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "driver forename and surname cannot be empty")
	}
	return nil
}

// Constructor is a team entering cars.
//
// Invariants:
//   - ConstructorRef and Name are at least 2 characters
type Constructor struct {
	ID             int    `json:"id"`
	ConstructorRef string `json:"constructorRef"`
	Name           string `json:"name"`
	Nationality    string `json:"nationality"`
	URL            string `json:"url,omitempty"`
}

func (c *Constructor) Validate() error {
	if len(c.ConstructorRef) < 2 {
		return dErrors.New(dErrors.CodeInvariantViolation, "constructor ref must be at least 2 characters")
	}
	if len(c.Name) < 2 {
		return dErrors.New(dErrors.CodeInvariantViolation, "constructor name must be at least 2 characters")
	}
	return nil
}

// Circuit is a venue races are held at.
type Circuit struct {
	ID         int    `json:"id"`
	CircuitRef string `json:"circuitRef"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Country    string `json:"country,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (c *Circuit) Validate() error {
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "circuit name cannot be empty")
	}
	return nil
}

// Race is one round of a season. CircuitID is not checked against the circuits
// collection on write; views render a missing circuit as a null name.
type Race struct {
	ID        int        `json:"id"`
	Year      int        `json:"year"`
	Round     int        `json:"round"`
	CircuitID int        `json:"circuitId"`
	Name      string     `json:"name"`
	Date      *time.Time `json:"date,omitempty"`
	URL       string     `json:"url,omitempty"`
}

func (r *Race) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "race name cannot be empty")
	}
	if r.Year <= 0 || r.Round <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "race year and round must be positive")
	}
	return nil
}
