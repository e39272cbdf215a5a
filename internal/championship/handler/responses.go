package handler

import (
	"paddock/internal/championship/models"
)

// SavedResponse answers a single create or update.
type SavedResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// BatchSavedResponse lists the ids of a batch in input order.
type BatchSavedResponse struct {
	Message string `json:"message"`
	IDs     []int  `json:"ids"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CascadeResponse reports a cascading delete.
type CascadeResponse struct {
	Message string `json:"message"`
	models.CascadeReport
}

type DriversResponse struct {
	Drivers []*models.Driver `json:"drivers"`
}

type ConstructorsResponse struct {
	Constructors []*models.Constructor `json:"constructors"`
}

type RacesResponse struct {
	Races []*models.Race `json:"races"`
}

type ResultsResponse struct {
	Results []*models.Result `json:"results"`
}

// HealthResponse carries one entry per registered dependency check.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// orEmpty keeps list responses rendering as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
