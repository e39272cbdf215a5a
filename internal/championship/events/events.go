// Package events carries ledger change notifications out of the process after
// a write commits. Delivery is best effort. Publishers that talk to a broker
// are wrapped in a Worker so requests only pay for an enqueue.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeResultSaved   Type = "result.saved"
	TypeResultDeleted Type = "result.deleted"
	TypeRaceDeleted   Type = "race.deleted"
	TypeSeasonDeleted Type = "season.deleted"
)

// Event is one committed ledger change.
type Event struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	OccurredAt     time.Time `json:"occurredAt"`
	RequestID      string    `json:"requestId,omitempty"`
	ResultID       int       `json:"resultId,omitempty"`
	RaceID         int       `json:"raceId,omitempty"`
	Year           int       `json:"year,omitempty"`
	Created        bool      `json:"created,omitempty"`
	RacesDeleted   int       `json:"racesDeleted,omitempty"`
	ResultsDeleted int       `json:"resultsDeleted,omitempty"`
}

// New stamps a fresh event id.
func New(t Type, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: at.UTC()}
}

// Key groups events for partitioning: changes to one race stay ordered, as do
// changes to one season.
func (e Event) Key() string {
	switch {
	case e.RaceID != 0:
		return "race:" + strconv.Itoa(e.RaceID)
	case e.Year != 0:
		return "season:" + strconv.Itoa(e.Year)
	default:
		return string(e.Type)
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}
