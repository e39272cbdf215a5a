package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. It is the publisher when
// no broker is configured and the fallback while the broker is unavailable.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, string(e.Type),
			"event_id", e.ID,
			"log_type", "ledger_event",
			"request_id", e.RequestID,
			"result_id", e.ResultID,
			"race_id", e.RaceID,
			"year", e.Year,
			"races_deleted", e.RacesDeleted,
			"results_deleted", e.ResultsDeleted,
		)
	}
	return nil
}
