package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"paddock/internal/championship/events"
	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
)

// DeleteRace removes a race together with its results in one transaction. A
// missing race deletes nothing.
func (s *Service) DeleteRace(ctx context.Context, raceID int) (report models.CascadeReport, err error) {
	ctx, span := startSpan(ctx, "DeleteRace", attribute.Int("race_id", raceID))
	defer func() { endSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		if _, err := stores.Races.FindByID(ctx, raceID); err != nil {
			return storeError(err, "race", "load race")
		}
		var err error
		report, err = cascade(ctx, stores, []int{raceID})
		return err
	})
	if err != nil {
		return models.CascadeReport{}, err
	}

	s.recordCascade(report)
	s.logInfo(ctx, "race deleted",
		"race_id", raceID,
		"results_deleted", report.ResultsDeleted,
	)
	ev := s.newEvent(ctx, events.TypeRaceDeleted)
	ev.RaceID, ev.RacesDeleted, ev.ResultsDeleted = raceID, report.RacesDeleted, report.ResultsDeleted
	s.publish(ctx, ev)
	return report, nil
}

// DeleteSeason removes every race of the year and all their results in one
// transaction. A year without races is not found and the store is untouched.
func (s *Service) DeleteSeason(ctx context.Context, year int) (report models.CascadeReport, err error) {
	ctx, span := startSpan(ctx, "DeleteSeason", attribute.Int("year", year))
	defer func() { endSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		races, err := stores.Races.List(ctx, models.YearFilter{Year: &year})
		if err != nil {
			return storeError(err, "race", "list races")
		}
		if len(races) == 0 {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("season %d not found", year))
		}
		report, err = cascade(ctx, stores, distinct(races, func(r *models.Race) int { return r.ID }))
		return err
	})
	if err != nil {
		return models.CascadeReport{}, err
	}

	s.recordCascade(report)
	s.logInfo(ctx, "season deleted",
		"year", year,
		"races_deleted", report.RacesDeleted,
		"results_deleted", report.ResultsDeleted,
	)
	ev := s.newEvent(ctx, events.TypeSeasonDeleted)
	ev.Year, ev.RacesDeleted, ev.ResultsDeleted = year, report.RacesDeleted, report.ResultsDeleted
	s.publish(ctx, ev)
	return report, nil
}

// cascade deletes results before races so the race foreign key never dangles.
func cascade(ctx context.Context, stores ports.Stores, raceIDs []int) (models.CascadeReport, error) {
	results, err := stores.Results.DeleteByRaces(ctx, raceIDs)
	if err != nil {
		return models.CascadeReport{}, storeError(err, "result", "delete results")
	}
	races, err := stores.Races.DeleteMany(ctx, raceIDs)
	if err != nil {
		return models.CascadeReport{}, storeError(err, "race", "delete races")
	}
	return models.CascadeReport{RacesDeleted: races, ResultsDeleted: results}, nil
}

func (s *Service) recordCascade(report models.CascadeReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.AddCascadeDeleted("race", report.RacesDeleted)
	s.metrics.AddCascadeDeleted("result", report.ResultsDeleted)
}
