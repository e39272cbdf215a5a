package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"paddock/internal/championship/events"
	"paddock/internal/championship/metrics"
	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/sentinel"
)

const (
	opInsert = "insert"
	opUpdate = "update"
)

// SaveResult inserts a result when it has no id and updates it otherwise. The
// race must exist, and the row must not collide with another result of the
// race on grid, position order or driver.
func (s *Service) SaveResult(ctx context.Context, result *models.Result) (id int, err error) {
	if result == nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "result is required")
	}
	ctx, span := startSpan(ctx, "SaveResult",
		attribute.Int("race_id", result.RaceID),
		attribute.Int("result_id", result.ID),
	)
	defer func() { endSpan(span, err) }()

	row, err := prepareResult(result)
	if err != nil {
		return 0, err
	}
	created := row.IsNew()

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		if err := s.checkResult(ctx, stores, &row); err != nil {
			return err
		}
		if created {
			first, err := stores.IDs.Reserve(ctx, models.CollectionResults, 1)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate result id")
			}
			row.ID = first
		}
		return s.writeResult(ctx, stores.Results, &row, created)
	})
	if err != nil {
		return 0, err
	}

	op := opUpdate
	if created {
		op = opInsert
	}
	if s.metrics != nil {
		s.metrics.AddResultsWritten(op, 1)
	}
	s.logInfo(ctx, "result saved",
		"result_id", row.ID,
		"race_id", row.RaceID,
		"op", op,
	)
	ev := s.newEvent(ctx, events.TypeResultSaved)
	ev.ResultID, ev.RaceID, ev.Created = row.ID, row.RaceID, created
	s.publish(ctx, ev)

	return row.ID, nil
}

// SaveResults writes a batch in input order and returns the ids in the same
// order. Every row is checked against the stored results and against earlier
// rows of the batch before anything is written; one failing row rejects the
// whole batch and nothing is written.
func (s *Service) SaveResults(ctx context.Context, results []*models.Result) (ids []int, err error) {
	if len(results) == 0 {
		return []int{}, nil
	}
	ctx, span := startSpan(ctx, "SaveResults", attribute.Int("batch_size", len(results)))
	defer func() { endSpan(span, err) }()

	rows := make([]models.Result, len(results))
	for i, r := range results {
		if r == nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("result %d is empty", i))
		}
		row, err := prepareResult(r)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeOf(err), fmt.Sprintf("result %d: %s", i, err.Error()))
		}
		rows[i] = row
	}

	var inserted int
	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores ports.Stores) error {
		claims := make(batchClaims)
		updated := make(map[int]struct{})
		fresh := 0
		for i := range rows {
			row := &rows[i]
			if !row.IsNew() {
				if _, dup := updated[row.ID]; dup {
					s.incrementConflict(metrics.ConflictBatch)
					return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("duplicate in batch: result %d repeated", row.ID))
				}
				updated[row.ID] = struct{}{}
			} else {
				fresh++
			}
			if err := s.checkResult(ctx, stores, row); err != nil {
				return err
			}
			if err := claims.claim(row); err != nil {
				s.incrementConflict(metrics.ConflictBatch)
				return err
			}
		}

		next := 0
		if fresh > 0 {
			first, err := stores.IDs.Reserve(ctx, models.CollectionResults, fresh)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate result ids")
			}
			next = first
		}
		for i := range rows {
			row := &rows[i]
			created := row.IsNew()
			if created {
				row.ID = next
				next++
			}
			if err := s.writeResult(ctx, stores.Results, row, created); err != nil {
				return err
			}
		}
		inserted = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids = make([]int, len(rows))
	evs := make([]events.Event, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		evs[i] = s.newEvent(ctx, events.TypeResultSaved)
		evs[i].ResultID, evs[i].RaceID = row.ID, row.RaceID
	}
	// Rows without an input id were inserted.
	for i, r := range results {
		evs[i].Created = r.IsNew()
	}

	if s.metrics != nil {
		s.metrics.AddResultsWritten(opInsert, inserted)
		s.metrics.AddResultsWritten(opUpdate, len(rows)-inserted)
	}
	s.logInfo(ctx, "result batch saved",
		"count", len(rows),
		"inserted", inserted,
	)
	s.publish(ctx, evs...)

	return ids, nil
}

// GetResult returns one result by id.
func (s *Service) GetResult(ctx context.Context, id int) (*models.Result, error) {
	result, err := s.stores.Results.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "result", "load result")
	}
	return result, nil
}

func (s *Service) ListResults(ctx context.Context) ([]*models.Result, error) {
	results, err := s.stores.Results.List(ctx)
	if err != nil {
		return nil, storeError(err, "result", "list results")
	}
	return results, nil
}

// DeleteResult removes one result. Results have no dependents.
func (s *Service) DeleteResult(ctx context.Context, id int) error {
	existing, err := s.stores.Results.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "result", "load result")
	}
	if err := s.stores.Results.Delete(ctx, id); err != nil {
		return storeError(err, "result", "delete result")
	}

	s.logInfo(ctx, "result deleted",
		"result_id", id,
		"race_id", existing.RaceID,
	)
	ev := s.newEvent(ctx, events.TypeResultDeleted)
	ev.ResultID, ev.RaceID = id, existing.RaceID
	s.publish(ctx, ev)
	return nil
}

// prepareResult validates the input and returns a private copy to write.
func prepareResult(r *models.Result) (models.Result, error) {
	if r.ID < 0 {
		return models.Result{}, dErrors.New(dErrors.CodeBadRequest, "result id cannot be negative")
	}
	if err := r.Validate(); err != nil {
		return models.Result{}, validationError(err)
	}
	return *r, nil
}

// checkResult runs the existence checks and both uniqueness rules against
// the stored state. It must run inside the write transaction.
func (s *Service) checkResult(ctx context.Context, stores ports.Stores, row *models.Result) error {
	if _, err := stores.Races.FindByID(ctx, row.RaceID); err != nil {
		return storeError(err, "race", "load race")
	}
	if !row.IsNew() {
		if _, err := stores.Results.FindByID(ctx, row.ID); err != nil {
			return storeError(err, "result", "load result")
		}
	}
	if err := s.checkUniquePositions(ctx, stores.Results, row.RaceID, row.Grid, row.PositionOrder, row.ID); err != nil {
		return err
	}
	return s.checkUniqueDriver(ctx, stores.Results, row.RaceID, row.DriverID, row.ID)
}

// writeResult inserts or updates the row. A unique violation reported by the
// store means a concurrent writer claimed the slot after the checks ran.
func (s *Service) writeResult(ctx context.Context, results ports.ResultStore, row *models.Result, created bool) error {
	var err error
	if created {
		err = results.Insert(ctx, row)
	} else {
		err = results.Update(ctx, row)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		s.incrementConflict(metrics.ConflictIndex)
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf(
			"race %d: result collides with an existing result", row.RaceID))
	case errors.Is(err, sentinel.ErrNotFound) && created:
		return dErrors.New(dErrors.CodeNotFound, "race not found")
	default:
		return storeError(err, "result", "write result")
	}
}
