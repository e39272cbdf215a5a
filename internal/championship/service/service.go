// Package service implements the championship ledger: result writes guarded by
// the per-race uniqueness rules, the derived standings and history views, and
// cascading deletes of races and seasons.
//
// Every multi-row write runs inside one store transaction, so a failed batch or
// cascade leaves the store exactly as it was.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paddock/internal/championship/events"
	"paddock/internal/championship/metrics"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
	"paddock/pkg/platform/sentinel"
	"paddock/pkg/requestcontext"
)

var tracer = otel.Tracer("paddock/championship")

// Publisher receives ledger events once the write that produced them has
// committed.
type Publisher interface {
	Publish(ctx context.Context, evs ...events.Event) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service orchestrates the championship ledger and its views.
type Service struct {
	stores    ports.Stores
	tx        ports.StoreTx
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	health    map[string]Pinger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithHealthCheck adds a dependency reported by Health under name.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Service) {
		if p != nil {
			s.health[name] = p
		}
	}
}

// New constructs a Service. stores serves reads and single-row writes; tx opens
// the transactions used by batches, result writes and cascades.
func New(stores ports.Stores, tx ports.StoreTx, opts ...Option) (*Service, error) {
	switch {
	case stores.Drivers == nil, stores.Constructors == nil, stores.Circuits == nil:
		return nil, fmt.Errorf("entity stores are required")
	case stores.Races == nil:
		return nil, fmt.Errorf("race store is required")
	case stores.Results == nil:
		return nil, fmt.Errorf("result store is required")
	case stores.IDs == nil:
		return nil, fmt.Errorf("id allocator is required")
	case tx == nil:
		return nil, fmt.Errorf("transaction runner is required")
	}

	svc := &Service{
		stores: stores,
		tx:     tx,
		logger: slog.New(slog.DiscardHandler),
		health: make(map[string]Pinger),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Health pings every registered dependency and returns the failures by name.
func (s *Service) Health(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for name, p := range s.health {
		if err := p.Ping(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// publish hands events to the publisher after commit. A failure is logged and
// never surfaces to the caller: the write is already durable.
func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	if s.publisher == nil || len(evs) == 0 {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	for i := range evs {
		evs[i].RequestID = requestID
	}
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish ledger events",
			"error", err,
			"count", len(evs),
			"request_id", requestID,
		)
	}
}

func (s *Service) newEvent(ctx context.Context, t events.Type) events.Event {
	return events.New(t, requestcontext.Now(ctx))
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}

func (s *Service) incrementConflict(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementConflict(kind)
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "championship."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// storeError translates a store failure. entity names the record for
// not-found and conflict messages; action completes "failed to ...".
// Errors that already carry a domain code pass through.
func storeError(err error, entity, action string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" conflicts with an existing record")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "failed to "+action+": request timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}

// validationError converts model invariant violations to validation errors for
// the API response.
func validationError(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return err
}
