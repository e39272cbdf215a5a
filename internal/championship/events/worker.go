package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultInboxSize       = 1024
	defaultDeliveryTimeout = 10 * time.Second
)

// Worker moves delivery off the caller's goroutine. Publish only enqueues; Run
// hands each batch to the next publisher. When the inbox is full, or the worker
// is closed, batches go to the overflow publisher instead.
type Worker struct {
	next     Publisher
	overflow Publisher
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	inbox  chan []Event
	done   chan struct{}

	overflowed atomic.Int64
}

type WorkerOption func(*Worker)

func WithInboxSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan []Event, n)
		}
	}
}

func WithDeliveryTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithOverflow(p Publisher) WorkerOption {
	return func(w *Worker) {
		w.overflow = p
	}
}

func NewWorker(next Publisher, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		next:    next,
		logger:  logger,
		timeout: defaultDeliveryTimeout,
		inbox:   make(chan []Event, defaultInboxSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.overflow == nil {
		w.overflow = NewLogPublisher(logger)
	}
	return w
}

// Publish enqueues events and returns without waiting for delivery.
func (w *Worker) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := append([]Event(nil), events...)

	w.mu.RLock()
	if !w.closed {
		select {
		case w.inbox <- batch:
			w.mu.RUnlock()
			return nil
		default:
		}
	}
	w.mu.RUnlock()

	w.overflowed.Add(int64(len(batch)))
	w.logger.WarnContext(ctx, "event inbox unavailable, writing events to overflow", "events", len(batch))
	return w.overflow.Publish(ctx, batch...)
}

// Run delivers queued batches until Close is called and the inbox is drained.
// ctx bounds each delivery; cancelling it does not stop the loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for batch := range w.inbox {
		w.deliver(ctx, batch)
	}
}

func (w *Worker) deliver(ctx context.Context, batch []Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	if err := w.next.Publish(ctx, batch...); err != nil {
		w.logger.WarnContext(ctx, "failed to deliver ledger events",
			"events", len(batch),
			"error", err,
		)
	}
}

// Close stops accepting events and waits for Run to drain the inbox, or for ctx
// to end. Close is safe to call more than once.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.inbox)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Overflowed reports how many events bypassed the inbox.
func (w *Worker) Overflowed() int64 {
	return w.overflowed.Load()
}
