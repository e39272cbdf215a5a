// Package memory is the in-process entity store. Writers are serialised and
// work on a private copy of the collections that is swapped in on commit, so a
// failed transaction leaves nothing behind. Readers see the last committed copy.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	dErrors "paddock/pkg/domain-errors"
)

type state struct {
	drivers      map[int]models.Driver
	constructors map[int]models.Constructor
	circuits     map[int]models.Circuit
	races        map[int]models.Race
	results      map[int]models.Result
	sequences    map[models.Collection]int
}

func newState() *state {
	return &state{
		drivers:      make(map[int]models.Driver),
		constructors: make(map[int]models.Constructor),
		circuits:     make(map[int]models.Circuit),
		races:        make(map[int]models.Race),
		results:      make(map[int]models.Result),
		sequences:    make(map[models.Collection]int),
	}
}

func (st *state) clone() *state {
	return &state{
		drivers:      maps.Clone(st.drivers),
		constructors: maps.Clone(st.constructors),
		circuits:     maps.Clone(st.circuits),
		races:        maps.Clone(st.races),
		results:      maps.Clone(st.results),
		sequences:    maps.Clone(st.sequences),
	}
}

func (st *state) maxID(collection models.Collection) int {
	switch collection {
	case models.CollectionDrivers:
		return maxKey(st.drivers)
	case models.CollectionConstructors:
		return maxKey(st.constructors)
	case models.CollectionCircuits:
		return maxKey(st.circuits)
	case models.CollectionRaces:
		return maxKey(st.races)
	case models.CollectionResults:
		return maxKey(st.results)
	}
	return 0
}

func maxKey[V any](m map[int]V) int {
	highest := 0
	for k := range m {
		if k > highest {
			highest = k
		}
	}
	return highest
}

// Store holds every collection in memory.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
	ids     ports.IDAllocator
}

type Option func(*Store)

// WithAllocator replaces the built-in counter, e.g. with a shared Redis counter.
func WithAllocator(ids ports.IDAllocator) Option {
	return func(s *Store) {
		s.ids = ids
	}
}

func New(opts ...Option) *Store {
	s := &Store{current: newState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) commit(next *state) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// update applies fn to a private copy and publishes it when fn succeeds.
func (s *Store) update(fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// Stores returns handles that read the latest committed state. Each write made
// through them commits on its own.
func (s *Store) Stores() ports.Stores {
	return s.bind(tables{read: s.snapshot, write: s.update})
}

// RunInTx runs fn against a private copy of all collections and commits it
// only when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, stores ports.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.snapshot().clone()
	stores := s.bind(tables{
		read:  func() *state { return next },
		write: func(fn func(st *state) error) error { return fn(next) },
	})
	if err := fn(ctx, stores); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s.commit(next)
	return nil
}

// MaxID reports the highest committed id of a collection.
func (s *Store) MaxID(_ context.Context, collection models.Collection) (int, error) {
	return s.snapshot().maxID(collection), nil
}

// Ping always succeeds; it lets the store stand in for a database in health checks.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) bind(t tables) ports.Stores {
	var ids ports.IDAllocator = sequenceTable{t}
	if s.ids != nil {
		ids = s.ids
	}
	return ports.Stores{
		Drivers:      driverTable{t},
		Constructors: constructorTable{t},
		Circuits:     circuitTable{t},
		Races:        raceTable{t},
		Results:      resultTable{t},
		IDs:          ids,
	}
}

type tables struct {
	read  func() *state
	write func(fn func(st *state) error) error
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
