//go:build integration

package redis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"paddock/internal/championship/models"
	"paddock/internal/championship/store/memory"
	seqredis "paddock/internal/championship/store/redis"
	"paddock/pkg/testutil/containers"
)

type RedisSequencesSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	seq   *seqredis.Sequences
}

func TestRedisSequencesSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSequencesSuite))
}

func (s *RedisSequencesSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.seq = seqredis.New(s.redis.Client)
}

func (s *RedisSequencesSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// counter reads the raw counter of a collection. A missing key reads as zero.
func (s *RedisSequencesSuite) counter(ctx context.Context, collection models.Collection) int {
	v, err := s.redis.Client.Get(ctx, "paddock:seq:"+string(collection)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0
	}
	s.Require().NoError(err)
	return v
}

func (s *RedisSequencesSuite) TestReserve() {
	ctx := context.Background()

	first, err := s.seq.Reserve(ctx, models.CollectionResults, 4)
	s.Require().NoError(err)
	s.Equal(1, first)

	next, err := s.seq.Reserve(ctx, models.CollectionResults, 1)
	s.Require().NoError(err)
	s.Equal(5, next)

	other, err := s.seq.Reserve(ctx, models.CollectionDrivers, 1)
	s.Require().NoError(err)
	s.Equal(1, other, "collections keep separate counters")
}

func (s *RedisSequencesSuite) TestSyncNeverLowersCounter() {
	ctx := context.Background()
	store := memory.New()
	stores := store.Stores()
	s.Require().NoError(stores.Races.Insert(ctx, &models.Race{ID: 30, Year: 2020, Round: 1, Name: "GP"}))

	s.Require().NoError(s.seq.Sync(ctx, store))
	s.Equal(30, s.counter(ctx, models.CollectionRaces))
	s.Equal(0, s.counter(ctx, models.CollectionResults), "empty collections stay at zero")

	_, err := s.seq.Reserve(ctx, models.CollectionRaces, 20)
	s.Require().NoError(err)
	s.Require().NoError(s.seq.Sync(ctx, store))
	s.Equal(50, s.counter(ctx, models.CollectionRaces))
}

func (s *RedisSequencesSuite) TestConcurrentReservations() {
	ctx := context.Background()
	const goroutines = 40

	var wg sync.WaitGroup
	var failures atomic.Int32
	seen := sync.Map{}
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.seq.Reserve(ctx, models.CollectionResults, 1)
			if err != nil {
				failures.Add(1)
				return
			}
			if _, dup := seen.LoadOrStore(id, true); dup {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(0), failures.Load())
}
