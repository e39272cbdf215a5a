// Package redis allocates collection ids from Redis counters so several
// service instances can share one id space.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"paddock/internal/championship/models"
)

const keyPrefix = "paddock:seq:"

// raiseScript lifts a counter to at least ARGV[1] without ever lowering it.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if floor > current then
	redis.call("SET", KEYS[1], floor)
	return floor
end
return current
`)

// MaxIDSource reports the highest stored id of a collection.
type MaxIDSource interface {
	MaxID(ctx context.Context, collection models.Collection) (int, error)
}

type Sequences struct {
	client *redis.Client
}

func New(client *redis.Client) *Sequences {
	return &Sequences{client: client}
}

func key(collection models.Collection) string {
	return keyPrefix + string(collection)
}

// Reserve claims n ids with a single INCRBY. Ids reserved inside a transaction
// that later rolls back are not returned to the counter.
func (s *Sequences) Reserve(ctx context.Context, collection models.Collection, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %d ids for %s: count must be positive", n, collection)
	}
	last, err := s.client.IncrBy(ctx, key(collection), int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("reserve %d ids for %s: %w", n, collection, err)
	}
	return int(last) - n + 1, nil
}

// Sync raises every counter to the highest id the source holds. Run it at
// startup, before the first reservation.
func (s *Sequences) Sync(ctx context.Context, source MaxIDSource) error {
	for _, collection := range models.Collections {
		highest, err := source.MaxID(ctx, collection)
		if err != nil {
			return fmt.Errorf("sync %s counter: %w", collection, err)
		}
		if err := raiseScript.Run(ctx, s.client, []string{key(collection)}, highest).Err(); err != nil {
			return fmt.Errorf("sync %s counter: %w", collection, err)
		}
	}
	return nil
}
