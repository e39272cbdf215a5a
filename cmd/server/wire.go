package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"paddock/internal/championship/events"
	"paddock/internal/championship/models"
	"paddock/internal/championship/ports"
	"paddock/internal/championship/service"
	"paddock/internal/championship/store/memory"
	pgstore "paddock/internal/championship/store/postgres"
	redisstore "paddock/internal/championship/store/redis"
	"paddock/internal/platform/config"
	"paddock/internal/platform/kafka"
	"paddock/internal/platform/postgres"
	platformredis "paddock/internal/platform/redis"
)

// ledgerStore is what both store backends provide.
type ledgerStore interface {
	ports.StoreTx
	Stores() ports.Stores
	Ping(ctx context.Context) error
	MaxID(ctx context.Context, collection models.Collection) (int, error)
}

// backends holds every connection the process opened. close releases them in
// reverse order.
type backends struct {
	store   ledgerStore
	db      *sql.DB
	redis   *platformredis.Client
	kafka   *kgo.Client
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openStore connects the configured store and id allocator. The redis counters
// are raised to the stored maximum before anything can reserve from them.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	var allocator *redisstore.Sequences
	if cfg.Ledger.IDAllocator == config.AllocatorRedis {
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.redis = client
		b.closers = append(b.closers, func() { _ = client.Close() })
		allocator = redisstore.New(client.Client)
	}

	switch cfg.Ledger.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			b.close()
			return nil, err
		}
		b.db = db
		b.closers = append(b.closers, func() { _ = db.Close() })

		opts := []pgstore.Option{pgstore.WithTxTimeout(cfg.Ledger.TxTimeout)}
		if allocator != nil {
			opts = append(opts, pgstore.WithAllocator(allocator))
		}
		b.store = pgstore.New(db, opts...)
	default:
		var opts []memory.Option
		if allocator != nil {
			opts = append(opts, memory.WithAllocator(allocator))
		}
		b.store = memory.New(opts...)
	}

	if allocator != nil {
		if err := allocator.Sync(ctx, b.store); err != nil {
			b.close()
			return nil, fmt.Errorf("sync id counters: %w", err)
		}
	}
	logger.InfoContext(ctx, "store ready",
		"store", cfg.Ledger.Store,
		"id_allocator", cfg.Ledger.IDAllocator,
	)
	return b, nil
}

// openPublisher returns the log publisher when no brokers are configured.
// Otherwise the Kafka publisher runs behind a worker, drained on close before
// the client goes away.
func openPublisher(ctx context.Context, cfg config.Kafka, b *backends, logger *slog.Logger) (service.Publisher, error) {
	client, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.InfoContext(ctx, "no kafka brokers configured, ledger events go to the log")
		return events.NewLogPublisher(logger), nil
	}
	b.kafka = client
	b.closers = append(b.closers, client.Close)

	publisher := events.NewKafkaPublisher(client, cfg.Topic, logger)
	if err := publisher.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		return nil, err
	}
	worker := events.NewWorker(publisher, logger,
		events.WithInboxSize(cfg.InboxSize),
		events.WithDeliveryTimeout(cfg.DeliveryTimeout),
	)
	go worker.Run(ctx)
	b.closers = append(b.closers, func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DeliveryTimeout)
		defer cancel()
		if err := worker.Close(drainCtx); err != nil {
			logger.Warn("ledger events left undelivered at shutdown", "error", err, "overflowed", worker.Overflowed())
		}
	})
	logger.InfoContext(ctx, "publishing ledger events", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return worker, nil
}

// healthChecks registers a ping for every backing service that is in use.
func healthChecks(b *backends) []service.Option {
	opts := []service.Option{service.WithHealthCheck("store", b.store)}
	if b.redis != nil {
		opts = append(opts, service.WithHealthCheck("redis", service.PingFunc(b.redis.Health)))
	}
	if b.kafka != nil {
		opts = append(opts, service.WithHealthCheck("kafka", service.PingFunc(b.kafka.Ping)))
	}
	return opts
}
