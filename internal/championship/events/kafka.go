package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"paddock/pkg/platform/circuit"
)

// KafkaPublisher produces events as JSON records keyed by Event.Key. Failed
// batches are written to the fallback publisher so nothing disappears silently.
type KafkaPublisher struct {
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	breaker  *circuit.Breaker
	fallback Publisher
}

type KafkaOption func(*KafkaPublisher)

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) {
		p.breaker = b
	}
}

func WithFallback(fallback Publisher) KafkaOption {
	return func(p *KafkaPublisher) {
		p.fallback = fallback
	}
}

func NewKafkaPublisher(client *kgo.Client, topic string, logger *slog.Logger, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		client:  client,
		topic:   topic,
		logger:  logger,
		breaker: circuit.New("kafka-events", circuit.WithFailureThreshold(3)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fallback == nil {
		p.fallback = NewLogPublisher(logger)
	}
	return p
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.Key()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "event broker unavailable, falling back to log",
				"topic", p.topic,
				"error", err,
			)
		}
		_ = p.fallback.Publish(ctx, events...)
		return fmt.Errorf("produce %d events: %w", len(events), err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "event broker recovered", "topic", p.topic)
	}
	return nil
}
