package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	contractsv1 "girthgov/contracts/gen/events/v1"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends envelopes to a capped Redis stream so external
// consumers (dashboards, reward settlement) can follow governance activity.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewRedisStream(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) *RedisStream {
	if maxLen <= 0 {
		maxLen = 10000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

func (s *RedisStream) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"topic":         topic,
			"event_id":      event.EventID,
			"partition_key": event.PartitionKey,
			"envelope":      payload,
		},
	}).Result()
	if err != nil {
		s.logger.Error("redis stream append failed",
			"event", "redis_stream_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"stream", s.stream,
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	s.logger.Debug("redis stream append",
		"event", "redis_stream_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"stream", s.stream,
		"stream_id", id,
		"event_id", event.EventID,
	)
	return nil
}

// Publisher is the shape shared by Bus and RedisStream.
type Publisher interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
}

// Fanout publishes to every target and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	var errs []error
	for _, target := range f {
		if err := target.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
