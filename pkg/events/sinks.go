package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewLoggingSink returns a handler writing each event to the structured log.
func NewLoggingSink(logger *zap.Logger) Handler {
	return func(_ context.Context, ev *Event) error {
		logger.Info("Adapter event",
			zap.String("event_id", ev.ID),
			zap.String("event_type", string(ev.Type)),
			zap.Time("timestamp", ev.Timestamp),
			zap.ByteString("data", ev.Data),
		)
		return nil
	}
}

// RedisSink publishes events as JSON on a pub/sub channel for indexers.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

func NewRedisSink(client redis.UniversalClient, channel string, logger *zap.Logger) (*RedisSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if channel == "" {
		return nil, fmt.Errorf("redis channel cannot be empty")
	}
	return &RedisSink{client: client, channel: channel, logger: logger}, nil
}

func (s *RedisSink) Handle(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	receivers, err := s.client.Publish(ctx, s.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", s.channel, err)
	}
	s.logger.Sugar().Debugw("Published adapter event", "channel", s.channel, "event_type", ev.Type, "receivers", receivers)
	return nil
}
