package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher appends sync events to a Redis stream. A nil *Publisher is a
// valid no-op publisher.
type Publisher struct {
	client *redis.Client
	stream string
	log    logger.Logger
}

// NewPublisher creates a publisher writing to stream.
// Returns nil if client is nil.
func NewPublisher(client *redis.Client, stream string, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = DefaultStreamName
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{client: client, stream: stream, log: log}
}

// Publish appends event to the stream.
func (p *Publisher) Publish(ctx context.Context, event SyncEvent) error {
	if p == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": string(event.EventType),
			"event":      string(payload),
		},
	})
	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream %s: %w", p.stream, publishErr)
	}

	p.log.Debug("Published sync event",
		logger.String("event_type", string(event.EventType)),
		logger.Int64("log_id", event.LogID),
		logger.String("stream_id", result.Val()),
	)
	return nil
}
