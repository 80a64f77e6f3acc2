package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/events"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := events.NewPublisher(client, "", nil)
	ctx := context.Background()

	err := pub.Publish(ctx, events.SyncEvent{
		EventType:     events.EventSyncCompleted,
		LogID:         7,
		Trigger:       domain.TriggerScheduler,
		VehiclesFound: 3,
		Result:        &domain.SyncResult{Added: 1, Updated: 2},
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, events.DefaultStreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, string(events.EventSyncCompleted), msgs[0].Values["event_type"])

	var got events.SyncEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["event"].(string)), &got))
	assert.NotEqual(t, uuid.Nil, got.EventID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, int64(7), got.LogID)
	assert.Equal(t, &domain.SyncResult{Added: 1, Updated: 2}, got.Result)
}

func TestPublisher_NilIsNoOp(t *testing.T) {
	pub := events.NewPublisher(nil, "inventory-events", nil)
	assert.Nil(t, pub)
	assert.NoError(t, pub.Publish(context.Background(), events.SyncEvent{EventType: events.EventSyncFailed}))
}

func TestPublisher_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := events.NewPublisher(client, "inventory-events", nil)
	err := pub.Publish(context.Background(), events.SyncEvent{EventType: events.EventSyncFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory-events")
}
