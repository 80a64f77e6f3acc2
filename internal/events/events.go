// Package events publishes inventory sync lifecycle events to a Redis stream.
package events

import (
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/google/uuid"
)

// DefaultStreamName is the Redis stream sync events are appended to.
const DefaultStreamName = "inventory-events"

// EventType names a sync lifecycle event.
type EventType string

const (
	EventSyncCompleted EventType = "inventory.sync.completed"
	EventSyncFailed    EventType = "inventory.sync.failed"
)

// SyncEvent describes the end of one sync run.
type SyncEvent struct {
	EventID         uuid.UUID          `json:"event_id"`
	EventType       EventType          `json:"event_type"`
	Timestamp       time.Time          `json:"timestamp"`
	LogID           int64              `json:"log_id"`
	Trigger         domain.Trigger     `json:"trigger"`
	VehiclesFound   int                `json:"vehicles_found"`
	VehiclesSkipped int                `json:"vehicles_skipped"`
	Result          *domain.SyncResult `json:"result,omitempty"`
	Error           string             `json:"error,omitempty"`
}
