package domain

import "time"

// ScrapeStatus is the lifecycle state of a sync run.
type ScrapeStatus string

const (
	ScrapeStatusRunning   ScrapeStatus = "running"
	ScrapeStatusSyncing   ScrapeStatus = "syncing"
	ScrapeStatusCompleted ScrapeStatus = "completed"
	ScrapeStatusFailed    ScrapeStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ScrapeStatus) IsTerminal() bool {
	return s == ScrapeStatusCompleted || s == ScrapeStatusFailed
}

// Trigger names what started a run.
type Trigger string

const (
	TriggerAPI       Trigger = "api"
	TriggerScheduler Trigger = "scheduler"
	TriggerCLI       Trigger = "cli"
)

// ScrapeLog is the durable audit record of one sync run.
type ScrapeLog struct {
	ID              int64        `db:"id"               json:"id"`
	StartedAt       time.Time    `db:"started_at"       json:"started_at"`
	CompletedAt     *time.Time   `db:"completed_at"     json:"completed_at,omitempty"`
	Status          ScrapeStatus `db:"status"           json:"status"`
	Trigger         Trigger      `db:"triggered_by"     json:"trigger"`
	VehiclesFound   *int         `db:"vehicles_found"   json:"vehicles_found,omitempty"`
	VehiclesSkipped *int         `db:"vehicles_skipped" json:"vehicles_skipped,omitempty"`
	VehiclesAdded   *int         `db:"vehicles_added"   json:"vehicles_added,omitempty"`
	VehiclesUpdated *int         `db:"vehicles_updated" json:"vehicles_updated,omitempty"`
	VehiclesRemoved *int         `db:"vehicles_removed" json:"vehicles_removed,omitempty"`
	ErrorMessage    *string      `db:"error_message"    json:"error_message,omitempty"`
}

// ScrapeLogUpdate carries the fields written on a status transition.
// Nil fields leave the stored value untouched.
type ScrapeLogUpdate struct {
	Status          ScrapeStatus
	CompletedAt     *time.Time
	VehiclesFound   *int
	VehiclesSkipped *int
	VehiclesAdded   *int
	VehiclesUpdated *int
	VehiclesRemoved *int
	ErrorMessage    *string
}

// SyncResult counts what one reconciliation changed.
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}
