package joblog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
)

// maxErrorMessageLen caps the stored failure message.
const maxErrorMessageLen = 1000

// Repository persists scrape logs.
type Repository interface {
	// Create inserts log and sets its ID.
	Create(ctx context.Context, log *domain.ScrapeLog) error
	// Transition applies upd to log id only while its status is from,
	// returning ErrStaleStatus otherwise.
	Transition(ctx context.Context, id int64, from domain.ScrapeStatus, upd domain.ScrapeLogUpdate) error
}

// Tracker drives one run's scrape log through its lifecycle. It is not safe
// for concurrent use; a run owns its tracker.
type Tracker struct {
	repo   Repository
	now    func() time.Time
	id     int64
	status domain.ScrapeStatus
}

// Start inserts a running log for a new run.
func Start(ctx context.Context, repo Repository, trigger domain.Trigger, now func() time.Time) (*Tracker, error) {
	if now == nil {
		now = time.Now
	}

	entry := &domain.ScrapeLog{
		StartedAt: now().UTC(),
		Status:    domain.ScrapeStatusRunning,
		Trigger:   trigger,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create scrape log: %w", err)
	}

	return &Tracker{repo: repo, now: now, id: entry.ID, status: entry.Status}, nil
}

// ID returns the log id.
func (t *Tracker) ID() int64 {
	return t.id
}

// Status returns the last persisted status.
func (t *Tracker) Status() domain.ScrapeStatus {
	return t.status
}

// BeginSync records the scrape counts and moves the log to syncing.
func (t *Tracker) BeginSync(ctx context.Context, found, skipped int) error {
	return t.transition(ctx, domain.ScrapeLogUpdate{
		Status:          domain.ScrapeStatusSyncing,
		VehiclesFound:   &found,
		VehiclesSkipped: &skipped,
	})
}

// Complete records the reconciliation counts and closes the log.
func (t *Tracker) Complete(ctx context.Context, result domain.SyncResult) error {
	return t.transition(ctx, domain.ScrapeLogUpdate{
		Status:          domain.ScrapeStatusCompleted,
		VehiclesAdded:   &result.Added,
		VehiclesUpdated: &result.Updated,
		VehiclesRemoved: &result.Removed,
	})
}

// Fail closes the log with cause as its error message. Partial counts may be
// recorded alongside through partial.
func (t *Tracker) Fail(ctx context.Context, cause error, partial *domain.SyncResult) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	msg = truncateMessage(msg, maxErrorMessageLen)

	upd := domain.ScrapeLogUpdate{
		Status:       domain.ScrapeStatusFailed,
		ErrorMessage: &msg,
	}
	if partial != nil {
		upd.VehiclesAdded = &partial.Added
		upd.VehiclesUpdated = &partial.Updated
		upd.VehiclesRemoved = &partial.Removed
	}

	return t.transition(ctx, upd)
}

// truncateMessage makes msg valid UTF-8 and cuts it to at most limit bytes
// on a rune boundary.
func truncateMessage(msg string, limit int) string {
	msg = strings.ToValidUTF8(msg, "\uFFFD")
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func (t *Tracker) transition(ctx context.Context, upd domain.ScrapeLogUpdate) error {
	if err := ValidateTransition(t.status, upd.Status); err != nil {
		return err
	}

	if upd.Status.IsTerminal() {
		completedAt := t.now().UTC()
		upd.CompletedAt = &completedAt
	}

	if err := t.repo.Transition(ctx, t.id, t.status, upd); err != nil {
		return fmt.Errorf("scrape log %d to %s: %w", t.id, upd.Status, err)
	}

	t.status = upd.Status
	return nil
}
