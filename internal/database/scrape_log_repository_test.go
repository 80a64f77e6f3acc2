package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/JonahHouse/ElPaseoAuto/internal/database"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scrapeLogColumns = []string{
	"id", "started_at", "completed_at", "status", "triggered_by", "vehicles_found",
	"vehicles_skipped", "vehicles_added", "vehicles_updated", "vehicles_removed", "error_message",
}

func TestScrapeLogRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)
	startedAt := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO scrape_logs").
		WithArgs(startedAt, "running", "scheduler").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	entry := &domain.ScrapeLog{StartedAt: startedAt, Status: domain.ScrapeStatusRunning, Trigger: domain.TriggerScheduler}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, int64(42), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeLogRepository_Transition(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)

	found, skipped := 12, 1
	mock.ExpectExec("UPDATE scrape_logs SET").
		WithArgs(42, "running", "syncing", nil, 12, 1, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), 42, domain.ScrapeStatusRunning, domain.ScrapeLogUpdate{
		Status:          domain.ScrapeStatusSyncing,
		VehiclesFound:   &found,
		VehiclesSkipped: &skipped,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeLogRepository_Transition_Stale(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)

	mock.ExpectExec("UPDATE scrape_logs SET").
		WithArgs(42, "syncing", "completed", sqlmock.AnyArg(), nil, nil, 1, 2, 3, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	completedAt := time.Now()
	added, updated, removed := 1, 2, 3
	err := repo.Transition(context.Background(), 42, domain.ScrapeStatusSyncing, domain.ScrapeLogUpdate{
		Status:          domain.ScrapeStatusCompleted,
		CompletedAt:     &completedAt,
		VehiclesAdded:   &added,
		VehiclesUpdated: &updated,
		VehiclesRemoved: &removed,
	})
	require.ErrorIs(t, err, joblog.ErrStaleStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeLogRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)
	startedAt := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	completedAt := startedAt.Add(4 * time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM scrape_logs WHERE id = \\$1").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(scrapeLogColumns).
			AddRow(42, startedAt, completedAt, "failed", "api", 10, 0, nil, nil, nil, "listing page unreachable"))

	entry, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeStatusFailed, entry.Status)
	assert.Equal(t, domain.TriggerAPI, entry.Trigger)
	require.NotNil(t, entry.CompletedAt)
	assert.Equal(t, completedAt, *entry.CompletedAt)
	assert.Nil(t, entry.VehiclesAdded)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "listing page unreachable", *entry.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeLogRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM scrape_logs WHERE id = \\$1").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(scrapeLogColumns))

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScrapeLogRepository_ListRecent(t *testing.T) {
	db, mock := newMock(t)
	repo := database.NewScrapeLogRepository(db)
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM scrape_logs ORDER BY started_at DESC").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(scrapeLogColumns).
			AddRow(2, now, nil, "running", "scheduler", nil, nil, nil, nil, nil, nil).
			AddRow(1, now.Add(-time.Hour), now.Add(-50*time.Minute), "completed", "api", 5, 0, 1, 4, 0, nil))

	entries, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, domain.ScrapeStatusRunning, entries[0].Status)
	assert.Equal(t, 4, *entries[1].VehiclesUpdated)
	require.NoError(t, mock.ExpectationsWereMet())
}
