//go:build integration

package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/database"
	"github.com/JonahHouse/ElPaseoAuto/internal/database/migrations"
	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/JonahHouse/ElPaseoAuto/internal/reconcile"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresStartupTimeout = 60 * time.Second

// startPostgres runs a throwaway Postgres container with the schema applied.
func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("inventory_test"),
		postgres.WithUsername("inventory"),
		postgres.WithPassword("inventory"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(postgresStartupTimeout),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version, err := migrations.Up(db.DB)
	require.NoError(t, err)
	require.Equal(t, uint(1), version)

	return db
}

func scraped(vin string, images ...string) domain.ScrapedVehicle {
	return domain.ScrapedVehicle{
		VIN:       vin,
		Year:      2021,
		Make:      "Porsche",
		Model:     "911",
		Images:    images,
		SourceURL: "https://dealer.example.com/inventory/" + vin,
	}
}

func TestPostgres_ReconcileLifecycle(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := database.NewVehicleRepository(db)
	rec := reconcile.New(repo, nil)

	first, err := rec.Sync(ctx, []domain.ScrapedVehicle{
		scraped("VINA", "a1.jpg", "a2.jpg"),
		scraped("VINB", "b1.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Added: 2}, first)

	_, err = db.ExecContext(ctx, `UPDATE vehicles SET is_featured = TRUE WHERE vin = 'VINA'`)
	require.NoError(t, err)

	second, err := rec.Sync(ctx, []domain.ScrapedVehicle{scraped("VINA", "a3.jpg")})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Updated: 1, Removed: 1}, second)

	a, err := repo.GetByVIN(ctx, "vina")
	require.NoError(t, err)
	assert.True(t, a.IsFeatured)
	assert.False(t, a.IsSold)
	require.Len(t, a.Images, 1)
	assert.Equal(t, "a3.jpg", a.Images[0].URL)
	assert.True(t, a.Images[0].IsPrimary)

	b, err := repo.GetByVIN(ctx, "VINB")
	require.NoError(t, err)
	assert.True(t, b.IsSold)

	third, err := rec.Sync(ctx, []domain.ScrapedVehicle{scraped("VINA", "a3.jpg"), scraped("VINB")})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Updated: 2}, third)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.InventoryStats{Total: 2, Available: 2, Featured: 1, Sold: 0}, stats)
}

func TestPostgres_ScrapeLogLifecycle(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	repo := database.NewScrapeLogRepository(db)

	tracker, err := joblog.Start(ctx, repo, domain.TriggerAPI, nil)
	require.NoError(t, err)
	require.NoError(t, tracker.BeginSync(ctx, 3, 1))
	require.NoError(t, tracker.Complete(ctx, domain.SyncResult{Added: 1, Updated: 2}))

	entry, err := repo.GetByID(ctx, tracker.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeStatusCompleted, entry.Status)
	assert.NotNil(t, entry.CompletedAt)
	assert.Equal(t, 3, *entry.VehiclesFound)
	assert.Equal(t, 1, *entry.VehiclesSkipped)
	assert.Equal(t, 2, *entry.VehiclesUpdated)

	err = repo.Transition(ctx, tracker.ID(), domain.ScrapeStatusSyncing, domain.ScrapeLogUpdate{
		Status: domain.ScrapeStatusFailed,
	})
	require.ErrorIs(t, err, joblog.ErrStaleStatus)

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.TriggerAPI, recent[0].Trigger)
}
