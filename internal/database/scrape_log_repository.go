package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/jmoiron/sqlx"
)

const scrapeLogSelectColumns = `id, started_at, completed_at, status, triggered_by, vehicles_found,
	vehicles_skipped, vehicles_added, vehicles_updated, vehicles_removed, error_message`

// ScrapeLogRepository stores the audit trail of sync runs.
type ScrapeLogRepository struct {
	db *sqlx.DB
}

// NewScrapeLogRepository creates a new scrape log repository.
func NewScrapeLogRepository(db *sqlx.DB) *ScrapeLogRepository {
	return &ScrapeLogRepository{db: db}
}

// Create inserts a log and sets its ID.
func (r *ScrapeLogRepository) Create(ctx context.Context, entry *domain.ScrapeLog) error {
	query := `
		INSERT INTO scrape_logs (started_at, status, triggered_by)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowxContext(ctx, query, entry.StartedAt, entry.Status, entry.Trigger).Scan(&entry.ID); err != nil {
		return fmt.Errorf("create scrape log: %w", err)
	}
	return nil
}

// Transition updates a log that is still in status from. Nil fields in upd
// keep their stored values.
func (r *ScrapeLogRepository) Transition(
	ctx context.Context,
	id int64,
	from domain.ScrapeStatus,
	upd domain.ScrapeLogUpdate,
) error {
	query := `
		UPDATE scrape_logs SET
			status = $3,
			completed_at = COALESCE($4, completed_at),
			vehicles_found = COALESCE($5, vehicles_found),
			vehicles_skipped = COALESCE($6, vehicles_skipped),
			vehicles_added = COALESCE($7, vehicles_added),
			vehicles_updated = COALESCE($8, vehicles_updated),
			vehicles_removed = COALESCE($9, vehicles_removed),
			error_message = COALESCE($10, error_message)
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		from,
		upd.Status,
		upd.CompletedAt,
		upd.VehiclesFound,
		upd.VehiclesSkipped,
		upd.VehiclesAdded,
		upd.VehiclesUpdated,
		upd.VehiclesRemoved,
		upd.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("update scrape log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update scrape log rows affected: %w", err)
	}
	if rows == 0 {
		return joblog.ErrStaleStatus
	}
	return nil
}

// GetByID returns one log.
func (r *ScrapeLogRepository) GetByID(ctx context.Context, id int64) (*domain.ScrapeLog, error) {
	var entry domain.ScrapeLog
	query := `SELECT ` + scrapeLogSelectColumns + ` FROM scrape_logs WHERE id = $1`
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scrape log %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get scrape log: %w", err)
	}
	return &entry, nil
}

// ListRecent returns up to limit logs, newest first.
func (r *ScrapeLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.ScrapeLog, error) {
	entries := []domain.ScrapeLog{}
	query := `SELECT ` + scrapeLogSelectColumns + ` FROM scrape_logs ORDER BY started_at DESC, id DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list scrape logs: %w", err)
	}
	return entries, nil
}
