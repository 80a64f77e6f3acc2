package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/reconcile"
	"github.com/jmoiron/sqlx"
)

const vehicleSelectColumns = `id, vin, stock_number, year, make, model, trim, price, mileage,
	exterior_color, interior_color, transmission, fuel_type, body_style, drivetrain, engine,
	short_description, long_description, features, source_url, is_featured, is_sold,
	created_at, updated_at`

// VehicleRepository stores vehicles and their images.
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// ListInventoryStates returns id, VIN and sold flag of every vehicle.
func (r *VehicleRepository) ListInventoryStates(ctx context.Context) ([]domain.InventoryState, error) {
	var states []domain.InventoryState
	if err := r.db.SelectContext(ctx, &states, `SELECT id, vin, is_sold FROM vehicles ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list inventory states: %w", err)
	}
	return states, nil
}

// WithinTx runs fn in a transaction that commits only if fn returns nil.
func (r *VehicleRepository) WithinTx(ctx context.Context, fn func(tx reconcile.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if fnErr := fn(&vehicleTx{tx: tx}); fnErr != nil {
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}
	return nil
}

// GetByVIN returns the vehicle with its images ordered by position.
func (r *VehicleRepository) GetByVIN(ctx context.Context, vin string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	query := `SELECT ` + vehicleSelectColumns + ` FROM vehicles WHERE vin = $1`
	if err := r.db.GetContext(ctx, &v, query, domain.NormalizeVIN(vin)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", vin, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}

	v.Images = []domain.VehicleImage{}
	imagesQuery := `
		SELECT id, vehicle_id, url, position, is_primary
		FROM vehicle_images
		WHERE vehicle_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &v.Images, imagesQuery, v.ID); err != nil {
		return nil, fmt.Errorf("list vehicle images: %w", err)
	}

	return &v, nil
}

// Stats counts vehicles for the admin dashboard.
func (r *VehicleRepository) Stats(ctx context.Context) (*domain.InventoryStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT is_sold) AS available,
			COUNT(*) FILTER (WHERE is_featured AND NOT is_sold) AS featured,
			COUNT(*) FILTER (WHERE is_sold) AS sold
		FROM vehicles
	`

	var stats domain.InventoryStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}
	return &stats, nil
}

// Ping checks database connectivity.
func (r *VehicleRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
