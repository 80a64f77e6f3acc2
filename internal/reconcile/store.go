package reconcile

import (
	"context"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
)

// Store is the persistence the reconciler needs.
type Store interface {
	// ListInventoryStates returns every persisted vehicle's id, VIN and sold flag.
	ListInventoryStates(ctx context.Context) ([]domain.InventoryState, error)
	// WithinTx runs fn in one transaction, committing only when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes available inside a Store transaction.
type Tx interface {
	ImageWriter

	// InsertVehicle creates an unsold vehicle row and returns its id.
	InsertVehicle(ctx context.Context, v *domain.ScrapedVehicle) (int64, error)
	// UpdateVehicle overwrites the scraped-owned fields of the row with v.VIN,
	// clears is_sold and returns the row id.
	UpdateVehicle(ctx context.Context, v *domain.ScrapedVehicle) (int64, error)
	// MarkSold flags an unsold vehicle as sold. It reports false when the
	// vehicle was already sold or does not exist.
	MarkSold(ctx context.Context, vin string) (bool, error)
}

// ImageWriter mutates a vehicle's image rows.
type ImageWriter interface {
	DeleteImages(ctx context.Context, vehicleID int64) error
	InsertImages(ctx context.Context, images []domain.VehicleImage) error
}
