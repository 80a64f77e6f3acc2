package database

import (
	"context"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/jmoiron/sqlx"
)

// vehicleTx implements reconcile.Tx on a Postgres transaction.
type vehicleTx struct {
	tx *sqlx.Tx
}

// scrapedArgs returns the VIN followed by every scraped-owned column in
// the order used by insertVehicleQuery and updateVehicleQuery.
func scrapedArgs(v *domain.ScrapedVehicle) []any {
	return []any{
		v.VIN,
		v.StockNumber,
		v.Year,
		v.Make,
		v.Model,
		v.Trim,
		v.Price,
		v.Mileage,
		v.ExteriorColor,
		v.InteriorColor,
		v.Transmission,
		v.FuelType,
		v.BodyStyle,
		v.Drivetrain,
		v.Engine,
		v.ShortDescription,
		v.LongDescription,
		domain.StringArray(v.Features),
		v.SourceURL,
	}
}

const insertVehicleQuery = `
	INSERT INTO vehicles (
		vin, stock_number, year, make, model, trim, price, mileage,
		exterior_color, interior_color, transmission, fuel_type, body_style,
		drivetrain, engine, short_description, long_description, features, source_url,
		is_sold, is_featured
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, FALSE, FALSE)
	RETURNING id
`

// is_featured is owned by the admin tools and deliberately absent here.
const updateVehicleQuery = `
	UPDATE vehicles SET
		stock_number = $2,
		year = $3,
		make = $4,
		model = $5,
		trim = $6,
		price = $7,
		mileage = $8,
		exterior_color = $9,
		interior_color = $10,
		transmission = $11,
		fuel_type = $12,
		body_style = $13,
		drivetrain = $14,
		engine = $15,
		short_description = $16,
		long_description = $17,
		features = $18,
		source_url = $19,
		is_sold = FALSE,
		updated_at = NOW()
	WHERE vin = $1
	RETURNING id
`

func (t *vehicleTx) InsertVehicle(ctx context.Context, v *domain.ScrapedVehicle) (int64, error) {
	var id int64
	if err := t.tx.QueryRowxContext(ctx, insertVehicleQuery, scrapedArgs(v)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert vehicle: %w", err)
	}
	return id, nil
}

func (t *vehicleTx) UpdateVehicle(ctx context.Context, v *domain.ScrapedVehicle) (int64, error) {
	var id int64
	if err := t.tx.QueryRowxContext(ctx, updateVehicleQuery, scrapedArgs(v)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("update vehicle: %w", err)
	}
	return id, nil
}

func (t *vehicleTx) MarkSold(ctx context.Context, vin string) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE vehicles SET is_sold = TRUE, updated_at = NOW() WHERE vin = $1 AND is_sold = FALSE`,
		vin,
	)
	if err != nil {
		return false, fmt.Errorf("mark sold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark sold rows affected: %w", err)
	}
	return rows > 0, nil
}

func (t *vehicleTx) DeleteImages(ctx context.Context, vehicleID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM vehicle_images WHERE vehicle_id = $1`, vehicleID); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}

func (t *vehicleTx) InsertImages(ctx context.Context, images []domain.VehicleImage) error {
	if len(images) == 0 {
		return nil
	}

	query := `
		INSERT INTO vehicle_images (vehicle_id, url, position, is_primary)
		VALUES (:vehicle_id, :url, :position, :is_primary)
	`
	if _, err := t.tx.NamedExecContext(ctx, query, images); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}
