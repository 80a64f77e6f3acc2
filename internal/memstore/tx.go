package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
)

type storeTx struct {
	data  *data
	fault Fault
	now   func() time.Time
}

func (t *storeTx) check(op string, vehicleID int64) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op, vehicleID)
}

func (t *storeTx) InsertVehicle(_ context.Context, sv *domain.ScrapedVehicle) (int64, error) {
	if _, exists := t.data.vehicles[sv.VIN]; exists {
		return 0, fmt.Errorf("duplicate vin %s", sv.VIN)
	}

	t.data.nextVeh++
	v := &domain.Vehicle{ID: t.data.nextVeh, CreatedAt: t.now().UTC()}
	applyScraped(v, sv, t.now())
	if err := t.check("insert_vehicle", v.ID); err != nil {
		return 0, err
	}

	t.data.vehicles[v.VIN] = v
	return v.ID, nil
}

func (t *storeTx) UpdateVehicle(_ context.Context, sv *domain.ScrapedVehicle) (int64, error) {
	v, ok := t.data.vehicles[sv.VIN]
	if !ok {
		return 0, fmt.Errorf("vehicle %s: %w", sv.VIN, domain.ErrNotFound)
	}
	if err := t.check("update_vehicle", v.ID); err != nil {
		return 0, err
	}

	applyScraped(v, sv, t.now())
	return v.ID, nil
}

func (t *storeTx) MarkSold(_ context.Context, vin string) (bool, error) {
	v, ok := t.data.vehicles[vin]
	if !ok || v.IsSold {
		return false, nil
	}
	if err := t.check("mark_sold", v.ID); err != nil {
		return false, err
	}

	v.IsSold = true
	v.UpdatedAt = t.now().UTC()
	return true, nil
}

func (t *storeTx) DeleteImages(_ context.Context, vehicleID int64) error {
	if err := t.check("delete_images", vehicleID); err != nil {
		return err
	}
	delete(t.data.images, vehicleID)
	return nil
}

func (t *storeTx) InsertImages(_ context.Context, images []domain.VehicleImage) error {
	for _, img := range images {
		if err := t.check("insert_images", img.VehicleID); err != nil {
			return err
		}
		for _, existing := range t.data.images[img.VehicleID] {
			if existing.Position == img.Position {
				return fmt.Errorf("duplicate image position %d for vehicle %d", img.Position, img.VehicleID)
			}
		}
		t.data.nextImg++
		img.ID = t.data.nextImg
		t.data.images[img.VehicleID] = append(t.data.images[img.VehicleID], img)
	}
	return nil
}

// applyScraped copies the scraped-owned fields and clears is_sold.
// is_featured is left alone.
func applyScraped(v *domain.Vehicle, sv *domain.ScrapedVehicle, now time.Time) {
	v.VIN = sv.VIN
	v.StockNumber = sv.StockNumber
	v.Year = sv.Year
	v.Make = sv.Make
	v.Model = sv.Model
	v.Trim = sv.Trim
	v.Price = sv.Price
	v.Mileage = sv.Mileage
	v.ExteriorColor = sv.ExteriorColor
	v.InteriorColor = sv.InteriorColor
	v.Transmission = sv.Transmission
	v.FuelType = sv.FuelType
	v.BodyStyle = sv.BodyStyle
	v.Drivetrain = sv.Drivetrain
	v.Engine = sv.Engine
	v.ShortDescription = sv.ShortDescription
	v.LongDescription = sv.LongDescription
	v.Features = domain.StringArray(sv.Features)
	sourceURL := sv.SourceURL
	v.SourceURL = &sourceURL
	v.IsSold = false
	v.UpdatedAt = now.UTC()
}
