package reconcile

import (
	"context"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
)

// ImagePolicy writes a vehicle's scraped image list to storage.
type ImagePolicy interface {
	Apply(ctx context.Context, w ImageWriter, vehicleID int64, urls []string) error
}

// FullReplace deletes every stored image of the vehicle and inserts the
// scraped list at positions 0..N-1.
type FullReplace struct{}

// Apply implements ImagePolicy.
func (FullReplace) Apply(ctx context.Context, w ImageWriter, vehicleID int64, urls []string) error {
	if err := w.DeleteImages(ctx, vehicleID); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	if len(urls) == 0 {
		return nil
	}
	if err := w.InsertImages(ctx, domain.BuildImages(vehicleID, urls)); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	return nil
}
