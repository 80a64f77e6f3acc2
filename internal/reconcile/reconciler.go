// Package reconcile applies a scraped inventory snapshot to the persisted
// catalog, keyed by VIN.
package reconcile

import (
	"context"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
)

// Reconciler diffs a scrape against the store. Vehicles present in the scrape
// are inserted or updated, persisted vehicles missing from it are marked sold.
// Nothing is ever deleted.
type Reconciler struct {
	store  Store
	images ImagePolicy
	log    logger.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithImagePolicy replaces the FullReplace image policy.
func WithImagePolicy(p ImagePolicy) Option {
	return func(r *Reconciler) {
		r.images = p
	}
}

// New creates a Reconciler over store.
func New(store Store, log logger.Logger, opts ...Option) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Reconciler{store: store, images: FullReplace{}, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync applies vehicles to the store. Each vehicle and its images are written
// in their own transaction, so on error the returned counts describe what was
// committed before the failure.
func (r *Reconciler) Sync(ctx context.Context, vehicles []domain.ScrapedVehicle) (domain.SyncResult, error) {
	var result domain.SyncResult

	states, err := r.store.ListInventoryStates(ctx)
	if err != nil {
		return result, fmt.Errorf("load inventory: %w", err)
	}

	existing := make(map[string]domain.InventoryState, len(states))
	for _, s := range states {
		existing[domain.NormalizeVIN(s.VIN)] = s
	}

	scraped := r.dedupe(vehicles)
	seen := make(map[string]struct{}, len(scraped))

	for i := range scraped {
		v := &scraped[i]
		seen[v.VIN] = struct{}{}

		if _, ok := existing[v.VIN]; ok {
			if updateErr := r.update(ctx, v); updateErr != nil {
				return result, fmt.Errorf("update vehicle %s: %w", v.VIN, updateErr)
			}
			result.Updated++
			continue
		}

		if insertErr := r.insert(ctx, v); insertErr != nil {
			return result, fmt.Errorf("insert vehicle %s: %w", v.VIN, insertErr)
		}
		result.Added++
	}

	for _, state := range states {
		vin := domain.NormalizeVIN(state.VIN)
		if _, ok := seen[vin]; ok || state.IsSold {
			continue
		}

		marked, markErr := r.markSold(ctx, state.VIN)
		if markErr != nil {
			return result, fmt.Errorf("mark vehicle %s sold: %w", vin, markErr)
		}
		if marked {
			result.Removed++
			r.log.Info("Vehicle marked sold", logger.String("vin", vin))
		}
	}

	r.log.Info("Inventory reconciled",
		logger.Int("added", result.Added),
		logger.Int("updated", result.Updated),
		logger.Int("removed", result.Removed),
	)

	return result, nil
}

// dedupe normalizes VINs, drops records without one and keeps the last record
// for a repeated VIN at the position of its first occurrence.
func (r *Reconciler) dedupe(vehicles []domain.ScrapedVehicle) []domain.ScrapedVehicle {
	out := make([]domain.ScrapedVehicle, 0, len(vehicles))
	index := make(map[string]int, len(vehicles))

	for _, v := range vehicles {
		v.VIN = domain.NormalizeVIN(v.VIN)
		if v.VIN == "" {
			r.log.Warn("Dropping scraped vehicle without VIN", logger.String("url", v.SourceURL))
			continue
		}
		if i, dup := index[v.VIN]; dup {
			r.log.Warn("Duplicate VIN in scrape, keeping last record",
				logger.String("vin", v.VIN),
				logger.String("url", v.SourceURL),
			)
			out[i] = v
			continue
		}
		index[v.VIN] = len(out)
		out = append(out, v)
	}

	return out
}

func (r *Reconciler) update(ctx context.Context, v *domain.ScrapedVehicle) error {
	return r.store.WithinTx(ctx, func(tx Tx) error {
		id, err := tx.UpdateVehicle(ctx, v)
		if err != nil {
			return err
		}
		return r.images.Apply(ctx, tx, id, v.Images)
	})
}

func (r *Reconciler) insert(ctx context.Context, v *domain.ScrapedVehicle) error {
	return r.store.WithinTx(ctx, func(tx Tx) error {
		id, err := tx.InsertVehicle(ctx, v)
		if err != nil {
			return err
		}
		return r.images.Apply(ctx, tx, id, v.Images)
	})
}

func (r *Reconciler) markSold(ctx context.Context, vin string) (bool, error) {
	var marked bool
	err := r.store.WithinTx(ctx, func(tx Tx) error {
		var markErr error
		marked, markErr = tx.MarkSold(ctx, vin)
		return markErr
	})
	return marked, err
}
