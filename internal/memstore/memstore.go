// Package memstore is an in-memory implementation of the inventory and
// scrape log stores. Transactions work on a copy of the data that replaces
// the live copy only on commit.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/joblog"
	"github.com/JonahHouse/ElPaseoAuto/internal/reconcile"
)

// Fault lets tests fail a write. op is one of "insert_vehicle",
// "update_vehicle", "mark_sold", "delete_images" or "insert_images".
type Fault func(op string, vehicleID int64) error

type data struct {
	vehicles map[string]*domain.Vehicle
	images   map[int64][]domain.VehicleImage
	nextVeh  int64
	nextImg  int64
}

func (d *data) clone() *data {
	c := &data{
		vehicles: make(map[string]*domain.Vehicle, len(d.vehicles)),
		images:   make(map[int64][]domain.VehicleImage, len(d.images)),
		nextVeh:  d.nextVeh,
		nextImg:  d.nextImg,
	}
	for vin, v := range d.vehicles {
		cp := *v
		c.vehicles[vin] = &cp
	}
	for id, imgs := range d.images {
		c.images[id] = slices.Clone(imgs)
	}
	return c
}

// Store holds vehicles, images and scrape logs in memory.
type Store struct {
	mu      sync.Mutex
	data    *data
	logs    []domain.ScrapeLog
	nextLog int64
	fault   Fault
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data: &data{
			vehicles: map[string]*domain.Vehicle{},
			images:   map[int64][]domain.VehicleImage{},
		},
		now: time.Now,
	}
}

// SetFault installs a write fault hook. Pass nil to clear it.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Seed inserts a vehicle as-is, assigning an id. Images are kept in order.
func (s *Store) Seed(v domain.Vehicle) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.nextVeh++
	v.ID = s.data.nextVeh
	v.VIN = domain.NormalizeVIN(v.VIN)
	images := domain.BuildImages(v.ID, imageURLs(v.Images))
	v.Images = nil
	s.data.vehicles[v.VIN] = &v
	for i := range images {
		s.data.nextImg++
		images[i].ID = s.data.nextImg
	}
	s.data.images[v.ID] = images
	return v.ID
}

func imageURLs(images []domain.VehicleImage) []string {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	return urls
}

// ListInventoryStates implements reconcile.Store.
func (s *Store) ListInventoryStates(context.Context) ([]domain.InventoryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]domain.InventoryState, 0, len(s.data.vehicles))
	for _, v := range s.data.vehicles {
		states = append(states, domain.InventoryState{ID: v.ID, VIN: v.VIN, IsSold: v.IsSold})
	}
	slices.SortFunc(states, func(a, b domain.InventoryState) int { return cmp.Compare(a.ID, b.ID) })
	return states, nil
}

// WithinTx implements reconcile.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(tx reconcile.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &storeTx{data: s.data.clone(), fault: s.fault, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// GetByVIN returns a vehicle with its images ordered by position.
func (s *Store) GetByVIN(_ context.Context, vin string) (*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data.vehicles[domain.NormalizeVIN(vin)]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", vin, domain.ErrNotFound)
	}
	cp := *v
	cp.Images = slices.Clone(s.data.images[v.ID])
	slices.SortFunc(cp.Images, func(a, b domain.VehicleImage) int { return cmp.Compare(a.Position, b.Position) })
	return &cp, nil
}

// Stats implements the dashboard counters.
func (s *Store) Stats(context.Context) (*domain.InventoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.InventoryStats
	for _, v := range s.data.vehicles {
		stats.Total++
		if v.IsSold {
			stats.Sold++
			continue
		}
		stats.Available++
		if v.IsFeatured {
			stats.Featured++
		}
	}
	return &stats, nil
}

// Create implements joblog.Repository.
func (s *Store) Create(_ context.Context, entry *domain.ScrapeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLog++
	entry.ID = s.nextLog
	s.logs = append(s.logs, *entry)
	return nil
}

// Transition implements joblog.Repository.
func (s *Store) Transition(_ context.Context, id int64, from domain.ScrapeStatus, upd domain.ScrapeLogUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.logs {
		entry := &s.logs[i]
		if entry.ID != id {
			continue
		}
		if entry.Status != from {
			return joblog.ErrStaleStatus
		}
		applyUpdate(entry, upd)
		return nil
	}
	return fmt.Errorf("scrape log %d: %w", id, domain.ErrNotFound)
}

func applyUpdate(entry *domain.ScrapeLog, upd domain.ScrapeLogUpdate) {
	entry.Status = upd.Status
	if upd.CompletedAt != nil {
		entry.CompletedAt = upd.CompletedAt
	}
	if upd.VehiclesFound != nil {
		entry.VehiclesFound = upd.VehiclesFound
	}
	if upd.VehiclesSkipped != nil {
		entry.VehiclesSkipped = upd.VehiclesSkipped
	}
	if upd.VehiclesAdded != nil {
		entry.VehiclesAdded = upd.VehiclesAdded
	}
	if upd.VehiclesUpdated != nil {
		entry.VehiclesUpdated = upd.VehiclesUpdated
	}
	if upd.VehiclesRemoved != nil {
		entry.VehiclesRemoved = upd.VehiclesRemoved
	}
	if upd.ErrorMessage != nil {
		entry.ErrorMessage = upd.ErrorMessage
	}
}

// GetByID returns one scrape log.
func (s *Store) GetByID(_ context.Context, id int64) (*domain.ScrapeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.logs {
		if entry.ID == id {
			cp := entry
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("scrape log %d: %w", id, domain.ErrNotFound)
}

// ListRecent returns up to limit logs, newest first.
func (s *Store) ListRecent(_ context.Context, limit int) ([]domain.ScrapeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.logs)
	slices.SortStableFunc(out, func(a, b domain.ScrapeLog) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
