// Package scraper drives one pass over the dealer site: the inventory index
// first, then every vehicle detail page in order.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/render"
	"github.com/JonahHouse/ElPaseoAuto/internal/retry"
	"golang.org/x/time/rate"
)

// Page kinds reported to the Recorder.
const (
	PageListing = "listing"
	PageDetail  = "detail"
)

// ErrListingFetch wraps a failure to load the inventory index page.
var ErrListingFetch = errors.New("fetch listing page")

// ListingParser extracts listing references from the index page.
type ListingParser interface {
	Extract(html string) ([]domain.ListingRef, error)
}

// DetailParser extracts one vehicle from its detail page.
type DetailParser interface {
	Extract(ref domain.ListingRef, html string) (*domain.ScrapedVehicle, *domain.Skip)
}

// Recorder observes page fetches and skips. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ObserveFetch(page string, duration time.Duration, err error)
	IncSkipped(reason domain.SkipReason)
}

// Options configures an Orchestrator.
type Options struct {
	// IndexURL is the absolute URL of the inventory index page.
	IndexURL string
	// RequestDelay is the minimum spacing between two page fetches.
	RequestDelay time.Duration
	// ListingRetry controls retries of the index page fetch.
	ListingRetry retry.Config
}

// Result is the outcome of one scrape pass.
type Result struct {
	Vehicles     []domain.ScrapedVehicle
	ListingsSeen int
	Skipped      []domain.Skip
}

// Orchestrator runs the listing fetch and the sequential detail traversal.
type Orchestrator struct {
	renderer render.Renderer
	listings ListingParser
	details  DetailParser
	recorder Recorder
	opts     Options
	log      logger.Logger
}

// NewOrchestrator creates an Orchestrator. recorder may be nil.
func NewOrchestrator(
	renderer render.Renderer,
	listings ListingParser,
	details DetailParser,
	recorder Recorder,
	opts Options,
	log logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Orchestrator{
		renderer: renderer,
		listings: listings,
		details:  details,
		recorder: recorder,
		opts:     opts,
		log:      log,
	}
}

// Run scrapes the whole inventory. Only a listing page failure or context
// cancellation returns an error; failing detail pages become skips.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	limiter := o.newLimiter()

	refs, err := o.fetchListings(ctx, limiter)
	if err != nil {
		return nil, err
	}

	o.log.Info("Inventory listings found",
		logger.String("url", o.opts.IndexURL),
		logger.Int("listings", len(refs)),
	)

	result := &Result{
		Vehicles:     make([]domain.ScrapedVehicle, 0, len(refs)),
		ListingsSeen: len(refs),
	}

	for i, ref := range refs {
		if waitErr := limiter.Wait(ctx); waitErr != nil {
			return nil, fmt.Errorf("scrape interrupted after %d of %d listings: %w", i, len(refs), waitErr)
		}

		vehicle, skip := o.scrapeDetail(ctx, ref)
		if skip != nil {
			o.recorder.IncSkipped(skip.Reason)
			o.log.Warn("Skipping listing",
				logger.String("url", skip.ListingURL),
				logger.String("stock_number", skip.StockNumber),
				logger.String("reason", string(skip.Reason)),
				logger.String("detail", skip.Detail),
			)
			result.Skipped = append(result.Skipped, *skip)
			continue
		}

		o.log.Debug("Vehicle scraped",
			logger.String("vin", vehicle.VIN),
			logger.Int("year", vehicle.Year),
			logger.String("make", vehicle.Make),
			logger.String("model", vehicle.Model),
			logger.Int("images", len(vehicle.Images)),
		)
		result.Vehicles = append(result.Vehicles, *vehicle)
	}

	o.log.Info("Scrape finished",
		logger.Int("listings", result.ListingsSeen),
		logger.Int("vehicles", len(result.Vehicles)),
		logger.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}

func (o *Orchestrator) newLimiter() *rate.Limiter {
	if o.opts.RequestDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(o.opts.RequestDelay), 1)
}

func (o *Orchestrator) fetchListings(ctx context.Context, limiter *rate.Limiter) ([]domain.ListingRef, error) {
	retryCfg := o.opts.ListingRetry
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		o.log.Warn("Listing page fetch failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	var html string
	err := retry.Do(ctx, retryCfg, func() error {
		if waitErr := limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		start := time.Now()
		page, renderErr := o.renderer.Render(ctx, o.opts.IndexURL)
		o.recorder.ObserveFetch(PageListing, time.Since(start), renderErr)
		if renderErr != nil {
			return renderErr
		}
		html = page
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListingFetch, o.opts.IndexURL, err)
	}

	refs, err := o.listings.Extract(html)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrListingFetch, o.opts.IndexURL, err)
	}

	return refs, nil
}

func (o *Orchestrator) scrapeDetail(ctx context.Context, ref domain.ListingRef) (*domain.ScrapedVehicle, *domain.Skip) {
	start := time.Now()
	html, err := o.renderer.Render(ctx, ref.DetailURL)
	o.recorder.ObserveFetch(PageDetail, time.Since(start), err)
	if err != nil {
		return nil, &domain.Skip{
			ListingURL:  ref.DetailURL,
			StockNumber: ref.StockNumber,
			Reason:      domain.SkipFetchFailed,
			Detail:      err.Error(),
		}
	}

	vehicle, skip := o.extractDetail(ref, html)
	if vehicle == nil && skip == nil {
		skip = &domain.Skip{
			ListingURL:  ref.DetailURL,
			StockNumber: ref.StockNumber,
			Reason:      domain.SkipParseFailed,
			Detail:      "extractor returned no vehicle",
		}
	}
	return vehicle, skip
}

// extractDetail runs the detail parser and turns a panic on malformed markup
// into a parse_failed skip so one page cannot abort the run.
func (o *Orchestrator) extractDetail(ref domain.ListingRef, html string) (vehicle *domain.ScrapedVehicle, skip *domain.Skip) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Warn("Recovered from panic while parsing detail page",
				logger.String("url", ref.DetailURL),
				logger.Any("panic", r),
			)
			vehicle = nil
			skip = &domain.Skip{
				ListingURL:  ref.DetailURL,
				StockNumber: ref.StockNumber,
				Reason:      domain.SkipParseFailed,
				Detail:      fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	return o.details.Extract(ref, html)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFetch(string, time.Duration, error) {}
func (nopRecorder) IncSkipped(domain.SkipReason) {}
