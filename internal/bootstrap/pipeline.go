package bootstrap

import (
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/coordination"
	"github.com/JonahHouse/ElPaseoAuto/internal/database"
	"github.com/JonahHouse/ElPaseoAuto/internal/events"
	"github.com/JonahHouse/ElPaseoAuto/internal/extract"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/reconcile"
	"github.com/JonahHouse/ElPaseoAuto/internal/render"
	"github.com/JonahHouse/ElPaseoAuto/internal/retry"
	"github.com/JonahHouse/ElPaseoAuto/internal/scraper"
	"github.com/JonahHouse/ElPaseoAuto/internal/telemetry"
	"github.com/jmoiron/sqlx"
)

// Pipeline holds the assembled sync components.
type Pipeline struct {
	Runner    *job.Runner
	Vehicles  *database.VehicleRepository
	Logs      *database.ScrapeLogRepository
	Telemetry *telemetry.Provider

	closeRenderer func() error
}

// Close releases the renderer, shutting down the browser if one was started.
func (p *Pipeline) Close() error {
	if p.closeRenderer == nil {
		return nil
	}
	return p.closeRenderer()
}

// SetupPipeline wires renderer, extractors, orchestrator, reconciler and
// runner against db.
func SetupPipeline(
	cfg *config.Config,
	db *sqlx.DB,
	locker coordination.Locker,
	publisher *events.Publisher,
	provider *telemetry.Provider,
	log logger.Logger,
) (*Pipeline, error) {
	renderer, closeRenderer := SetupRenderer(cfg, log)

	listings, err := extract.NewListingExtractor(cfg.Scraper.BaseURL)
	if err != nil {
		_ = closeRenderer()
		return nil, fmt.Errorf("create listing extractor: %w", err)
	}

	orchestrator := scraper.NewOrchestrator(
		renderer,
		listings,
		extract.NewDetailExtractor(log),
		provider,
		scraper.Options{
			IndexURL:     cfg.Scraper.IndexURL(),
			RequestDelay: cfg.Scraper.RequestDelay,
			ListingRetry: retry.Config{MaxAttempts: cfg.Scraper.ListingRetries},
		},
		log.With(logger.String("component", "scraper")),
	)

	vehicles := database.NewVehicleRepository(db)
	logs := database.NewScrapeLogRepository(db)

	runner := job.NewRunner(job.Deps{
		Locker:     locker,
		Logs:       logs,
		Scraper:    orchestrator,
		Reconciler: reconcile.New(vehicles, log.With(logger.String("component", "reconcile"))),
		Publisher:  publisher,
		Recorder:   provider,
		Tracer:     provider.Tracer,
		Logger:     log.With(logger.String("component", "runner")),
	})

	return &Pipeline{
		Runner:        runner,
		Vehicles:      vehicles,
		Logs:          logs,
		Telemetry:     provider,
		closeRenderer: closeRenderer,
	}, nil
}

// SetupRenderer builds the configured page renderer and its close function.
func SetupRenderer(cfg *config.Config, log logger.Logger) (render.Renderer, func() error) {
	opts := render.Options{
		UserAgent:     cfg.Scraper.UserAgent,
		Timeout:       cfg.Scraper.RenderTimeout,
		SettleDelay:   cfg.Scraper.SettleDelay,
		ReadySelector: cfg.Scraper.ReadySelector,
		ExecPath:      cfg.Scraper.ChromePath,
	}
	rendererLog := log.With(logger.String("component", "renderer"))

	if cfg.Scraper.Renderer == config.RendererHTTP {
		return render.NewHTTPRenderer(opts, rendererLog), func() error { return nil }
	}

	chrome := render.NewChromeRenderer(opts, rendererLog)
	return chrome, chrome.Close
}
