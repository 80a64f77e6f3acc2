// Package bootstrap handles application initialization and lifecycle management
// for the inventory sync service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/job"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/server"
	"github.com/JonahHouse/ElPaseoAuto/internal/telemetry"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// App owns the long-lived resources of one process.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	DB       *sqlx.DB
	Redis    *redis.Client
	Pipeline *Pipeline
}

// NewApp loads configuration and connects every dependency.
func NewApp(configPath string) (*App, error) {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, err
	}

	// Phase 2: Setup database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	// Phase 3: Setup Redis (optional), lock and events
	redisClient := SetupRedis(cfg, log)
	locker := SetupLocker(cfg, redisClient)
	publisher := SetupEventPublisher(cfg, redisClient, log)

	// Phase 4: Assemble the sync pipeline
	pipeline, err := SetupPipeline(cfg, db, locker, publisher, telemetry.NewProvider(nil), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Redis:    redisClient,
		Pipeline: pipeline,
	}, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() {
	if err := a.Pipeline.Close(); err != nil {
		a.Logger.Error("Failed to close renderer", logger.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close Redis client", logger.Error(err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database", logger.Error(err))
	}
	_ = a.Logger.Sync()
}

// Serve runs the HTTP server and the optional scheduler until ctx is done
// or the server fails, then shuts both down.
func (a *App) Serve(ctx context.Context) error {
	srv := SetupHTTPServer(a.Config, a.Pipeline, a.DB, a.Redis, a.Logger)

	var scheduler *job.Scheduler
	if a.Config.Scheduler.Cron != "" {
		var err error
		scheduler, err = job.NewScheduler(a.Pipeline.Runner, a.Config.Scheduler.Cron, a.Logger)
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		scheduler.Start()
	}

	errCh := srv.StartAsync()

	var serveErr error
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			a.Logger.Error("Server error", logger.Error(err))
			serveErr = err
		}
	case <-ctx.Done():
		a.Logger.Info("Shutdown signal received")
	}

	return a.shutdown(srv, scheduler, serveErr)
}

func (a *App) shutdown(srv *server.Server, scheduler *job.Scheduler, serveErr error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	// Stop scheduling before the server so no new run starts mid-shutdown.
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			a.Logger.Error("Failed to stop scheduler", logger.Error(err))
		}
	}

	a.Logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}

	a.Logger.Info("Server stopped successfully")
	return nil
}
