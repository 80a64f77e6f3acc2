package bootstrap

import (
	"context"

	"github.com/JonahHouse/ElPaseoAuto/internal/api"
	"github.com/JonahHouse/ElPaseoAuto/internal/auth"
	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/handlers"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/server"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupHTTPServer creates the HTTP server with health checks and API routes.
func SetupHTTPServer(
	cfg *config.Config,
	pipeline *Pipeline,
	db *sqlx.DB,
	redisClient *redis.Client,
	log logger.Logger,
) *server.Server {
	checks := map[string]server.HealthChecker{
		"database": server.PingChecker("database", server.HealthStatusUnhealthy, db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = server.PingChecker("redis", server.HealthStatusDegraded, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	routes := api.Routes{
		Sync:      handlers.NewSyncHandler(pipeline.Runner, pipeline.Logs, log),
		Inventory: handlers.NewInventoryHandler(pipeline.Vehicles, log),
		Auth: auth.Middleware(auth.Config{
			AdminSecret: cfg.Auth.AdminSecret,
			CronSecret:  cfg.Auth.CronSecret,
			JWTSecret:   cfg.Auth.JWTSecret,
		}, log),
		Metrics:     pipeline.Telemetry.Handler(),
		CORSOrigins: cfg.Service.CORSOrigins,
	}

	return server.New(&server.Config{
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
	}, log, checks, api.SetupRoutes(routes))
}
