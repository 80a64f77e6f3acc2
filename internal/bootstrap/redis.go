package bootstrap

import (
	"context"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/coordination"
	"github.com/JonahHouse/ElPaseoAuto/internal/events"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// SetupRedis returns a connected client, or nil when Redis is disabled or
// unreachable. The service then runs with a process-local lock and without
// events.
func SetupRedis(cfg *config.Config, log logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not available, using local lock and no events",
			logger.String("redis_address", cfg.Redis.Address),
			logger.Error(err),
		)
		_ = client.Close()
		return nil
	}

	log.Info("Connected to Redis", logger.String("redis_address", cfg.Redis.Address))
	return client
}

// SetupLocker picks the run lock: shared through Redis when available.
func SetupLocker(cfg *config.Config, client *redis.Client) coordination.Locker {
	if client == nil {
		return coordination.NewLocalLocker()
	}
	return coordination.NewRedisLocker(client, coordination.SyncLockKey, cfg.Redis.LockTTL)
}

// SetupEventPublisher returns nil when client is nil; a nil publisher
// drops events.
func SetupEventPublisher(cfg *config.Config, client *redis.Client, log logger.Logger) *events.Publisher {
	publisher := events.NewPublisher(client, cfg.Redis.EventStream, log)
	if publisher != nil {
		log.Info("Event publisher initialized", logger.String("stream", cfg.Redis.EventStream))
	}
	return publisher
}
