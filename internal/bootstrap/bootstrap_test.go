package bootstrap_test

import (
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/bootstrap"
	"github.com/JonahHouse/ElPaseoAuto/internal/config"
	"github.com/JonahHouse/ElPaseoAuto/internal/coordination"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/JonahHouse/ElPaseoAuto/internal/render"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return cfg
}

func TestSetupRedis_Disabled(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, bootstrap.SetupRedis(cfg, logger.NewNop()))
}

func TestSetupRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = addr

	assert.Nil(t, bootstrap.SetupRedis(cfg, logger.NewNop()))
}

func TestSetupRedis_Connected(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = mr.Addr()

	client := bootstrap.SetupRedis(cfg, logger.NewNop())
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	assert.IsType(t, &coordination.RedisLocker{}, bootstrap.SetupLocker(cfg, client))
	assert.NotNil(t, bootstrap.SetupEventPublisher(cfg, client, logger.NewNop()))
}

func TestSetupLocker_Local(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &coordination.LocalLocker{}, bootstrap.SetupLocker(cfg, nil))
	assert.Nil(t, bootstrap.SetupEventPublisher(cfg, (*redis.Client)(nil), logger.NewNop()))
}

func TestSetupRenderer(t *testing.T) {
	cfg := testConfig()

	cfg.Scraper.Renderer = config.RendererHTTP
	r, closeFn := bootstrap.SetupRenderer(cfg, logger.NewNop())
	assert.IsType(t, &render.HTTPRenderer{}, r)
	require.NoError(t, closeFn())

	cfg.Scraper.Renderer = config.RendererChrome
	r, closeFn = bootstrap.SetupRenderer(cfg, logger.NewNop())
	assert.IsType(t, &render.ChromeRenderer{}, r)
	require.NoError(t, closeFn())
}
