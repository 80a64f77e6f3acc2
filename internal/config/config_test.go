package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
service:
  port: 9001
database:
  host: "db.internal"
  database: "cars"
scraper:
  base_url: "https://dealer.example.com/"
  renderer: "http"
  request_delay: 2s
auth:
  admin_secret: "hunter2"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Service.Port != 9001 {
		t.Errorf("cfg.Service.Port = %d, want 9001", cfg.Service.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("cfg.Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Scraper.BaseURL != "https://dealer.example.com" {
		t.Errorf("cfg.Scraper.BaseURL = %q, want trailing slash trimmed", cfg.Scraper.BaseURL)
	}
	if got := cfg.Scraper.IndexURL(); got != "https://dealer.example.com/inventory" {
		t.Errorf("cfg.Scraper.IndexURL() = %q", got)
	}
	if cfg.Scraper.Renderer != RendererHTTP {
		t.Errorf("cfg.Scraper.Renderer = %q, want http", cfg.Scraper.Renderer)
	}
	if cfg.Scraper.RequestDelay != 2*time.Second {
		t.Errorf("cfg.Scraper.RequestDelay = %v, want 2s", cfg.Scraper.RequestDelay)
	}
	if cfg.Auth.AdminSecret != "hunter2" {
		t.Errorf("cfg.Auth.AdminSecret = %q, want hunter2", cfg.Auth.AdminSecret)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Service.Port != defaultServicePort {
		t.Errorf("cfg.Service.Port = %d, want %d", cfg.Service.Port, defaultServicePort)
	}
	if cfg.Scraper.BaseURL != defaultSourceBaseURL {
		t.Errorf("cfg.Scraper.BaseURL = %q, want %q", cfg.Scraper.BaseURL, defaultSourceBaseURL)
	}
	if cfg.Scraper.RenderTimeout != 30*time.Second {
		t.Errorf("cfg.Scraper.RenderTimeout = %v, want 30s", cfg.Scraper.RenderTimeout)
	}
	if cfg.Scraper.SettleDelay != 1500*time.Millisecond {
		t.Errorf("cfg.Scraper.SettleDelay = %v, want 1.5s", cfg.Scraper.SettleDelay)
	}
	if cfg.Scraper.Renderer != RendererChrome {
		t.Errorf("cfg.Scraper.Renderer = %q, want chrome", cfg.Scraper.Renderer)
	}
	if cfg.Redis.EventStream != defaultEventStream {
		t.Errorf("cfg.Redis.EventStream = %q, want %q", cfg.Redis.EventStream, defaultEventStream)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOURCE_SITE_URL", "https://override.example.com")
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("CRON_SECRET", "cron-env")
	t.Setenv("SCRAPER_REQUEST_DELAY", "250ms")

	path := writeConfig(t, `
scraper:
  base_url: "https://file.example.com"
auth:
  admin_secret: "from-file"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Scraper.BaseURL != "https://override.example.com" {
		t.Errorf("cfg.Scraper.BaseURL = %q, want env value", cfg.Scraper.BaseURL)
	}
	if cfg.Auth.AdminSecret != "from-env" {
		t.Errorf("cfg.Auth.AdminSecret = %q, want from-env", cfg.Auth.AdminSecret)
	}
	if cfg.Auth.CronSecret != "cron-env" {
		t.Errorf("cfg.Auth.CronSecret = %q, want cron-env", cfg.Auth.CronSecret)
	}
	if cfg.Scraper.RequestDelay != 250*time.Millisecond {
		t.Errorf("cfg.Scraper.RequestDelay = %v, want 250ms", cfg.Scraper.RequestDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "bad port", mutate: func(c *Config) { c.Service.Port = 70000 }, field: "service.port"},
		{name: "relative base url", mutate: func(c *Config) { c.Scraper.BaseURL = "/inventory" }, field: "scraper.base_url"},
		{name: "unknown renderer", mutate: func(c *Config) { c.Scraper.Renderer = "phantom" }, field: "scraper.renderer"},
		{name: "negative delay", mutate: func(c *Config) { c.Scraper.RequestDelay = -time.Second }, field: "scraper.request_delay"},
		{name: "redis without address", mutate: func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Address = ""
		}, field: "redis.address"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, field: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			SetDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("ValidationError.Field = %q, want %q", validationErr.Field, tt.field)
			}
		})
	}
}
