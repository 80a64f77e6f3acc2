package config

import (
	"fmt"
	"strings"
	"time"
)

// Default service configuration values.
const (
	defaultServiceName    = "inventory-sync"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8090
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "inventory"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 10
	defaultDBMaxIdleConns  = 5
	defaultDBConnLifetimeH = 1
)

// Default scraper configuration values.
const (
	defaultSourceBaseURL  = "https://www.elpaseoauto.com"
	defaultInventoryPath  = "/inventory"
	defaultRenderer       = RendererChrome
	defaultRequestDelay   = time.Second
	defaultRenderTimeout  = 30 * time.Second
	defaultSettleDelay    = 1500 * time.Millisecond
	defaultListingRetries = 3
	defaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

const (
	defaultLockTTL      = 30 * time.Minute
	defaultEventStream  = "inventory-events"
	defaultRedisAddress = "localhost:6379"
)

// Renderer names accepted by scraper.renderer.
const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"INVENTORY_SYNC_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"           yaml:"debug"`

	// CORSOrigins lists the dashboard origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string        `env:"POSTGRES_INVENTORY_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_INVENTORY_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_INVENTORY_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_INVENTORY_PASSWORD" yaml:"password"`
	Database              string        `env:"POSTGRES_INVENTORY_DB"       yaml:"database"`
	SSLMode               string        `env:"POSTGRES_INVENTORY_SSLMODE"  yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
	AutoMigrate           bool          `env:"INVENTORY_AUTO_MIGRATE" yaml:"auto_migrate"`
}

// ScraperConfig controls how the source dealer site is fetched.
type ScraperConfig struct {
	BaseURL        string        `env:"SOURCE_SITE_URL"        yaml:"base_url"`
	InventoryPath  string        `yaml:"inventory_path"`
	Renderer       string        `env:"SCRAPER_RENDERER"       yaml:"renderer"`
	UserAgent      string        `yaml:"user_agent"`
	RequestDelay   time.Duration `env:"SCRAPER_REQUEST_DELAY"  yaml:"request_delay"`
	RenderTimeout  time.Duration `env:"SCRAPER_RENDER_TIMEOUT" yaml:"render_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	ReadySelector  string        `yaml:"ready_selector"`
	ListingRetries int           `yaml:"listing_retries"`
	ChromePath     string        `env:"CHROME_PATH" yaml:"chrome_path"`
}

// IndexURL returns the absolute URL of the inventory index page.
func (s ScraperConfig) IndexURL() string {
	return s.BaseURL + s.InventoryPath
}

// AuthConfig holds the credentials accepted by the sync trigger.
type AuthConfig struct {
	AdminSecret string `env:"ADMIN_PASSWORD"  yaml:"admin_secret"`
	CronSecret  string `env:"CRON_SECRET"     yaml:"cron_secret"`
	JWTSecret   string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// RedisConfig enables the distributed run lock and event publishing.
type RedisConfig struct {
	Enabled     bool          `env:"REDIS_ENABLED"  yaml:"enabled"`
	Address     string        `env:"REDIS_ADDRESS"  yaml:"address"`
	Password    string        `env:"REDIS_PASSWORD" yaml:"password"`
	DB          int           `env:"REDIS_DB"       yaml:"db"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
	EventStream string        `yaml:"event_stream"`
}

// SchedulerConfig holds the optional cron schedule for unattended runs.
type SchedulerConfig struct {
	Cron string `env:"INVENTORY_SYNC_CRON" yaml:"cron"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from a YAML file, applies defaults, then env overrides.
func Load(path string) (*Config, error) {
	cfg, loadErr := LoadWithDefaults(path, SetDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := validateRequired("database.host", c.Database.Host); err != nil {
		return err
	}
	if err := validateRequired("database.database", c.Database.Database); err != nil {
		return err
	}
	if err := validateAbsoluteURL("scraper.base_url", c.Scraper.BaseURL); err != nil {
		return err
	}
	if c.Scraper.Renderer != RendererChrome && c.Scraper.Renderer != RendererHTTP {
		return &ValidationError{Field: "scraper.renderer", Message: "must be one of: chrome, http"}
	}
	if err := validatePositiveDuration("scraper.render_timeout", c.Scraper.RenderTimeout); err != nil {
		return err
	}
	if c.Scraper.RequestDelay < 0 {
		return &ValidationError{Field: "scraper.request_delay", Message: "must not be negative"}
	}
	if c.Redis.Enabled {
		if err := validateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	return validateLogLevel(c.Logging.Level)
}

// SetDefaults applies default values to all configuration sections.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setScraperDefaults(&cfg.Scraper)
	setRedisDefaults(&cfg.Redis)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeH * time.Hour
	}
}

func setScraperDefaults(s *ScraperConfig) {
	if s.BaseURL == "" {
		s.BaseURL = defaultSourceBaseURL
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.InventoryPath == "" {
		s.InventoryPath = defaultInventoryPath
	}
	if s.Renderer == "" {
		s.Renderer = defaultRenderer
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.RequestDelay == 0 {
		s.RequestDelay = defaultRequestDelay
	}
	if s.RenderTimeout == 0 {
		s.RenderTimeout = defaultRenderTimeout
	}
	if s.SettleDelay == 0 {
		s.SettleDelay = defaultSettleDelay
	}
	if s.ListingRetries == 0 {
		s.ListingRetries = defaultListingRetries
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
	if r.LockTTL == 0 {
		r.LockTTL = defaultLockTTL
	}
	if r.EventStream == "" {
		r.EventStream = defaultEventStream
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
