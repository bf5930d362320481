package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Cache      CacheConfig
	Pricing    PricingConfig
	Sync       SyncConfig
	SyncWorker SyncWorkerConfig
	HTTP       HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string // used when Driver is sqlite
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// CacheConfig holds price cache configuration
type CacheConfig struct {
	Backend       string // redis, memory
	AllowFallback bool   // fall back to memory when Redis is unavailable
	TTL           time.Duration
}

// PricingConfig holds price calculation configuration
type PricingConfig struct {
	BatchWidth int // concurrent calculations per batch request
}

// SyncConfig holds sync engine settings shared by server and worker
type SyncConfig struct {
	// Strategy is the default conflict resolution strategy
	// (local_wins, external_wins, merge, manual)
	Strategy string
	Shopify  ShopifyConfig
}

// ShopifyConfig holds the default Shopify platform credentials.
// Per-integration overrides are registered on the adapter at runtime.
type ShopifyConfig struct {
	ShopDomain    string
	AccessToken   string
	WebhookSecret string
	APIVersion    string
}

// SyncWorkerConfig holds sync job manager configuration
type SyncWorkerConfig struct {
	Enabled               bool
	WorkerID              string
	PollInterval          time.Duration
	MaxConcurrentJobs     int
	ClaimLease            time.Duration
	ScheduleSweepInterval time.Duration
	StaleSweepInterval    time.Duration
	DrainTimeout          time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with COMMERCEHUB_ prefix (e.g., COMMERCEHUB_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("COMMERCEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Cache: CacheConfig{
			Backend:       v.GetString("cache.backend"),
			AllowFallback: v.GetBool("cache.allow_fallback"),
			TTL:           v.GetDuration("cache.ttl"),
		},
		Pricing: PricingConfig{
			BatchWidth: v.GetInt("pricing.batch_width"),
		},
		Sync: SyncConfig{
			Strategy: v.GetString("sync.strategy"),
			Shopify: ShopifyConfig{
				ShopDomain:    v.GetString("sync.shopify.shop_domain"),
				AccessToken:   v.GetString("sync.shopify.access_token"),
				WebhookSecret: v.GetString("sync.shopify.webhook_secret"),
				APIVersion:    v.GetString("sync.shopify.api_version"),
			},
		},
		SyncWorker: SyncWorkerConfig{
			Enabled:               v.GetBool("sync_worker.enabled"),
			WorkerID:              v.GetString("sync_worker.worker_id"),
			PollInterval:          v.GetDuration("sync_worker.poll_interval"),
			MaxConcurrentJobs:     v.GetInt("sync_worker.max_concurrent_jobs"),
			ClaimLease:            v.GetDuration("sync_worker.claim_lease"),
			ScheduleSweepInterval: v.GetDuration("sync_worker.schedule_sweep_interval"),
			StaleSweepInterval:    v.GetDuration("sync_worker.stale_sweep_interval"),
			DrainTimeout:          v.GetDuration("sync_worker.drain_timeout"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "commercehub-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DatabaseDriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "commercehub"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "commercehub.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "redis"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Pricing.BatchWidth == 0 {
		cfg.Pricing.BatchWidth = 10
	}
	if cfg.Sync.Strategy == "" {
		cfg.Sync.Strategy = "external_wins"
	}
	if cfg.SyncWorker.PollInterval == 0 {
		cfg.SyncWorker.PollInterval = time.Second
	}
	if cfg.SyncWorker.MaxConcurrentJobs == 0 {
		cfg.SyncWorker.MaxConcurrentJobs = 5
	}
	if cfg.SyncWorker.ClaimLease == 0 {
		cfg.SyncWorker.ClaimLease = 60 * time.Second
	}
	if cfg.SyncWorker.ScheduleSweepInterval == 0 {
		cfg.SyncWorker.ScheduleSweepInterval = 30 * time.Second
	}
	if cfg.SyncWorker.StaleSweepInterval == 0 {
		cfg.SyncWorker.StaleSweepInterval = 30 * time.Second
	}
	if cfg.SyncWorker.DrainTimeout == 0 {
		cfg.SyncWorker.DrainTimeout = 30 * time.Second
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != DatabaseDriverPostgres && c.Database.Driver != DatabaseDriverSQLite {
		return fmt.Errorf("database.driver must be %q or %q", DatabaseDriverPostgres, DatabaseDriverSQLite)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Cache.Backend != "redis" && c.Cache.Backend != "memory" {
		return fmt.Errorf("cache.backend must be \"redis\" or \"memory\"")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	switch c.Sync.Strategy {
	case "local_wins", "external_wins", "merge", "manual":
	default:
		return fmt.Errorf("sync.strategy %q is not a known resolution strategy", c.Sync.Strategy)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == DatabaseDriverSQLite {
			return fmt.Errorf("database.driver sqlite is not supported in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DatabaseDriverSQLite {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
