package app

import (
	"errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"

	"github.com/billdesk/billdesk/internal/platform/cache"
)

// ErrMissingAPIURL and ErrMissingAPIKey are fatal configuration errors.
var (
	ErrMissingAPIURL = errors.New("config: API_URL must be provided")
	ErrMissingAPIKey = errors.New("config: API_KEY must be provided")
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"55s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	APIURL     string        `envconfig:"API_URL"`
	APIKey     string        `envconfig:"API_KEY"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"20s"`

	// PGDSN enables the sync journal when set.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	CatalogTTL      time.Duration `envconfig:"CATALOG_TTL" default:"5m"`
	InvoiceCacheTTL time.Duration `envconfig:"INVOICE_CACHE_TTL" default:"720h"`
	SaveLockTTL     time.Duration `envconfig:"SAVE_LOCK_TTL" default:"2m"`

	GotenbergURL     string        `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"30s"`

	WorkerConcurrency  int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr  string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
	CatalogRefreshCron string `envconfig:"CATALOG_REFRESH_CRON" default:"*/15 * * * *"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}

// Validate reports missing upstream settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return ErrMissingAPIURL
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// JournalEnabled reports whether a database for the sync journal is configured.
func (c *Config) JournalEnabled() bool {
	return c != nil && strings.TrimSpace(c.PGDSN) != ""
}

// Redis returns the options for the shared redis client.
func (c *Config) Redis() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// Asynq returns the redis options for the job queue.
func (c *Config) Asynq() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
