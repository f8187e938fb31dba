package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/lelekart/variantmatrix/pkg/config"
	"github.com/lelekart/variantmatrix/pkg/database"
	"github.com/lelekart/variantmatrix/pkg/httpclient"
	"github.com/lelekart/variantmatrix/pkg/middleware"
	"github.com/lelekart/variantmatrix/pkg/tracing"
)

// ServiceName identifies the service in logs, metrics, traces and events.
const ServiceName = "variant-service"

// Draft store backends.
const (
	DraftStoreRedis  = "redis"
	DraftStoreMemory = "memory"
)

// Config holds all configuration for the variant service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"VARIANT_HTTP_PORT" envDefault:"8014"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ecommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ecommerce_secret"`
	PostgresDB   string `env:"VARIANT_DB_NAME" envDefault:"variant_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Drafts
	DraftStore    string `env:"DRAFT_STORE" envDefault:"redis"`
	DraftTTLHours int    `env:"DRAFT_TTL_HOURS" envDefault:"24"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"variant-service"`

	// Media uploads. An empty MediaUploadURL keeps uploads in memory and
	// serves them under MediaBaseURL.
	MediaUploadURL       string `env:"MEDIA_UPLOAD_URL" envDefault:""`
	MediaBaseURL         string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8014"`
	UploadTimeoutSeconds int    `env:"UPLOAD_TIMEOUT_SECONDS" envDefault:"30"`
	UploadLeaseMinutes   int    `env:"UPLOAD_LEASE_MINUTES" envDefault:"5"`

	// Upload throttling per seller. A zero rate disables it.
	UploadRatePerMinute int `env:"UPLOAD_RATE_PER_MINUTE" envDefault:"30"`
	UploadRateBurst     int `env:"UPLOAD_RATE_BURST" envDefault:"10"`

	// Matrix defaults
	PlaceholderBaseURL string `env:"PLACEHOLDER_BASE_URL" envDefault:"https://placehold.co"`
	SKUFallbackPrefix  string `env:"SKU_FALLBACK_PREFIX" envDefault:"PROD"`

	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load variant config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Tracing.ServiceName = ServiceName
	cfg.Tracing.Environment = cfg.Environment
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.DraftStore != DraftStoreRedis && c.DraftStore != DraftStoreMemory {
		return fmt.Errorf("DRAFT_STORE must be %q or %q, got %q", DraftStoreRedis, DraftStoreMemory, c.DraftStore)
	}
	if c.DraftTTLHours < 1 {
		return fmt.Errorf("DRAFT_TTL_HOURS must be positive, got %d", c.DraftTTLHours)
	}
	if c.UploadTimeoutSeconds < 1 {
		return fmt.Errorf("UPLOAD_TIMEOUT_SECONDS must be positive, got %d", c.UploadTimeoutSeconds)
	}
	if c.UploadLeaseMinutes < 1 {
		return fmt.Errorf("UPLOAD_LEASE_MINUTES must be positive, got %d", c.UploadLeaseMinutes)
	}
	if worst := c.SlowestUpload(); c.UploadLease() <= worst {
		return fmt.Errorf("UPLOAD_LEASE_MINUTES must outlast one retried upload (%s), got %s", worst, c.UploadLease())
	}
	if c.UploadRatePerMinute < 0 {
		return fmt.Errorf("UPLOAD_RATE_PER_MINUTE must not be negative, got %d", c.UploadRatePerMinute)
	}
	if c.UploadRatePerMinute > 0 && c.UploadRateBurst < 1 {
		return fmt.Errorf("UPLOAD_RATE_BURST must be positive, got %d", c.UploadRateBurst)
	}
	if c.MediaUploadURL != "" {
		if u, err := url.Parse(c.MediaUploadURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("MEDIA_UPLOAD_URL must be an absolute URL, got %q", c.MediaUploadURL)
		}
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

// DraftTTL returns how long an untouched draft is kept.
func (c *Config) DraftTTL() time.Duration {
	return time.Duration(c.DraftTTLHours) * time.Hour
}

// UploadTimeout bounds a single call to the media upload endpoint.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// UploadLease is how long an upload holds off matrix regeneration.
func (c *Config) UploadLease() time.Duration {
	return time.Duration(c.UploadLeaseMinutes) * time.Minute
}

// MediaClient returns the HTTP client settings for the media upload endpoint.
func (c *Config) MediaClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.UploadTimeout()
	return hc
}

// SlowestUpload is how long one file may take when every retry of the media
// call times out.
func (c *Config) SlowestUpload() time.Duration {
	hc := c.MediaClient()
	return time.Duration(hc.MaxRetries+1)*hc.Timeout + time.Duration(hc.MaxRetries)*hc.RetryWaitMax
}

// UploadRateLimit returns the per-seller upload throttle, or nil when it is
// disabled.
func (c *Config) UploadRateLimit() *middleware.RateLimitConfig {
	if c.UploadRatePerMinute == 0 {
		return nil
	}
	return &middleware.RateLimitConfig{PerMinute: c.UploadRatePerMinute, Burst: c.UploadRateBurst}
}

// SlowQueryThreshold is the duration above which queries are logged. Zero
// disables slow query logging.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPass
	rc.DB = c.RedisDB
	return rc
}
