package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Session backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (HONEY_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string        `usage:"PostgreSQL connection URL; products, orders and API keys are kept in memory when empty" flag:"database-url"`
	RedisURL       string        `usage:"Redis connection URL for sessions and rate limiting" flag:"redis-url"`
	SessionBackend string        `usage:"Session store: memory, redis or postgres (derived from the URLs when empty)" flag:"session-backend"`
	SessionTTL     time.Duration `default:"720h" usage:"Session lifetime" flag:"session-ttl"`
	CatalogFile    string        `usage:"Product catalog JSON file (.json or .json.gz); the embedded catalog when empty" flag:"catalog-file"`
	APIKeyPepper   string        `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	StaffAPIKey    string        `usage:"API key granted order management when running without a database" flag:"staff-api-key"`
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "HONEY",
		Files:     []string{"config.yaml", "/etc/honey/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's HONEY_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.SessionBackend == "" {
		switch {
		case c.RedisURL != "":
			c.SessionBackend = BackendRedis
		case c.DatabaseURL != "":
			c.SessionBackend = BackendPostgres
		default:
			c.SessionBackend = BackendMemory
		}
	}
}

// Validate checks that the selected backends are reachable by configuration.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis session backend requires HONEY_REDIS_URL or REDIS_URL")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres session backend requires HONEY_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown session backend %q", c.SessionBackend)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}
