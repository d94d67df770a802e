package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Environment    string        `envconfig:"ENV" default:"development"`
	Port           int           `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"` // CORS, comma separated
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	MetricsAddr    string        `envconfig:"METRICS_ADDR" default:"127.0.0.1:9091"` // internal listener for /metrics; empty disables

	RedisURI     string `envconfig:"REDIS_URI" default:"redis://localhost:6379/0"`
	StoreBackend string `envconfig:"STORE_BACKEND" default:"redis"`
	PostgresURI  string `envconfig:"POSTGRES_URI" default:"postgres://localhost:5432/grow?sslmode=disable"`
	MongoURI     string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDB      string `envconfig:"MONGODB_DATABASE" default:"grow"`

	EncryptionKey string        `envconfig:"ENCRYPTION_KEY"` // optional, base64 32 bytes; seals records at rest
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	CloudinaryName      string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `envconfig:"CLOUDINARY_FOLDER" default:"grow"`
	UploadMaxBytes      int64  `envconfig:"UPLOAD_MAX_BYTES" default:"4194304"` // 4MB per file
	UploadMaxFiles      int    `envconfig:"UPLOAD_MAX_FILES" default:"2"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
	TrustProxy     bool    `envconfig:"TRUST_PROXY" default:"false"` // honour X-Forwarded-For for client IPs
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}
	switch c.StoreBackend {
	case BackendRedis, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %s (must be one of: redis, postgres, mongo)", c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.UploadMaxBytes < 1 || c.UploadMaxFiles < 1 {
		return fmt.Errorf("UPLOAD_MAX_BYTES and UPLOAD_MAX_FILES must be at least 1")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func cleanOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o != "" && !containsOrigin(out, o) {
			out = append(out, o)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.ToLower(o)
	for _, v := range list {
		if strings.ToLower(v) == o {
			return true
		}
	}
	return false
}
