package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"brasa.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr              string `envconfig:"REDIS_ADDR"`
	RedisPassword          string `envconfig:"REDIS_PASSWORD"`
	RedisDB                int    `envconfig:"REDIS_DB" default:"0"`
	SummaryCacheTTLSeconds int    `envconfig:"SUMMARY_CACHE_TTL_SECONDS" default:"300"`

	AuthSecret            string `envconfig:"AUTH_SECRET"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"720"`
	OperatorPIN           string `envconfig:"OPERATOR_PIN"`

	LowStockThreshold int `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment variables: %w", err)
	}
	cfg.normalize()

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.AuthSecret = strings.TrimSpace(c.AuthSecret)
	c.OperatorPIN = strings.TrimSpace(c.OperatorPIN)
	if c.SummaryCacheTTLSeconds < 1 {
		c.SummaryCacheTTLSeconds = 300
	}
	if c.AccessTokenTTLMinutes < 1 {
		c.AccessTokenTTLMinutes = 720
	}
	if c.LowStockThreshold < 0 {
		c.LowStockThreshold = 5
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) SummaryCacheTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}
