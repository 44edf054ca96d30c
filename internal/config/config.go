package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config stores all configuration of the service.
// Values are read by viper from environment variables (optionally seeded from .env).
type Config struct {
	Port      string `mapstructure:"PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	OSRMBaseURL string        `mapstructure:"OSRM_BASE_URL"`
	OSRMTimeout time.Duration `mapstructure:"OSRM_TIMEOUT"`
	OSRMRPS     float64       `mapstructure:"OSRM_RPS"`

	MapBaseURL string `mapstructure:"MAP_BASE_URL"`

	SolverTimeLimit     time.Duration `mapstructure:"SOLVER_TIME_LIMIT"`
	SolverMaxIterations int           `mapstructure:"SOLVER_MAX_ITERATIONS"`
	SolverStallLimit    int           `mapstructure:"SOLVER_STALL_LIMIT"`

	PriorityPolicyPath string `mapstructure:"PRIORITY_POLICY_PATH"`

	CacheBackend string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`
	RedisURL     string        `mapstructure:"REDIS_URL"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	SqlitePath   string        `mapstructure:"SQLITE_PATH"`
}

// Cache backends accepted by CACHE_BACKEND.
const (
	CacheNone     = "none"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheSqlite   = "sqlite"
)

var defaults = map[string]any{
	"PORT":                  "8080",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"OSRM_BASE_URL":         "http://router.project-osrm.org",
	"OSRM_TIMEOUT":          10 * time.Second,
	"OSRM_RPS":              5.0,
	"MAP_BASE_URL":          "https://yandex.ru/maps/",
	"SOLVER_TIME_LIMIT":     10 * time.Second,
	"SOLVER_MAX_ITERATIONS": 0,
	"SOLVER_STALL_LIMIT":    0,
	"PRIORITY_POLICY_PATH":  "",
	"CACHE_BACKEND":         CacheNone,
	"CACHE_TTL":             24 * time.Hour,
	"REDIS_URL":             "redis://localhost:6379/0",
	"DATABASE_URL":          "",
	"SQLITE_PATH":           "data/matrix_cache.db",
}

// Load reads .env (if present) and the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	switch c.CacheBackend {
	case "", CacheNone:
		c.CacheBackend = CacheNone
	case CacheRedis, CacheSqlite:
	case CachePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.OSRMTimeout <= 0 {
		return fmt.Errorf("OSRM_TIMEOUT must be positive")
	}
	if c.SolverTimeLimit <= 0 {
		return fmt.Errorf("SOLVER_TIME_LIMIT must be positive")
	}
	if c.SolverMaxIterations < 0 || c.SolverStallLimit < 0 {
		return fmt.Errorf("solver limits must not be negative")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
