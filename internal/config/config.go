// Package config loads catalog service settings from defaults, an optional
// yaml file, an optional .env file and CATALOG_* environment variables, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPrefix = "CATALOG_"

	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Store     StoreConfig     `koanf:"store"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Shutdown  ShutdownConfig  `koanf:"shutdown"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

// RateLimitConfig bounds mutating requests per client IP. Writes == 0 disables it.
type RateLimitConfig struct {
	Writes int           `koanf:"writes"`
	Window time.Duration `koanf:"window"`
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":        ":8080",
		"store.driver":     DriverFile,
		"store.path":       "assets/products.json",
		"log.level":        "info",
		"metrics.enabled":  true,
		"ratelimit.writes": 0,
		"ratelimit.window": "1m",
		"shutdown.timeout": "10s",
	}
}

// Load reads configuration. configFile and envFile may be empty or missing.
func Load(configFile, envFile string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			m := make(map[string]any, len(vars))
			for key, v := range vars {
				if strings.HasPrefix(key, EnvPrefix) {
					m[envKey(key)] = v
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return cfg, fmt.Errorf("load %s: %w", envFile, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps CATALOG_STORE_PATH to store.path.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the file driver")
		}
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.RateLimit.Writes < 0 {
		return errors.New("ratelimit.writes must not be negative")
	}
	if c.RateLimit.Writes > 0 && c.RateLimit.Window <= 0 {
		return errors.New("ratelimit.window must be positive")
	}
	if c.Shutdown.Timeout <= 0 {
		return errors.New("shutdown.timeout must be positive")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "http.addr=%s ", c.HTTP.Addr)
	fmt.Fprintf(&b, "store.driver=%s ", c.Store.Driver)
	fmt.Fprintf(&b, "store.path=%s ", c.Store.Path)
	fmt.Fprintf(&b, "database.url=%s ", maskURL(c.Database.URL))
	fmt.Fprintf(&b, "log.level=%s ", c.Log.Level)
	fmt.Fprintf(&b, "metrics.enabled=%t ", c.Metrics.Enabled)
	fmt.Fprintf(&b, "ratelimit.writes=%d ", c.RateLimit.Writes)
	fmt.Fprintf(&b, "ratelimit.window=%s ", c.RateLimit.Window)
	fmt.Fprintf(&b, "shutdown.timeout=%s", c.Shutdown.Timeout)

	return b.String()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	if _, host, ok := strings.Cut(url, "@"); ok {
		return "****@" + host
	}
	return "****"
}
