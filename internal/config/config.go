package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/transgate/internal/language"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8675"`

	DefaultTargetLang string `envconfig:"DEFAULT_TARGET_LANG" default:"en"`
	CacheCapacity     int    `envconfig:"CACHE_CAPACITY" default:"1000"`

	// Optional backends. An empty DATABASE_URL disables history; an empty
	// REDIS_URL keeps the in-memory cache.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	RedisURL    string `envconfig:"REDIS_URL" default:""`

	ProvidersFile       string `envconfig:"PROVIDERS_FILE" default:""`
	LocalEngineEndpoint string `envconfig:"LOCAL_ENGINE_ENDPOINT" default:""`
	LocalEngineModel    string `envconfig:"LOCAL_ENGINE_MODEL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be >= 1")
	}
	if language.NormalizeCode(c.DefaultTargetLang) == "" {
		return fmt.Errorf("DEFAULT_TARGET_LANG %q is not a valid language code", c.DefaultTargetLang)
	}
	if strings.TrimSpace(c.Environment) == "" {
		return fmt.Errorf("ENVIRONMENT is required")
	}
	return nil
}

// HistoryEnabled reports whether translation history persistence is on.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

// SharedCacheEnabled reports whether the Redis cache backend is configured.
func (c *Config) SharedCacheEnabled() bool {
	return strings.TrimSpace(c.RedisURL) != ""
}
