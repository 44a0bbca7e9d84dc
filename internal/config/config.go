// Package config loads server configuration from an optional file and
// FRIENDLYTABLE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Broadcast backends
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SessionConfig holds reconnection settings
type SessionConfig struct {
	// GraceWindow is how long a disconnected player keeps their seat
	GraceWindow time.Duration `mapstructure:"grace_window"`
	// HubCleanupInterval is how often idle room hubs are dropped
	HubCleanupInterval time.Duration `mapstructure:"hub_cleanup_interval"`
}

// BroadcastConfig selects how notifications fan out
type BroadcastConfig struct {
	// Backend is "local" (single process) or "redis" (shared across instances)
	Backend      string `mapstructure:"backend"`
	RedisURL     string `mapstructure:"redis_url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// GatewayConfig holds websocket settings
type GatewayConfig struct {
	// AllowedOrigins lists browser origins allowed to connect. Empty or "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds structured logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the top-level server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Load reads the config file at path, if any, applies environment overrides
// and validates the result
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix("FRIENDLYTABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks all configuration invariants
func (c Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Session.GraceWindow <= 0 {
		errs = append(errs, "session.grace_window must be positive")
	}
	if c.Session.HubCleanupInterval <= 0 {
		errs = append(errs, "session.hub_cleanup_interval must be positive")
	}

	switch c.Broadcast.Backend {
	case BackendLocal:
	case BackendRedis:
		if c.Broadcast.RedisURL == "" {
			errs = append(errs, "broadcast.redis_url is required when broadcast.backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("broadcast.backend must be one of [local, redis], got %q", c.Broadcast.Backend))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, text], got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SlogLevel parses the configured level
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	return level, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("session.grace_window", "5m")
	v.SetDefault("session.hub_cleanup_interval", "1m")

	v.SetDefault("broadcast.backend", BackendLocal)
	v.SetDefault("broadcast.redis_url", "")
	v.SetDefault("broadcast.pool_size", 10)
	v.SetDefault("broadcast.min_idle_conns", 2)

	v.SetDefault("gateway.allowed_origins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
