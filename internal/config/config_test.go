package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Session.GraceWindow)
	assert.Equal(t, time.Minute, cfg.Session.HubCleanupInterval)
	assert.Equal(t, BackendLocal, cfg.Broadcast.Backend)
	assert.Empty(t, cfg.Gateway.AllowedOrigins)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "friendlytable.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: 9090
session:
  grace_window: 90s
broadcast:
  backend: redis
  redis_url: redis://localhost:6379/0
gateway:
  allowed_origins:
    - http://localhost:3000
logging:
  level: debug
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Session.GraceWindow)
	assert.Equal(t, BackendRedis, cfg.Broadcast.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Broadcast.RedisURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Gateway.AllowedOrigins)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FRIENDLYTABLE_SERVER_PORT", "7000")
	t.Setenv("FRIENDLYTABLE_SESSION_GRACE_WINDOW", "2m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Session.GraceWindow)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero grace", func(c *Config) { c.Session.GraceWindow = 0 }, "session.grace_window"},
		{"unknown backend", func(c *Config) { c.Broadcast.Backend = "carrier-pigeon" }, "broadcast.backend"},
		{"redis without url", func(c *Config) { c.Broadcast.Backend = BackendRedis }, "broadcast.redis_url"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
