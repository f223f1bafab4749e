package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SPLATVIEW_CONFIG", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.Viewer.DefaultPointSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.SceneCacheTTL)
	assert.Equal(t, time.Minute, cfg.RateLimiter.Interval)
	assert.Equal(t, 64<<20, cfg.Limits.MaxUploadBytes)
	assert.Equal(t, cfg, GetConfig())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: ":9090"
logger:
  level: debug
cache:
  redis_host: "localhost:6379"
  scene_cache_enabled: true
  scene_cache_ttl_secs: 3600
viewer:
  default_point_size: 8
auth:
  postgres:
    host: localhost
    database: splatview
    user: viewer
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("SPLATVIEW_CONFIG", path)

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisHost)
	assert.True(t, cfg.Cache.SceneCacheEnabled)
	assert.Equal(t, time.Hour, cfg.Cache.SceneCacheTTL)
	assert.Equal(t, 8, cfg.Viewer.DefaultPointSize)
	assert.Equal(t, "splatview", cfg.Auth.Postgres.Database)
	// Unset fields keep their defaults.
	assert.Equal(t, 64<<20, cfg.Limits.MaxUploadBytes)
}

func TestLoadConfigBadYAMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o600))
	t.Setenv("SPLATVIEW_CONFIG", path)

	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.Server.Port)
}
