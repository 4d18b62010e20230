package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROFILEGRID_API_URL", "PROFILEGRID_STORAGE", "PROFILEGRID_DB",
		"PROFILEGRID_REDIS_ADDR", "PROFILEGRID_REDIS_PASSWORD", "PROFILEGRID_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://randomuser.me/api", cfg.API.BaseURL)
	assert.Equal(t, 3, cfg.API.ResultsPerPage)
	assert.Equal(t, 300, cfg.Scroll.Threshold)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfig_Durations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 300*time.Millisecond, cfg.GetGenerateMinDuration())
	assert.Equal(t, 300*time.Millisecond, cfg.GetLoadMoreButtonMinDuration())
	assert.Equal(t, 900*time.Millisecond, cfg.GetLoadMoreScrollMinDuration())
	assert.Equal(t, 150*time.Millisecond, cfg.GetScrollThrottle())
	assert.Zero(t, cfg.GetAPITimeout())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), DirName, "config.yaml")

	cfg := DefaultConfig()
	cfg.API.Seed = "abc"
	cfg.Scroll.Enabled = false
	cfg.Logging.DebugMode = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.API.Seed)
	assert.False(t, loaded.Scroll.Enabled)
	assert.True(t, loaded.Logging.DebugMode)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  results_per_page: 10\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.API.ResultsPerPage)
	assert.Equal(t, "https://randomuser.me/api", cfg.API.BaseURL)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero batch size", func(c *Config) { c.API.ResultsPerPage = 0 }},
		{"bad timeout", func(c *Config) { c.API.Timeout = "soon" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }},
		{"redis without addr", func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisAddr = ""
		}},
		{"bad scroll throttle", func(c *Config) { c.Scroll.Throttle = "fast" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStoragePath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/ws", DirName, "profiles.db"), cfg.StoragePath("/ws"))

	cfg.Storage.Path = "/var/lib/pg.db"
	assert.Equal(t, "/var/lib/pg.db", cfg.StoragePath("/ws"))
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("api"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("api"))

	lc.Categories = map[string]bool{"api": false}
	assert.False(t, lc.IsCategoryEnabled("api"))
	assert.True(t, lc.IsCategoryEnabled("store"))
}
