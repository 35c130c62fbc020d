package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StoreFS, cfg.Store)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "configs/catalog.yaml", cfg.Catalog)
	assert.Equal(t, time.Minute, cfg.RolloverInterval)
	assert.Equal(t, 2.0, cfg.SubmitRate)
	assert.Equal(t, 5, cfg.SubmitBurst)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ADVENT_ADDR", "127.0.0.1:9000")
	t.Setenv("ADVENT_STORE", " SQLite ")
	t.Setenv("ADVENT_DATA_DIR", "/var/lib/advent")
	t.Setenv("ADVENT_LOG_LEVEL", "DEBUG")
	t.Setenv("ADVENT_ROLLOVER_INTERVAL", "30s")
	t.Setenv("ADVENT_SUBMIT_BURST", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/var/lib/advent", cfg.DataDir)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 30*time.Second, cfg.RolloverInterval)
	assert.Equal(t, 10, cfg.SubmitBurst)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"store":    {"ADVENT_STORE", "redis"},
		"level":    {"ADVENT_LOG_LEVEL", "loud"},
		"interval": {"ADVENT_ROLLOVER_INTERVAL", "soon"},
		"burst":    {"ADVENT_SUBMIT_BURST", "0"},
		"rate":     {"ADVENT_SUBMIT_RATE", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_AfterOverride(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Store = "Badger"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreBadger, cfg.Store)

	cfg.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn"}
	log := cfg.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
