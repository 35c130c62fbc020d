// Package config reads the service settings from ADVENT_* environment
// variables; command-line flags may override them afterwards.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "ADVENT_"

// Store backends.
const (
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

type Config struct {
	Addr             string        `env:"ADDR" envDefault:":8080" validate:"required"`
	Store            string        `env:"STORE" envDefault:"fs" validate:"oneof=fs sqlite badger memory"`
	DataDir          string        `env:"DATA_DIR" envDefault:"./data" validate:"required"`
	Catalog          string        `env:"CATALOG" envDefault:"configs/catalog.yaml" validate:"required"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	RolloverInterval time.Duration `env:"ROLLOVER_INTERVAL" envDefault:"1m" validate:"gt=0"`
	SubmitRate       float64       `env:"SUBMIT_RATE" envDefault:"2" validate:"gt=0"`
	SubmitBurst      int           `env:"SUBMIT_BURST" envDefault:"5" validate:"gte=1"`
}

var validate = validator.New()

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints after flags have been applied.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the text logger every component shares.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
