// config.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file reads the service configuration from the environment,
// optionally seeded from a .env file.

package balda

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vthorsteinsson/GoBalda/storage"
)

// Config holds the settings of the HTTP service and the simulator
type Config struct {
	Language      string    `env:"BALDA_LANGUAGE" envDefault:"en"`
	DictDir       string    `env:"BALDA_DICT_DIR"`
	BoardSize     int       `env:"BALDA_BOARD_SIZE" envDefault:"5"`
	Adjacency     Adjacency `env:"BALDA_ADJACENCY" envDefault:"four"`
	MaxRejections int       `env:"BALDA_MAX_REJECTIONS" envDefault:"0"`
	LogLevel      string    `env:"LOG_LEVEL" envDefault:"info"`
	Port          string    `env:"PORT" envDefault:"8080"`
	// Bearer authorization token, if any
	AccessKey string `env:"ACCESS_KEY"`
	// Allowed access control (CORS) origins
	AllowedOrigins   string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	Store            string `env:"STORE" envDefault:"file"`
	StorePath        string `env:"STORE_PATH" envDefault:"saves"`
	DatastoreProject string `env:"DATASTORE_PROJECT"`
	// How long finished games are kept in memory
	GameRetention time.Duration `env:"GAME_RETENTION" envDefault:"10m"`
}

// LoadConfig loads a .env file, if present, and parses
// the environment into a Config
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SetupLogging sets the global log level
func (cfg *Config) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

// DefaultLanguage returns the configured language
func (cfg *Config) DefaultLanguage() (Language, error) {
	return ParseLanguage(cfg.Language)
}

// Rules returns the default rules, adjusted by the configuration
func (cfg *Config) Rules() (Rules, error) {
	rules := DefaultRules()
	rules.BoardSize = cfg.BoardSize
	rules.Adjacency = cfg.Adjacency
	rules.MaxRejections = cfg.MaxRejections
	if err := rules.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}

// Registry returns the vocabulary registry to load word lists from:
// the configured directory, or the embedded word lists
func (cfg *Config) Registry() *Registry {
	if cfg.DictDir != "" {
		return NewRegistry(DirSource(cfg.DictDir))
	}
	return DefaultRegistry
}

// StoreConfig returns the configuration of the save store
func (cfg *Config) StoreConfig() storage.Config {
	return storage.Config{
		Kind:    cfg.Store,
		Path:    cfg.StorePath,
		Project: cfg.DatastoreProject,
	}
}
