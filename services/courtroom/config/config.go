// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the courtroom service configuration from YAML
// with environment overrides for deployment-varying values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/CourtSim/services/llm"
)

var validate = validator.New()

// Config is the full service configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// CaseDir is the case library directory.
	CaseDir string `yaml:"case_dir" validate:"required"`

	// DataDir holds the embedded database.
	DataDir string `yaml:"data_dir" validate:"required"`

	// JudicialMemory enables cross-case judge experience.
	JudicialMemory bool `yaml:"judicial_memory"`

	// DefaultJurors is the panel size for new simulations that do not
	// specify one. Zero runs bench trials.
	DefaultJurors int `yaml:"default_jurors" validate:"gte=0,lte=12"`

	// TurnDelay paces autonomous simulation turns.
	TurnDelay time.Duration `yaml:"turn_delay" validate:"gte=0"`

	// Provider configures the generation gateway.
	Provider llm.ProviderConfig `yaml:"provider"`

	// OTLPEndpoint enables trace export when set (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	Log LogConfig `yaml:"log"`
}

// LogConfig tunes the structured logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

// Default returns the local-first defaults: ollama on localhost,
// embedded storage under ./data, cases under ./cases.
func Default() Config {
	return Config{
		ListenAddr:     ":8089",
		CaseDir:        "./cases",
		DataDir:        "./data",
		JudicialMemory: true,
		DefaultJurors:  0,
		TurnDelay:      500 * time.Millisecond,
		Provider:       llm.DefaultConfig(),
		Log:            LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns defaults untouched; either way environment overrides apply
// last and the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		blob, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(blob, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Provider.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays the deployment-varying environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COURTSIM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("COURTSIM_CASE_DIR"); v != "" {
		cfg.CaseDir = v
	}
	if v := os.Getenv("COURTSIM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("COURTSIM_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("COURTSIM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COURTSIM_PROVIDER"); v != "" {
		cfg.Provider.Provider = v
	}
	if v := os.Getenv("COURTSIM_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("COURTSIM_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
}
