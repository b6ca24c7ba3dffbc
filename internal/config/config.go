// Package config loads system configuration from YAML files with environment
// variable overrides. CLI flags take precedence over both.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	EnvStoreKind = "QATPX_STORE"
	EnvDBPath    = "QATPX_DB_PATH"
	EnvLogLevel  = "QATPX_LOG_LEVEL"
	EnvSeed      = "QATPX_SEED"
)

// SystemConfig contains all qatpx configuration settings.
type SystemConfig struct {
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Kind is "memory" or "sqlite".
	Kind string `yaml:"kind"`
	// DBPath is the sqlite database path, used when Kind is "sqlite".
	DBPath string `yaml:"db_path"`
}

// EngineConfig carries the energy pipeline parameters. Zero values mean "use
// the engine default".
type EngineConfig struct {
	ChainLength        int     `yaml:"chain_length"`
	BaseEfficiency     float64 `yaml:"base_efficiency"`
	CoherenceFactor    float64 `yaml:"coherence_factor"`
	CondensateCapacity float64 `yaml:"condensate_capacity"`
	BatteryCapacity    float64 `yaml:"battery_capacity"`
	BatteryEfficiency  float64 `yaml:"battery_efficiency"`
	AdaptiveDischarge  bool    `yaml:"adaptive_discharge"`
	Threshold          float64 `yaml:"threshold"`
	CoherenceDecay     float64 `yaml:"coherence_decay"`
	LearningRate       float64 `yaml:"learning_rate"`
	KeyPrecision       float64 `yaml:"key_precision"`
	PriorityLevel      int     `yaml:"priority_level"`
	Seed               int64   `yaml:"seed"`
	Backend            string  `yaml:"backend"`
}

// LoggingConfig configures the operational logger.
type LoggingConfig struct {
	// Level sets verbosity: "debug", "info" (default), "warn", or "error".
	Level string `yaml:"level"`
}

// Load reads a YAML config file and applies environment overrides. A missing
// path yields the default configuration; a missing file at an explicit path
// is an error.
func Load(path string) (SystemConfig, error) {
	var cfg SystemConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SystemConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SystemConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *SystemConfig) {
	if v := os.Getenv(EnvStoreKind); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.Seed = seed
		}
	}
}
