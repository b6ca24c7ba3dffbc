package main

import (
	"qatpx/internal/config"
	qatpapi "qatpx/pkg/qatpx"
)

// applyEngineConfig copies file-level engine parameters into the request.
// Flags already set on the request win over the file.
func applyEngineConfig(req *qatpapi.RunRequest, cfg config.EngineConfig) {
	if req.ChainLength == 0 {
		req.ChainLength = cfg.ChainLength
	}
	if req.BaseEfficiency == 0 {
		req.BaseEfficiency = cfg.BaseEfficiency
	}
	if req.CoherenceFactor == 0 {
		req.CoherenceFactor = cfg.CoherenceFactor
	}
	if req.CondensateCapacity == 0 {
		req.CondensateCapacity = cfg.CondensateCapacity
	}
	if req.BatteryCapacity == 0 {
		req.BatteryCapacity = cfg.BatteryCapacity
	}
	if req.BatteryEfficiency == 0 {
		req.BatteryEfficiency = cfg.BatteryEfficiency
	}
	if cfg.AdaptiveDischarge {
		req.AdaptiveDischarge = true
	}
	if req.Threshold == 0 {
		req.Threshold = cfg.Threshold
	}
	if req.CoherenceDecay == 0 {
		req.CoherenceDecay = cfg.CoherenceDecay
	}
	if req.LearningRate == 0 {
		req.LearningRate = cfg.LearningRate
	}
	if req.KeyPrecision == 0 {
		req.KeyPrecision = cfg.KeyPrecision
	}
	if req.PriorityLevel == 0 {
		req.PriorityLevel = cfg.PriorityLevel
	}
	if req.Seed == 0 {
		req.Seed = cfg.Seed
	}
	if req.Backend == "" {
		req.Backend = cfg.Backend
	}
}

// resolveAmbient picks store, db path, and log level. Flags set explicitly on
// the command line win; config file values only replace untouched flag
// defaults.
func resolveAmbient(cfg config.SystemConfig, explicit map[string]bool, storeKind, dbPath, logLevel string) (string, string, string) {
	store := storeKind
	if cfg.Store.Kind != "" && !explicit["store"] {
		store = cfg.Store.Kind
	}
	db := dbPath
	if cfg.Store.DBPath != "" && !explicit["db-path"] {
		db = cfg.Store.DBPath
	}
	level := logLevel
	if cfg.Logging.Level != "" && !explicit["log-level"] {
		level = cfg.Logging.Level
	}
	return store, db, level
}
