// Package engine sequences the energy pipeline: transport chain into battery
// and condensate, threshold withdrawal, activation, and the feedback of
// unused energy. It owns one instance of every component; nothing else holds
// references to them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"qatpx/internal/backend"
	"qatpx/internal/chain"
	"qatpx/internal/forecast"
	"qatpx/internal/nqpu"
	"qatpx/internal/reservoir"
)

var ErrInvalidInput = errors.New("input energy must be a non-negative finite number")

// Config carries the pipeline parameters. Zero values select the defaults of
// the underlying components.
type Config struct {
	ChainLength        int
	BaseEfficiency     float64
	CoherenceFactor    float64
	CondensateCapacity float64
	BatteryCapacity    float64
	BatteryEfficiency  float64
	AdaptiveDischarge  bool
	Threshold          float64
	CoherenceDecay     float64
	LearningRate       float64
	KeyPrecision       float64

	// PriorityLevel is used for both battery discharge and activation in a
	// cycle.
	PriorityLevel int

	// Rand drives the tunneling decision. Required: activation outcomes must
	// be reproducible under a seeded source.
	Rand *rand.Rand

	// Logger defaults to a discard logger.
	Logger *slog.Logger

	// Backend, when set, handles Compute calls; on failure the engine falls
	// back to the internal simulation.
	Backend backend.Backend
}

// CycleResult is the energy accounting of one cycle.
type CycleResult struct {
	Input     float64
	Delivered float64
	Stored    float64
	Overflow  float64
	Available float64
	Activated bool
}

// System owns the pipeline components and sequences them.
type System struct {
	chain      *chain.Chain
	condensate *reservoir.Condensate
	battery    *reservoir.Battery
	unit       *nqpu.Unit
	predictor  *forecast.Predictor

	priority int
	logger   *slog.Logger
	backend  backend.Backend
}

func New(cfg Config) (*System, error) {
	if cfg.Rand == nil {
		return nil, errors.New("rand source is required")
	}
	if cfg.ChainLength == 0 {
		cfg.ChainLength = chain.DefaultLength
	}
	if cfg.BaseEfficiency == 0 {
		cfg.BaseEfficiency = chain.DefaultBaseEfficiency
	}
	if cfg.CoherenceFactor == 0 {
		cfg.CoherenceFactor = chain.DefaultCoherenceFactor
	}
	if cfg.CondensateCapacity == 0 {
		cfg.CondensateCapacity = reservoir.DefaultCondensateCapacity
	}
	if cfg.BatteryCapacity == 0 {
		cfg.BatteryCapacity = reservoir.DefaultBatteryCapacity
	}
	if cfg.BatteryEfficiency == 0 {
		cfg.BatteryEfficiency = reservoir.DefaultBatteryEfficiency
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = nqpu.DefaultThreshold
	}
	if cfg.CoherenceDecay == 0 {
		cfg.CoherenceDecay = nqpu.DefaultCoherenceDecay
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = nqpu.DefaultLearningRate
	}
	if cfg.KeyPrecision == 0 {
		cfg.KeyPrecision = nqpu.DefaultKeyPrecision
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c, err := chain.New(cfg.ChainLength, cfg.BaseEfficiency, cfg.CoherenceFactor)
	if err != nil {
		return nil, fmt.Errorf("transport chain: %w", err)
	}
	condensate, err := reservoir.NewCondensate(cfg.CondensateCapacity)
	if err != nil {
		return nil, fmt.Errorf("condensate: %w", err)
	}
	battery, err := reservoir.NewBattery(cfg.BatteryCapacity, cfg.BatteryEfficiency, cfg.AdaptiveDischarge)
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	unit, err := nqpu.New(nqpu.Config{
		Threshold:      cfg.Threshold,
		CoherenceDecay: cfg.CoherenceDecay,
		LearningRate:   cfg.LearningRate,
		KeyPrecision:   cfg.KeyPrecision,
		Rand:           cfg.Rand,
	})
	if err != nil {
		return nil, fmt.Errorf("activation unit: %w", err)
	}

	return &System{
		chain:      c,
		condensate: condensate,
		battery:    battery,
		unit:       unit,
		predictor:  forecast.NewPredictor(),
		priority:   cfg.PriorityLevel,
		logger:     cfg.Logger,
		backend:    cfg.Backend,
	}, nil
}

// EnergyCycle runs one full cycle: transport, storage with overflow routed to
// the condensate, threshold withdrawal (battery first, condensate fallback),
// activation, and return of the withdrawn energy to the battery on
// non-activation.
func (s *System) EnergyCycle(input float64) (CycleResult, error) {
	if input < 0 || math.IsNaN(input) || math.IsInf(input, 0) {
		return CycleResult{}, fmt.Errorf("%w: %f", ErrInvalidInput, input)
	}

	delivered := s.chain.Transport(input)

	stored := s.battery.Charge(delivered)
	excess := delivered - stored
	var overflow float64
	if excess > 0 {
		overflow = s.condensate.Absorb(excess)
		if overflow > 0 {
			s.logger.Warn("condensate full, energy lost", "amount", overflow)
		}
	}

	threshold := s.unit.Threshold()
	available := s.battery.Discharge(threshold, s.priority)
	if available < threshold {
		available += s.condensate.Release(threshold - available)
	}

	activated := s.unit.Process(available, s.priority)
	if !activated {
		s.battery.Charge(available)
	}
	s.predictor.LogUsage(available)

	s.logger.Debug("energy cycle",
		"input", input,
		"delivered", delivered,
		"stored", stored,
		"available", available,
		"activated", activated,
	)

	return CycleResult{
		Input:     input,
		Delivered: delivered,
		Stored:    stored,
		Overflow:  excess,
		Available: available,
		Activated: activated,
	}, nil
}

// HybridProcess combines a classical transformation with an energy cycle: the
// doubled input drives the pipeline, and the activation outcome contributes
// 1.0 to the classical output.
func (s *System) HybridProcess(classicalInput float64) (float64, error) {
	classicalOutput := classicalInput * 2.0
	result, err := s.EnergyCycle(classicalOutput)
	if err != nil {
		return 0, err
	}
	if result.Activated {
		return classicalOutput + 1.0, nil
	}
	return classicalOutput, nil
}

// Compute dispatches a numeric sequence to the configured hardware backend.
// When no backend is set or the invocation fails, the internal simulated
// computation (reverse and double) is used instead.
func (s *System) Compute(ctx context.Context, data []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.backend != nil {
		out, err := s.backend.Run(ctx, data)
		if err == nil {
			return out, nil
		}
		s.logger.Warn("backend failed, using simulation", "backend", s.backend.Name(), "error", err)
	}
	return backend.Simulate(data), nil
}

// ComputeScalar is the scalar form of Compute: backends see a one-element
// sequence, and the simulated fallback is the identity.
func (s *System) ComputeScalar(ctx context.Context, value float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.backend != nil {
		out, err := s.backend.Run(ctx, []float64{value})
		if err == nil && len(out) == 1 {
			return out[0], nil
		}
		if err != nil {
			s.logger.Warn("backend failed, using identity", "backend", s.backend.Name(), "error", err)
		}
	}
	return value, nil
}

// AdjustCoherence retunes the transport chain's coherence factor for the
// given system load.
func (s *System) AdjustCoherence(systemLoad float64) {
	s.chain.AdjustCoherence(systemLoad)
	s.logger.Debug("coherence adjusted", "load", systemLoad, "factor", s.chain.CoherenceFactor())
}

// OptimizeDischarge draws energy sized by the usage forecast.
func (s *System) OptimizeDischarge(systemLoad float64) float64 {
	return s.predictor.OptimizeDischarge(s.battery, systemLoad, s.priority)
}

func (s *System) Chain() *chain.Chain {
	return s.chain
}

func (s *System) Condensate() *reservoir.Condensate {
	return s.condensate
}

func (s *System) Battery() *reservoir.Battery {
	return s.battery
}

func (s *System) Unit() *nqpu.Unit {
	return s.unit
}
