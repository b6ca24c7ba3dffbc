// Package qatpx is the public client surface for the QATP energy pipeline:
// it wires the engine to persistence, integration hooks, and hardware
// backends, and exposes run history.
package qatpx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"qatpx/internal/backend"
	"qatpx/internal/engine"
	"qatpx/internal/integration"
	"qatpx/internal/model"
	"qatpx/internal/storage"
)


type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
}

type Client struct {
	store    storage.Store
	registry *integration.Registry
	logger   *slog.Logger

	mu          sync.Mutex
	initialized bool
}

// RunRequest drives a batch of energy cycles through one freshly constructed
// system. Zero-valued parameters use the engine defaults.
type RunRequest struct {
	// Inputs are the cycle input energies. When empty, InputEnergy is
	// repeated Cycles times.
	Inputs      []float64
	InputEnergy float64
	Cycles      int

	Seed               int64
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
	PriorityLevel      int

	// SystemLoad, when > 0, retunes the chain coherence before cycling.
	SystemLoad float64

	// OptimizeDischarge performs a forecast-sized battery discharge after
	// each cycle; the drawn energy is reported on the summary.
	OptimizeDischarge bool

	// Backend names a registered hardware backend for the run's system.
	Backend string
}

type RunSummary struct {
	RunID       string
	Cycles      int
	Activations int
	// FinalBatteryEnergy and FinalCondensateEnergy report reservoir levels
	// after the last cycle.
	FinalBatteryEnergy    float64
	FinalCondensateEnergy float64

	// OptimizedEnergy is the total energy drawn by forecast-sized discharges
	// when RunRequest.OptimizeDischarge is set.
	OptimizedEnergy float64
}

type HybridRequest struct {
	ClassicalInput float64
	Seed           int64
	PriorityLevel  int
}

type HybridSummary struct {
	ClassicalOutput float64
	Activated       bool
	Output          float64
}

type ComputeRequest struct {
	Data    []float64
	Backend string
}

type ComputeScalarRequest struct {
	Value   float64
	Backend string
}

type CoherenceRequest struct {
	SystemLoad      float64
	ChainLength     int
	BaseEfficiency  float64
	CoherenceFactor float64
}

type CoherenceSummary struct {
	SystemLoad float64
	Factor     float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Seed         int64
	Cycles       int
	Activations  int
}

type HistoryRequest struct {
	RunID string
}

type CycleItem struct {
	Sequence        int
	InputEnergy     float64
	DeliveredEnergy float64
	AvailableEnergy float64
	Activated       bool
}

type ExperienceRequest struct {
	RunID string
}

type ExperienceItem struct {
	Energy      float64
	Probability float64
	Coherence   float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = storage.DefaultSQLitePath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:    store,
		registry: integration.NewRegistry(logger),
		logger:   logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureInit(ctx)
}

// Run executes a batch of energy cycles and persists the run, its cycles,
// and the learned experience snapshot.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if len(req.Inputs) == 0 {
		if req.Cycles <= 0 {
			req.Cycles = 1
		}
		if req.InputEnergy == 0 {
			req.InputEnergy = 3.0
		}
		req.Inputs = make([]float64, req.Cycles)
		for i := range req.Inputs {
			req.Inputs[i] = req.InputEnergy
		}
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, err
	}

	system, err := c.newSystem(systemParams{
		Seed:               req.Seed,
		ChainLength:        req.ChainLength,
		BaseEfficiency:     req.BaseEfficiency,
		CoherenceFactor:    req.CoherenceFactor,
		CondensateCapacity: req.CondensateCapacity,
		BatteryCapacity:    req.BatteryCapacity,
		BatteryEfficiency:  req.BatteryEfficiency,
		AdaptiveDischarge:  req.AdaptiveDischarge,
		Threshold:          req.Threshold,
		CoherenceDecay:     req.CoherenceDecay,
		LearningRate:       req.LearningRate,
		KeyPrecision:       req.KeyPrecision,
		PriorityLevel:      req.PriorityLevel,
		Backend:            req.Backend,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if req.SystemLoad > 0 {
		system.AdjustCoherence(req.SystemLoad)
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("qatp-%d-%d", req.Seed, now.Unix())

	cycles := make([]model.CycleRecord, 0, len(req.Inputs))
	activations := 0
	var optimized float64
	for i, input := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		result, err := system.EnergyCycle(input)
		if err != nil {
			return RunSummary{}, fmt.Errorf("cycle %d: %w", i, err)
		}
		if result.Activated {
			activations++
		}
		if req.OptimizeDischarge {
			optimized += system.OptimizeDischarge(req.SystemLoad)
		}
		cycles = append(cycles, model.CycleRecord{
			VersionedRecord:  storage.Stamp(),
			RunID:            runID,
			Sequence:         i,
			InputEnergy:      result.Input,
			DeliveredEnergy:  result.Delivered,
			StoredEnergy:     result.Stored,
			OverflowEnergy:   result.Overflow,
			AvailableEnergy:  result.Available,
			Activated:        result.Activated,
			BatteryEnergy:    system.Battery().Energy(),
			CondensateEnergy: system.Condensate().Stored(),
		})
	}

	run := model.RunRecord{
		VersionedRecord:    storage.Stamp(),
		ID:                 runID,
		CreatedAtUTC:       now.Format(time.RFC3339Nano),
		Seed:               req.Seed,
		ChainLength:        system.Chain().Length(),
		BaseEfficiency:     system.Chain().BaseEfficiency(),
		CoherenceFactor:    system.Chain().CoherenceFactor(),
		CondensateCapacity: system.Condensate().Capacity(),
		BatteryCapacity:    system.Battery().MaxEnergy(),
		BatteryEfficiency:  system.Battery().Efficiency(),
		AdaptiveDischarge:  system.Battery().Adaptive(),
		Threshold:          system.Unit().Threshold(),
		PriorityLevel:      req.PriorityLevel,
		Cycles:             len(cycles),
		Activations:        activations,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveCycles(ctx, runID, cycles); err != nil {
		return RunSummary{}, fmt.Errorf("save cycles: %w", err)
	}
	if err := c.store.SaveExperience(ctx, experienceSnapshot(runID, system)); err != nil {
		return RunSummary{}, fmt.Errorf("save experience: %w", err)
	}

	c.logger.Info("run complete", "run_id", runID, "cycles", len(cycles), "activations", activations)

	return RunSummary{
		RunID:                 runID,
		Cycles:                len(cycles),
		Activations:           activations,
		FinalBatteryEnergy:    system.Battery().Energy(),
		FinalCondensateEnergy: system.Condensate().Stored(),
		OptimizedEnergy:       optimized,
	}, nil
}

// Reset clears all persisted runs, cycle histories, and experience snapshots.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureInit(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

// Hybrid runs one hybrid classical/energy computation on a fresh system.
func (c *Client) Hybrid(ctx context.Context, req HybridRequest) (HybridSummary, error) {
	if err := ctx.Err(); err != nil {
		return HybridSummary{}, err
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	system, err := c.newSystem(systemParams{Seed: req.Seed, PriorityLevel: req.PriorityLevel})
	if err != nil {
		return HybridSummary{}, err
	}

	out, err := system.HybridProcess(req.ClassicalInput)
	if err != nil {
		return HybridSummary{}, err
	}
	classicalOutput := req.ClassicalInput * 2.0
	return HybridSummary{
		ClassicalOutput: classicalOutput,
		Activated:       out > classicalOutput,
		Output:          out,
	}, nil
}

// Compute dispatches data to a named hardware backend, falling back to the
// internal simulation when the backend is missing or fails.
func (c *Client) Compute(ctx context.Context, req ComputeRequest) ([]float64, error) {
	system, err := c.newSystem(systemParams{Seed: 1, Backend: req.Backend})
	if err != nil {
		return nil, err
	}
	return system.Compute(ctx, req.Data)
}

// ComputeScalar is the scalar form of Compute; without a working backend the
// value passes through unchanged.
func (c *Client) ComputeScalar(ctx context.Context, req ComputeScalarRequest) (float64, error) {
	system, err := c.newSystem(systemParams{Seed: 1, Backend: req.Backend})
	if err != nil {
		return 0, err
	}
	return system.ComputeScalar(ctx, req.Value)
}

// Coherence reports the transport coherence factor a chain settles on under
// the given system load.
func (c *Client) Coherence(req CoherenceRequest) (CoherenceSummary, error) {
	system, err := c.newSystem(systemParams{
		Seed:            1,
		ChainLength:     req.ChainLength,
		BaseEfficiency:  req.BaseEfficiency,
		CoherenceFactor: req.CoherenceFactor,
	})
	if err != nil {
		return CoherenceSummary{}, err
	}
	system.AdjustCoherence(req.SystemLoad)
	return CoherenceSummary{
		SystemLoad: req.SystemLoad,
		Factor:     system.Chain().CoherenceFactor(),
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		items = append(items, RunItem{
			RunID:        run.ID,
			CreatedAtUTC: run.CreatedAtUTC,
			Seed:         run.Seed,
			Cycles:       run.Cycles,
			Activations:  run.Activations,
		})
	}
	return items, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]CycleItem, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	cycles, ok, err := c.store.GetCycles(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cycle history not found for run id: %s", req.RunID)
	}
	items := make([]CycleItem, 0, len(cycles))
	for _, cycle := range cycles {
		items = append(items, CycleItem{
			Sequence:        cycle.Sequence,
			InputEnergy:     cycle.InputEnergy,
			DeliveredEnergy: cycle.DeliveredEnergy,
			AvailableEnergy: cycle.AvailableEnergy,
			Activated:       cycle.Activated,
		})
	}
	return items, nil
}

func (c *Client) Experience(ctx context.Context, req ExperienceRequest) ([]ExperienceItem, error) {
	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	snapshot, ok, err := c.store.GetExperience(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("experience not found for run id: %s", req.RunID)
	}
	items := make([]ExperienceItem, 0, len(snapshot.Levels))
	for _, level := range snapshot.Levels {
		items = append(items, ExperienceItem{
			Energy:      level.Energy,
			Probability: level.Probability,
			Coherence:   level.Coherence,
		})
	}
	return items, nil
}

// RegisterModel records a user-supplied model; without consent it fails with
// integration.ErrConsentRequired.
func (c *Client) RegisterModel(name string, m any, consent bool) error {
	return c.registry.RegisterModel(name, m, consent)
}

func (c *Client) ExportWorkflow(ctx context.Context, runID string) (bool, error) {
	return c.registry.ExportWorkflow(ctx, runID)
}

func (c *Client) SaveToDatabase(ctx context.Context, runID string) (bool, error) {
	return c.registry.SaveToDatabase(ctx, runID)
}

// Backends lists the registered hardware backends.
func (c *Client) Backends() []string {
	return backend.List()
}

type systemParams struct {
	Seed               int64
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
	PriorityLevel      int
	Backend            string
}

func (c *Client) newSystem(params systemParams) (*engine.System, error) {
	var hw backend.Backend
	if params.Backend != "" {
		resolved, err := backend.Resolve(params.Backend)
		if err != nil {
			return nil, err
		}
		hw = resolved
	}

	return engine.New(engine.Config{
		ChainLength:        params.ChainLength,
		BaseEfficiency:     params.BaseEfficiency,
		CoherenceFactor:    params.CoherenceFactor,
		CondensateCapacity: params.CondensateCapacity,
		BatteryCapacity:    params.BatteryCapacity,
		BatteryEfficiency:  params.BatteryEfficiency,
		AdaptiveDischarge:  params.AdaptiveDischarge,
		Threshold:          params.Threshold,
		CoherenceDecay:     params.CoherenceDecay,
		LearningRate:       params.LearningRate,
		KeyPrecision:       params.KeyPrecision,
		PriorityLevel:      params.PriorityLevel,
		Rand:               rand.New(rand.NewSource(params.Seed)),
		Logger:             c.logger,
		Backend:            hw,
	})
}

func (c *Client) ensureInit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func experienceSnapshot(runID string, system *engine.System) model.ExperienceSnapshot {
	experience := system.Unit().Experience()
	coherence := system.Unit().CoherenceMemory()
	levels := make([]model.ExperienceLevel, 0, len(experience))
	for energy, probability := range experience {
		levels = append(levels, model.ExperienceLevel{
			Energy:      energy,
			Probability: probability,
			Coherence:   coherence[energy],
		})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Energy < levels[j].Energy })
	return model.ExperienceSnapshot{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		Levels:          levels,
	}
}
