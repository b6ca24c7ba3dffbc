package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"qatpx/internal/config"
	"qatpx/internal/logging"
	"qatpx/internal/storage"
	qatpapi "qatpx/pkg/qatpx"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "cycle":
		return runCycle(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "hybrid":
		return runHybrid(ctx, args[1:])
	case "compute":
		return runCompute(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "experience":
		return runExperience(ctx, args[1:])
	case "coherence":
		return runCoherence(ctx, args[1:])
	case "backends":
		return runBackends(ctx, args[1:])
	case "register":
		return runRegister(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: qatpctl <init|reset|cycle|run|hybrid|compute|runs|history|experience|coherence|backends|register|export> [flags]", msg)
}

// explicitFlags reports which flags the user actually passed, so config file
// values cannot shadow them.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func newClient(storeKind, dbPath, logLevel string) (*qatpapi.Client, error) {
	return qatpapi.New(qatpapi.Options{
		StoreKind: storeKind,
		DBPath:    dbPath,
		Logger:    logging.NewLogger(logLevel, os.Stderr),
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	configPath := fs.String("config", "", "yaml config file with engine parameters")
	input := fs.Float64("input", 3.0, "input energy per cycle")
	inputs := fs.String("inputs", "", "comma-separated input energies (overrides -input)")
	cycles := fs.Int("cycles", 1, "number of cycles")
	seed := fs.Int64("seed", 0, "rand seed (0 = time-based)")
	load := fs.Float64("load", 0, "system load for coherence adjustment")
	backendName := fs.String("backend", "", "hardware backend name")
	priority := fs.Int("priority", 0, "priority level for discharge and activation")
	optimize := fs.Bool("optimize", false, "forecast-sized battery discharge after each cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	explicit := explicitFlags(fs)

	req := qatpapi.RunRequest{
		InputEnergy:       *input,
		Cycles:            *cycles,
		Seed:              *seed,
		SystemLoad:        *load,
		Backend:           *backendName,
		PriorityLevel:     *priority,
		OptimizeDischarge: *optimize,
	}
	if *inputs != "" {
		parsed, err := parseFloats(*inputs)
		if err != nil {
			return err
		}
		req.Inputs = parsed
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyEngineConfig(&req, cfg.Engine)
	store, db, level := resolveAmbient(cfg, explicit, *storeKind, *dbPath, *logLevel)

	client, err := newClient(store, db, level)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: cycles=%d activations=%d battery=%.4f condensate=%.4f\n",
		summary.RunID, summary.Cycles, summary.Activations,
		summary.FinalBatteryEnergy, summary.FinalCondensateEnergy)
	if *optimize {
		fmt.Printf("optimized discharge: %.4f\n", summary.OptimizedEnergy)
	}
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runCycle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cycle", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	input := fs.Float64("input", 3.0, "input energy")
	seed := fs.Int64("seed", 0, "rand seed (0 = time-based)")
	load := fs.Float64("load", 0, "system load for coherence adjustment")
	backendName := fs.String("backend", "", "hardware backend name")
	priority := fs.Int("priority", 0, "priority level for discharge and activation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, qatpapi.RunRequest{
		InputEnergy:   *input,
		Cycles:        1,
		Seed:          *seed,
		SystemLoad:    *load,
		Backend:       *backendName,
		PriorityLevel: *priority,
	})
	if err != nil {
		return err
	}
	history, err := client.History(ctx, qatpapi.HistoryRequest{RunID: summary.RunID})
	if err != nil {
		return err
	}
	cycle := history[0]
	fmt.Printf("cycle %s: input=%.4f delivered=%.4f available=%.4f activated=%v battery=%.4f condensate=%.4f\n",
		summary.RunID, cycle.InputEnergy, cycle.DeliveredEnergy, cycle.AvailableEnergy,
		cycle.Activated, summary.FinalBatteryEnergy, summary.FinalCondensateEnergy)
	return nil
}

func runCoherence(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("coherence", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	load := fs.Float64("load", 0, "system load")
	length := fs.Int("length", 0, "chain length (0 = default)")
	efficiency := fs.Float64("efficiency", 0, "base efficiency per site (0 = default)")
	coherence := fs.Float64("coherence", 0, "initial coherence factor (0 = default)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "", *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Coherence(qatpapi.CoherenceRequest{
		SystemLoad:      *load,
		ChainLength:     *length,
		BaseEfficiency:  *efficiency,
		CoherenceFactor: *coherence,
	})
	if err != nil {
		return err
	}
	fmt.Printf("coherence: load=%.2f factor=%.4f\n", summary.SystemLoad, summary.Factor)
	return nil
}

func runHybrid(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("hybrid", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	input := fs.Float64("input", 2.5, "classical input")
	seed := fs.Int64("seed", 0, "rand seed (0 = time-based)")
	priority := fs.Int("priority", 0, "priority level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "", *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Hybrid(ctx, qatpapi.HybridRequest{
		ClassicalInput: *input,
		Seed:           *seed,
		PriorityLevel:  *priority,
	})
	if err != nil {
		return err
	}
	fmt.Printf("hybrid: classical=%.4f activated=%v output=%.4f\n",
		summary.ClassicalOutput, summary.Activated, summary.Output)
	return nil
}

func runCompute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compute", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	data := fs.String("data", "", "comma-separated input values")
	value := fs.String("value", "", "single value for scalar computation")
	backendName := fs.String("backend", "", "hardware backend name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" && *value == "" {
		return usageError("compute requires -data or -value")
	}

	client, err := newClient("memory", "", *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *value != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(*value), 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", *value, err)
		}
		out, err := client.ComputeScalar(ctx, qatpapi.ComputeScalarRequest{Value: v, Backend: *backendName})
		if err != nil {
			return err
		}
		fmt.Println(strconv.FormatFloat(out, 'g', -1, 64))
		return nil
	}

	values, err := parseFloats(*data)
	if err != nil {
		return err
	}
	out, err := client.Compute(ctx, qatpapi.ComputeRequest{Data: values, Backend: *backendName})
	if err != nil {
		return err
	}
	parts := make([]string, len(out))
	for i, v := range out {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	fmt.Println(strings.Join(parts, ","))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, qatpapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	for _, item := range runs {
		fmt.Printf("%s\t%s\tseed=%d\tcycles=%d\tactivations=%d\n",
			item.RunID, item.CreatedAtUTC, item.Seed, item.Cycles, item.Activations)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("history requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, qatpapi.HistoryRequest{RunID: *runID})
	if err != nil {
		return err
	}
	for _, cycle := range history {
		fmt.Printf("%d\tinput=%.4f\tdelivered=%.4f\tavailable=%.4f\tactivated=%v\n",
			cycle.Sequence, cycle.InputEnergy, cycle.DeliveredEnergy,
			cycle.AvailableEnergy, cycle.Activated)
	}
	return nil
}

func runExperience(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experience", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("experience requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	levels, err := client.Experience(ctx, qatpapi.ExperienceRequest{RunID: *runID})
	if err != nil {
		return err
	}
	for _, level := range levels {
		fmt.Printf("energy=%.6f\tprobability=%.4f\tcoherence=%.4f\n",
			level.Energy, level.Probability, level.Coherence)
	}
	return nil
}

func runBackends(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("backends", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "", "info")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Backends() {
		fmt.Println(name)
	}
	return nil
}

func runRegister(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	name := fs.String("name", "", "model name")
	consent := fs.Bool("consent", false, "explicit consent to integrate the model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return usageError("register requires -name")
	}

	client, err := newClient("memory", "", *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.RegisterModel(*name, struct{ Name string }{Name: *name}, *consent); err != nil {
		return err
	}
	fmt.Printf("registered model %s\n", *name)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "qatpx.db", "sqlite database path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("export requires -run-id")
	}

	client, err := newClient(*storeKind, *dbPath, *logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if ok, err := client.ExportWorkflow(ctx, *runID); err != nil || !ok {
		return fmt.Errorf("workflow export failed: %v", err)
	}
	if ok, err := client.SaveToDatabase(ctx, *runID); err != nil || !ok {
		return fmt.Errorf("database save failed: %v", err)
	}
	fmt.Printf("exported run %s\n", *runID)
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}
