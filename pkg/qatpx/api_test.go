package qatpx

import (
	"context"
	"errors"
	"math"
	"testing"

	"qatpx/internal/integration"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRunPersistsHistory(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{
		InputEnergy:     10.0,
		Cycles:          3,
		Seed:            7,
		ChainLength:     5,
		BaseEfficiency:  0.95,
		CoherenceFactor: 1.0,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Cycles != 3 {
		t.Fatalf("expected 3 cycles, got %d", summary.Cycles)
	}
	// 10.0 input always delivers a full threshold withdrawal.
	if summary.Activations != 3 {
		t.Fatalf("expected 3 activations, got %d", summary.Activations)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 10})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	history, err := client.History(ctx, HistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 cycle records, got %d", len(history))
	}
	wantDelivered := 10.0 * math.Pow(0.95, 5)
	if math.Abs(history[0].DeliveredEnergy-wantDelivered) > 1e-9 {
		t.Fatalf("delivered: got %f want %f", history[0].DeliveredEnergy, wantDelivered)
	}

	experience, err := client.Experience(ctx, ExperienceRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("experience: %v", err)
	}
	if len(experience) == 0 {
		t.Fatal("expected learned experience levels")
	}
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	ctx := context.Background()

	var activations [2]int
	for i := range activations {
		client := newTestClient(t)
		summary, err := client.Run(ctx, RunRequest{
			InputEnergy: 0.4,
			Cycles:      20,
			Seed:        99,
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		activations[i] = summary.Activations
	}
	if activations[0] != activations[1] {
		t.Fatalf("same seed should reproduce activations: %d vs %d", activations[0], activations[1])
	}
}

func TestRunRejectsNegativeInput(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.Run(context.Background(), RunRequest{Inputs: []float64{-3.0}, Seed: 1}); err == nil {
		t.Fatal("expected invalid input error")
	}
}

func TestHybrid(t *testing.T) {
	client := newTestClient(t)

	summary, err := client.Hybrid(context.Background(), HybridRequest{ClassicalInput: 2.5, Seed: 1})
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	if summary.ClassicalOutput != 5.0 {
		t.Fatalf("classical output: got %f", summary.ClassicalOutput)
	}
	if summary.Output < summary.ClassicalOutput {
		t.Fatalf("output should be at least the classical part: %f", summary.Output)
	}
}

func TestRunOptimizedDischarge(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{
		InputEnergy:       10.0,
		Cycles:            3,
		Seed:              7,
		OptimizeDischarge: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.OptimizedEnergy <= 0 {
		t.Fatalf("expected forecast-sized discharges to draw energy, got %f", summary.OptimizedEnergy)
	}

	plain, err := client.Run(ctx, RunRequest{InputEnergy: 10.0, Cycles: 3, Seed: 7})
	if err != nil {
		t.Fatalf("plain run: %v", err)
	}
	if plain.OptimizedEnergy != 0 {
		t.Fatalf("plain run should not report optimized energy: %f", plain.OptimizedEnergy)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{InputEnergy: 10.0, Seed: 7})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if err := client.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("runs survived reset: %+v", runs)
	}
	if _, err := client.History(ctx, HistoryRequest{RunID: summary.RunID}); err == nil {
		t.Fatal("history should be gone after reset")
	}
}

func TestCoherence(t *testing.T) {
	client := newTestClient(t)

	idle, err := client.Coherence(CoherenceRequest{SystemLoad: 0})
	if err != nil {
		t.Fatalf("coherence: %v", err)
	}
	if idle.Factor != 0.95 {
		t.Fatalf("idle load should settle at the lower clamp, got %f", idle.Factor)
	}

	busy, err := client.Coherence(CoherenceRequest{SystemLoad: 1e6})
	if err != nil {
		t.Fatalf("coherence: %v", err)
	}
	if busy.Factor != 1.0 {
		t.Fatalf("saturating load should settle at the upper clamp, got %f", busy.Factor)
	}
}

func TestComputeScalarIdentityFallback(t *testing.T) {
	client := newTestClient(t)

	out, err := client.ComputeScalar(context.Background(), ComputeScalarRequest{Value: 3.5})
	if err != nil {
		t.Fatalf("compute scalar: %v", err)
	}
	if out != 3.5 {
		t.Fatalf("scalar fallback is the identity, got %f", out)
	}
}

func TestComputeFallbackWithoutBackend(t *testing.T) {
	client := newTestClient(t)

	out, err := client.Compute(context.Background(), ComputeRequest{Data: []float64{1, 2, 3}})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []float64{6, 4, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("compute[%d]: got %f want %f", i, out[i], want[i])
		}
	}
}

func TestComputeUnknownBackend(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.Compute(context.Background(), ComputeRequest{Data: []float64{1}, Backend: "missing"}); err == nil {
		t.Fatal("expected backend resolution error")
	}
}

func TestRegisterModelConsent(t *testing.T) {
	client := newTestClient(t)

	err := client.RegisterModel("external", struct{}{}, false)
	if !errors.Is(err, integration.ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
	if err := client.RegisterModel("external", struct{}{}, true); err != nil {
		t.Fatalf("register with consent: %v", err)
	}
}

func TestExportStubs(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	ok, err := client.ExportWorkflow(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("export workflow: ok=%v err=%v", ok, err)
	}
	ok, err = client.SaveToDatabase(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("save to database: ok=%v err=%v", ok, err)
	}
}

func TestHistoryMissingRun(t *testing.T) {
	client := newTestClient(t)

	if _, err := client.History(context.Background(), HistoryRequest{RunID: "absent"}); err == nil {
		t.Fatal("expected missing history error")
	}
}
