package storage

import (
	"context"
	"testing"

	"qatpx/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{
		VersionedRecord: Stamp(),
		ID:              "run-1",
		CreatedAtUTC:    "2026-08-25T00:00:00Z",
		ChainLength:     5,
		Cycles:          3,
		Activations:     2,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := s.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if got.Cycles != 3 || got.Activations != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}

	if _, ok, err := s.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsOrderedAndLimited(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	times := []string{
		"2026-08-25T00:00:01Z",
		"2026-08-25T00:00:03Z",
		"2026-08-25T00:00:02Z",
	}
	for i, ts := range times {
		run := model.RunRecord{VersionedRecord: Stamp(), ID: string(rune('a' + i)), CreatedAtUTC: ts}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "c" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestMemoryStoreCyclesCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	cycles := []model.CycleRecord{{VersionedRecord: Stamp(), RunID: "run-1", Sequence: 0, InputEnergy: 3.0}}
	if err := s.SaveCycles(ctx, "run-1", cycles); err != nil {
		t.Fatalf("save cycles: %v", err)
	}
	cycles[0].InputEnergy = 99.0

	got, ok, err := s.GetCycles(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get cycles: ok=%v err=%v", ok, err)
	}
	if got[0].InputEnergy != 3.0 {
		t.Fatalf("stored cycles must not alias caller slice, got %f", got[0].InputEnergy)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := model.RunRecord{VersionedRecord: Stamp(), ID: "run-1", CreatedAtUTC: "2026-08-25T00:00:00Z"}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := s.SaveCycles(ctx, "run-1", []model.CycleRecord{{VersionedRecord: Stamp(), RunID: "run-1"}}); err != nil {
		t.Fatalf("save cycles: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, err := s.GetRun(ctx, "run-1"); err != nil || ok {
		t.Fatalf("run survived reset: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.GetCycles(ctx, "run-1"); err != nil || ok {
		t.Fatalf("cycles survived reset: ok=%v err=%v", ok, err)
	}

	// The store stays usable after a reset.
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}

func TestMemoryStoreExperienceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	snapshot := model.ExperienceSnapshot{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		Levels: []model.ExperienceLevel{
			{Energy: 0.5, Probability: 0.74, Coherence: 0.92},
		},
	}
	if err := s.SaveExperience(ctx, snapshot); err != nil {
		t.Fatalf("save experience: %v", err)
	}

	got, ok, err := s.GetExperience(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get experience: ok=%v err=%v", ok, err)
	}
	if len(got.Levels) != 1 || got.Levels[0].Probability != 0.74 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}
