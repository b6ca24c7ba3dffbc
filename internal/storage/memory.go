package storage

import (
	"context"
	"sort"
	"sync"

	"qatpx/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	cycles      map[string][]model.CycleRecord
	experience  map[string]model.ExperienceSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.cycles = make(map[string][]model.CycleRecord)
	s.experience = make(map[string]model.ExperienceSnapshot)
	return nil
}

// Reset drops all stored runs, cycles, and experience snapshots.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.cycles = make(map[string][]model.CycleRecord)
	s.experience = make(map[string]model.ExperienceSnapshot)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) SaveCycles(_ context.Context, runID string, cycles []model.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]model.CycleRecord, len(cycles))
	copy(stored, cycles)
	s.cycles[runID] = stored
	return nil
}

func (s *MemoryStore) GetCycles(_ context.Context, runID string) ([]model.CycleRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles, ok := s.cycles[runID]
	if !ok {
		return nil, false, nil
	}
	out := make([]model.CycleRecord, len(cycles))
	copy(out, cycles)
	return out, true, nil
}

func (s *MemoryStore) SaveExperience(_ context.Context, snapshot model.ExperienceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.experience[snapshot.RunID] = snapshot
	return nil
}

func (s *MemoryStore) GetExperience(_ context.Context, runID string) (model.ExperienceSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.experience[runID]
	return snapshot, ok, nil
}
