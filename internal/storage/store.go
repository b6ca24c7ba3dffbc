package storage

import (
	"context"

	"qatpx/internal/model"
)

// Store defines persistence operations for energy run history.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveCycles(ctx context.Context, runID string, cycles []model.CycleRecord) error
	GetCycles(ctx context.Context, runID string) ([]model.CycleRecord, bool, error)
	SaveExperience(ctx context.Context, snapshot model.ExperienceSnapshot) error
	GetExperience(ctx context.Context, runID string) (model.ExperienceSnapshot, bool, error)
}
