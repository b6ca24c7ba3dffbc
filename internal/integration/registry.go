// Package integration hosts the collaborators the engine assumes but does not
// depend on: user model registration (consent-gated), and the workflow export
// and database save hooks. Export and save are success-reporting stubs; only
// their boolean contract matters to the engine.
package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

var (
	ErrConsentRequired = errors.New("model integration requires explicit user consent")
	ErrModelExists     = errors.New("model already registered")
)

// Registry records user-supplied models after an explicit consent check.
type Registry struct {
	logger *slog.Logger

	mu     sync.RWMutex
	models map[string]any
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		logger: logger,
		models: make(map[string]any),
	}
}

// RegisterModel records a model under the given name. Without consent the
// registration fails with ErrConsentRequired; this is the one condition the
// pipeline surfaces to callers rather than resolving locally.
func (r *Registry) RegisterModel(name string, model any, consent bool) error {
	if name == "" {
		return errors.New("model name is required")
	}
	if model == nil {
		return errors.New("model is required")
	}
	if !consent {
		return fmt.Errorf("%w: %s", ErrConsentRequired, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; exists {
		return fmt.Errorf("%w: %s", ErrModelExists, name)
	}
	r.models[name] = model
	r.logger.Info("model registered", "name", name)
	return nil
}

func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportWorkflow reports the run to an external workflow system. The current
// implementation only acknowledges success.
func (r *Registry) ExportWorkflow(ctx context.Context, runID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.logger.Info("workflow exported", "run_id", runID)
	return true, nil
}

// SaveToDatabase mirrors the run to an external database. The current
// implementation only acknowledges success; durable history lives in the
// storage package.
func (r *Registry) SaveToDatabase(ctx context.Context, runID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.logger.Info("database save acknowledged", "run_id", runID)
	return true, nil
}
