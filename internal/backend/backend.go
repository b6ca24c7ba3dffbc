// Package backend provides the pluggable hardware backend surface for the
// engine. Backends are registered by name; when none is configured or an
// invocation fails, the engine falls back to the internal simulated
// computation.
package backend

import "context"

// Backend executes a numeric computation on external hardware.
type Backend interface {
	Name() string
	Run(ctx context.Context, data []float64) ([]float64, error)
}

// Simulate is the internal fallback computation for numeric sequences: the
// sequence reversed with every value doubled. Scalar inputs pass through
// unchanged at the call sites.
func Simulate(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[len(data)-1-i] = v * 2
	}
	return out
}
