// Package chain implements the exciton transport chain: a multi-stage lossy
// energy conduit where each stage retains a fixed fraction of the residual
// energy. Inspired by the mitochondrial electron transport chain.
package chain

import (
	"errors"
	"math"
)

const (
	DefaultLength          = 5
	DefaultBaseEfficiency  = 0.95
	DefaultCoherenceFactor = 0.98

	// Coherence adjustment keeps the factor inside this band regardless of load.
	minCoherenceFactor = 0.95
	maxCoherenceFactor = 1.0
)

// Chain transports energy through a fixed number of sites. Each site retains
// baseEfficiency*coherenceFactor of the incoming energy; the per-site residual
// energies are recorded and overwritten on every transport call.
type Chain struct {
	length          int
	baseEfficiency  float64
	coherenceFactor float64
	sites           []float64
}

func New(length int, baseEfficiency, coherenceFactor float64) (*Chain, error) {
	if length <= 0 {
		return nil, errors.New("chain length must be > 0")
	}
	if baseEfficiency <= 0 || baseEfficiency > 1 {
		return nil, errors.New("base efficiency must be in (0, 1]")
	}
	if coherenceFactor <= 0 || coherenceFactor > 1 {
		return nil, errors.New("coherence factor must be in (0, 1]")
	}
	return &Chain{
		length:          length,
		baseEfficiency:  baseEfficiency,
		coherenceFactor: coherenceFactor,
		sites:           make([]float64, length),
	}, nil
}

// Transport runs input energy through every site of the chain and returns the
// energy delivered at the end. The delivered energy equals
// input * (baseEfficiency*coherenceFactor)^length.
func (c *Chain) Transport(input float64) float64 {
	energy := input
	retention := c.baseEfficiency * c.coherenceFactor
	for i := 0; i < c.length; i++ {
		energy *= retention
		c.sites[i] = energy
	}
	return energy
}

// TransportAll applies Transport elementwise, preserving order. The last
// element's residuals are what remain in the site record.
func (c *Chain) TransportAll(inputs []float64) []float64 {
	out := make([]float64, len(inputs))
	for i, input := range inputs {
		out[i] = c.Transport(input)
	}
	return out
}

// AdjustCoherence recomputes the coherence factor from the current system
// load: 1-exp(-load/10), clamped to [0.95, 1.0]. Higher load saturates the
// factor toward its ceiling.
func (c *Chain) AdjustCoherence(systemLoad float64) {
	factor := 1 - math.Exp(-systemLoad/10)
	if factor < minCoherenceFactor {
		factor = minCoherenceFactor
	}
	if factor > maxCoherenceFactor {
		factor = maxCoherenceFactor
	}
	c.coherenceFactor = factor
}

func (c *Chain) Length() int {
	return c.length
}

func (c *Chain) BaseEfficiency() float64 {
	return c.baseEfficiency
}

func (c *Chain) CoherenceFactor() float64 {
	return c.coherenceFactor
}

// Sites returns a copy of the per-site residual energies from the most recent
// transport.
func (c *Chain) Sites() []float64 {
	out := make([]float64, len(c.sites))
	copy(out, c.sites)
	return out
}
