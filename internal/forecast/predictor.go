// Package forecast implements demand prediction for the energy pipeline: a
// recency-weighted average over recorded usage that drives discharge
// optimization.
package forecast

import "qatpx/internal/reservoir"

const (
	maxHistory     = 100
	recentWindow   = 10
	minSamples     = 5
	baseUsage      = 1.0
	minWeight      = 0.2
	maxWeight      = 1.0
	overDischarge  = 1.1
	underDischarge = 0.9
)

// Predictor tracks past energy usage and predicts upcoming demand.
type Predictor struct {
	history []float64
}

func NewPredictor() *Predictor {
	return &Predictor{}
}

// PredictUsage estimates the next demand from recent usage. With fewer than
// five samples it falls back to the plain mean, or a base usage of 1.0 when
// there is no history at all. Otherwise recent samples are weighted linearly
// from 0.2 (oldest) to 1.0 (newest).
func (p *Predictor) PredictUsage(recent []float64) float64 {
	if len(recent) < minSamples {
		if len(recent) == 0 {
			return baseUsage
		}
		var sum float64
		for _, v := range recent {
			sum += v
		}
		return sum / float64(len(recent))
	}

	step := (maxWeight - minWeight) / float64(len(recent)-1)
	var weighted, total float64
	for i, v := range recent {
		w := minWeight + step*float64(i)
		weighted += v * w
		total += w
	}
	return weighted / total
}

// OptimizeDischarge draws energy from the battery sized by the demand
// forecast: slightly over the prediction when the current load exceeds it, to
// absorb spikes, and slightly under it otherwise, to preserve energy.
func (p *Predictor) OptimizeDischarge(battery *reservoir.Battery, systemLoad float64, priorityLevel int) float64 {
	recent := p.history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	predicted := p.PredictUsage(recent)
	if systemLoad > predicted {
		return battery.Discharge(predicted*overDischarge, priorityLevel)
	}
	return battery.Discharge(predicted*underDischarge, priorityLevel)
}

// LogUsage records a usage sample, keeping at most the last 100.
func (p *Predictor) LogUsage(usage float64) {
	p.history = append(p.history, usage)
	if len(p.history) > maxHistory {
		p.history = p.history[1:]
	}
}

func (p *Predictor) History() []float64 {
	out := make([]float64, len(p.history))
	copy(out, p.history)
	return out
}
