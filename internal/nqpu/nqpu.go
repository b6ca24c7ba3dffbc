// Package nqpu implements the neural quantum processing unit: a threshold
// comparator with a stochastic sub-threshold tunneling path whose per-energy
// activation probability is tuned by a reinforcement memory.
package nqpu

import (
	"errors"
	"math"
	"math/rand"
)

const (
	DefaultThreshold      = 1.0
	DefaultCoherenceDecay = 0.9
	DefaultLearningRate   = 0.1

	// Learning memory is bucketed at this width unless configured otherwise,
	// so nearly identical energies share one learned state instead of
	// fragmenting the distribution across raw float keys.
	DefaultKeyPrecision = 1e-6

	defaultTunnelingProbability = 0.5
	minTunnelingProbability     = 0.01
	maxTunnelingProbability     = 0.99

	defaultCoherence   = 1.0
	minCoherence       = 0.1
	maxCoherence       = 1.0
	coherenceDecayRate = 0.99

	rewardEpsilon = 1e-6

	priorityThresholdStep = 0.05
)

type Config struct {
	Threshold      float64
	CoherenceDecay float64
	LearningRate   float64
	KeyPrecision   float64
	Rand           *rand.Rand
}

// Unit holds the activation threshold and the two learning maps: experience
// (energy level -> tunneling probability) and coherence memory (energy level
// -> reward-shaping coherence, decaying with use).
type Unit struct {
	threshold      float64
	coherenceDecay float64
	learningRate   float64
	keyPrecision   float64
	rng            *rand.Rand

	state      float64
	experience map[float64]float64
	coherence  map[float64]float64
}

func New(cfg Config) (*Unit, error) {
	if cfg.Rand == nil {
		return nil, errors.New("rand source is required")
	}
	if cfg.Threshold <= 0 {
		return nil, errors.New("threshold must be > 0")
	}
	if cfg.CoherenceDecay <= 0 || cfg.CoherenceDecay > 1 {
		return nil, errors.New("coherence decay must be in (0, 1]")
	}
	if cfg.LearningRate <= 0 || cfg.LearningRate > 1 {
		return nil, errors.New("learning rate must be in (0, 1]")
	}
	if cfg.KeyPrecision < 0 {
		return nil, errors.New("key precision must be >= 0")
	}
	return &Unit{
		threshold:      cfg.Threshold,
		coherenceDecay: cfg.CoherenceDecay,
		learningRate:   cfg.LearningRate,
		keyPrecision:   cfg.KeyPrecision,
		rng:            cfg.Rand,
		experience:     make(map[float64]float64),
		coherence:      make(map[float64]float64),
	}, nil
}

// Process decides activation for the given input energy. At or above the
// priority-adjusted threshold the unit always activates. Below it, the learned
// tunneling probability for that energy level decides, and the outcome is fed
// back into the learning memory either way.
func (u *Unit) Process(inputEnergy float64, priorityLevel int) bool {
	adjusted := u.threshold * (1 - priorityThresholdStep*float64(priorityLevel))
	if inputEnergy >= adjusted {
		u.state = inputEnergy * u.coherenceDecay
		u.Learn(inputEnergy, true)
		return true
	}

	probability := u.tunnelingProbability(inputEnergy)
	if u.rng.Float64() < probability {
		u.state = inputEnergy * u.coherenceDecay
		u.Learn(inputEnergy, true)
		return true
	}

	u.state = 0
	u.Learn(inputEnergy, false)
	return false
}

// Learn reinforces or penalizes the tunneling probability for an energy level.
// Success moves it up by learningRate*reward, failure down by learningRate;
// the result stays inside [0.01, 0.99].
func (u *Unit) Learn(inputEnergy float64, success bool) {
	key := u.key(inputEnergy)
	probability, ok := u.experience[key]
	if !ok {
		probability = defaultTunnelingProbability
	}

	if success {
		probability += u.learningRate * u.computeReward(key)
	} else {
		probability -= u.learningRate
	}

	if probability < minTunnelingProbability {
		probability = minTunnelingProbability
	}
	if probability > maxTunnelingProbability {
		probability = maxTunnelingProbability
	}
	u.experience[key] = probability
}

// computeReward derives the reward from the level's coherence memory and
// decays that memory, so repeated rewards for the same level diminish.
func (u *Unit) computeReward(key float64) float64 {
	coherence, ok := u.coherence[key]
	if !ok {
		coherence = defaultCoherence
	}

	reward := math.Exp(-1 / (coherence + rewardEpsilon))

	coherence *= coherenceDecayRate
	if coherence < minCoherence {
		coherence = minCoherence
	}
	if coherence > maxCoherence {
		coherence = maxCoherence
	}
	u.coherence[key] = coherence

	return reward
}

func (u *Unit) tunnelingProbability(inputEnergy float64) float64 {
	key := u.key(inputEnergy)
	probability, ok := u.experience[key]
	if !ok {
		probability = defaultTunnelingProbability
		u.experience[key] = probability
	}
	return probability
}

func (u *Unit) key(energy float64) float64 {
	if u.keyPrecision <= 0 {
		return energy
	}
	return math.Round(energy/u.keyPrecision) * u.keyPrecision
}

func (u *Unit) Threshold() float64 {
	return u.threshold
}

// State reports the last accepted energy scaled by the coherence decay, or 0
// after a non-activation.
func (u *Unit) State() float64 {
	return u.state
}

// TunnelingProbability reports the learned probability for an energy level,
// or the 0.5 default when the level has not been seen.
func (u *Unit) TunnelingProbability(inputEnergy float64) float64 {
	probability, ok := u.experience[u.key(inputEnergy)]
	if !ok {
		return defaultTunnelingProbability
	}
	return probability
}

// Experience returns a copy of the learned probability map keyed by bucketed
// energy level.
func (u *Unit) Experience() map[float64]float64 {
	out := make(map[float64]float64, len(u.experience))
	for k, v := range u.experience {
		out[k] = v
	}
	return out
}

// CoherenceMemory returns a copy of the coherence map keyed by bucketed
// energy level.
func (u *Unit) CoherenceMemory() map[float64]float64 {
	out := make(map[float64]float64, len(u.coherence))
	for k, v := range u.coherence {
		out[k] = v
	}
	return out
}

// Restore replaces the learning memory, clamping every entry into its valid
// range. Used when resuming from a persisted snapshot.
func (u *Unit) Restore(experience, coherence map[float64]float64) {
	u.experience = make(map[float64]float64, len(experience))
	for k, v := range experience {
		if v < minTunnelingProbability {
			v = minTunnelingProbability
		}
		if v > maxTunnelingProbability {
			v = maxTunnelingProbability
		}
		u.experience[u.key(k)] = v
	}
	u.coherence = make(map[float64]float64, len(coherence))
	for k, v := range coherence {
		if v < minCoherence {
			v = minCoherence
		}
		if v > maxCoherence {
			v = maxCoherence
		}
		u.coherence[u.key(k)] = v
	}
}
