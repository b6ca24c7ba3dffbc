package reservoir

import "errors"

const (
	DefaultBatteryCapacity   = 5.0
	DefaultBatteryEfficiency = 1.0

	// Adaptive discharge scales the request by this factor at priority <= 5.
	lowPriorityFactor = 0.7

	autoOptimizeFillLevel = 0.9
	autoOptimizeBleed     = 0.95
)

// Battery is the primary energy store. Charging applies the efficiency factor
// to the stored increment; discharging applies priority scaling when the
// battery is adaptive.
type Battery struct {
	maxEnergy  float64
	energy     float64
	efficiency float64
	adaptive   bool
}

func NewBattery(maxEnergy, efficiency float64, adaptive bool) (*Battery, error) {
	if maxEnergy <= 0 {
		return nil, errors.New("battery max energy must be > 0")
	}
	if efficiency <= 0 || efficiency > 1 {
		return nil, errors.New("battery efficiency must be in (0, 1]")
	}
	return &Battery{maxEnergy: maxEnergy, efficiency: efficiency, adaptive: adaptive}, nil
}

// Charge adds energy up to the remaining capacity. The stored increment is
// accepted*efficiency, but the return value is the accepted amount before the
// efficiency loss. Callers must not assume the return value equals the energy
// increment; downstream accounting relies on this contract.
func (b *Battery) Charge(amount float64) float64 {
	space := b.maxEnergy - b.energy
	accepted := amount
	if accepted > space {
		accepted = space
	}
	b.energy += accepted * b.efficiency
	return accepted
}

// Discharge removes energy for a request at the given priority level. When
// adaptive, the request is scaled by 0.7 at priority <= 5 and left unscaled
// above. The return value is the removed energy divided by the scale factor,
// so a constrained battery can report more than it actually removed. This
// priority-rescaled report is the canonical contract; see Energy for the true
// level.
func (b *Battery) Discharge(amount float64, priorityLevel int) float64 {
	factor := 1.0
	if b.adaptive && priorityLevel <= 5 {
		factor = lowPriorityFactor
	}
	scaled := amount * factor
	discharged := scaled
	if discharged > b.energy {
		discharged = b.energy
	}
	b.energy -= discharged
	return discharged / factor
}

// AutoOptimize bleeds off 5% of the stored energy when the battery is above
// 90% fill. No-op otherwise.
func (b *Battery) AutoOptimize() {
	if b.energy > autoOptimizeFillLevel*b.maxEnergy {
		b.energy *= autoOptimizeBleed
	}
}

// ResonantTransfer moves energy into another battery via resonant coupling.
// couplingEfficiency is the fraction of this battery's energy offered to the
// other side; only what the other battery accepts is removed here.
func (b *Battery) ResonantTransfer(other *Battery, couplingEfficiency float64) (float64, error) {
	if other == nil {
		return 0, errors.New("transfer target is required")
	}
	if couplingEfficiency < 0 || couplingEfficiency > 1 {
		return 0, errors.New("coupling efficiency must be in [0, 1]")
	}
	transferred := other.Charge(b.energy * couplingEfficiency)
	b.energy -= transferred
	return transferred, nil
}

func (b *Battery) Energy() float64 {
	return b.energy
}

func (b *Battery) MaxEnergy() float64 {
	return b.maxEnergy
}

func (b *Battery) Efficiency() float64 {
	return b.efficiency
}

func (b *Battery) Adaptive() bool {
	return b.adaptive
}
