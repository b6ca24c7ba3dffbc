// Package reservoir implements the two capacity-bounded energy stores of the
// pipeline: the polariton condensate (overflow absorber) and the quantum
// battery (primary store with charge efficiency and priority discharge).
package reservoir

import "errors"

const DefaultCondensateCapacity = 10.0

// Condensate is a capacity-bounded secondary reservoir. Absorbing past
// capacity never fails; the uncredited remainder is reported back to the
// caller as overflow.
type Condensate struct {
	capacity float64
	stored   float64
}

func NewCondensate(capacity float64) (*Condensate, error) {
	if capacity <= 0 {
		return nil, errors.New("condensate capacity must be > 0")
	}
	return &Condensate{capacity: capacity}, nil
}

// Absorb stores energy up to capacity and returns the overflow that could not
// be absorbed.
func (c *Condensate) Absorb(energy float64) float64 {
	space := c.capacity - c.stored
	absorbed := energy
	if absorbed > space {
		absorbed = space
	}
	c.stored += absorbed
	return energy - absorbed
}

// Release withdraws up to amount and returns what was actually released.
func (c *Condensate) Release(amount float64) float64 {
	released := amount
	if released > c.stored {
		released = c.stored
	}
	c.stored -= released
	return released
}

func (c *Condensate) Stored() float64 {
	return c.stored
}

func (c *Condensate) Capacity() float64 {
	return c.capacity
}
