package reservoir

import "testing"

func TestCondensateAbsorbAndOverflow(t *testing.T) {
	c, err := NewCondensate(10.0)
	if err != nil {
		t.Fatalf("new condensate: %v", err)
	}

	if overflow := c.Absorb(7.0); overflow != 0.0 {
		t.Fatalf("expected no overflow, got %f", overflow)
	}
	if c.Stored() != 7.0 {
		t.Fatalf("expected 7.0 stored, got %f", c.Stored())
	}

	if overflow := c.Absorb(5.0); overflow != 2.0 {
		t.Fatalf("expected 2.0 overflow, got %f", overflow)
	}
	if c.Stored() != 10.0 {
		t.Fatalf("expected full condensate, got %f", c.Stored())
	}
}

func TestCondensateRelease(t *testing.T) {
	c, err := NewCondensate(10.0)
	if err != nil {
		t.Fatalf("new condensate: %v", err)
	}
	c.Absorb(10.0)

	if released := c.Release(4.0); released != 4.0 {
		t.Fatalf("expected 4.0 released, got %f", released)
	}
	if c.Stored() != 6.0 {
		t.Fatalf("expected 6.0 stored, got %f", c.Stored())
	}

	if released := c.Release(100.0); released != 6.0 {
		t.Fatalf("over-release should clamp to stored, got %f", released)
	}
	if c.Stored() != 0.0 {
		t.Fatalf("expected empty condensate, got %f", c.Stored())
	}

	if released := c.Release(1.0); released != 0.0 {
		t.Fatalf("empty condensate released %f", released)
	}
	if c.Stored() < 0 {
		t.Fatalf("stored energy went negative: %f", c.Stored())
	}
}

func TestCondensateValidation(t *testing.T) {
	if _, err := NewCondensate(0); err == nil {
		t.Fatal("expected capacity validation error")
	}
}
