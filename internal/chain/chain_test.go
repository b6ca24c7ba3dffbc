package chain

import (
	"math"
	"testing"
)

func TestTransportClosedForm(t *testing.T) {
	c, err := New(5, 0.95, 0.98)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	input := 10.0
	got := c.Transport(input)
	want := input * math.Pow(0.95*0.98, 5)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("transport output: got=%f want=%f", got, want)
	}

	sites := c.Sites()
	if len(sites) != 5 {
		t.Fatalf("expected 5 sites, got %d", len(sites))
	}
	if math.Abs(sites[4]-got) > 1e-12 {
		t.Fatalf("last site %f does not match delivered energy %f", sites[4], got)
	}
}

func TestTransportNoCoherenceLoss(t *testing.T) {
	c, err := New(5, 0.95, 1.0)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	got := c.Transport(10.0)
	want := 10.0 * math.Pow(0.95, 5)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("transport output: got=%f want=%f", got, want)
	}
}

func TestTransportOverwritesSites(t *testing.T) {
	c, err := New(3, 0.9, 0.98)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	c.Transport(10.0)
	first := c.Sites()
	c.Transport(1.0)
	second := c.Sites()

	for i := range second {
		if second[i] >= first[i] {
			t.Fatalf("site %d not overwritten: first=%f second=%f", i, first[i], second[i])
		}
	}
}

func TestTransportAllPreservesOrder(t *testing.T) {
	c, err := New(2, 0.5, 1.0)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	out := c.TransportAll([]float64{4.0, 8.0, 0.0})
	want := []float64{1.0, 2.0, 0.0}
	if len(out) != len(want) {
		t.Fatalf("expected %d outputs, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("output %d: got=%f want=%f", i, out[i], want[i])
		}
	}
}

func TestAdjustCoherenceBand(t *testing.T) {
	c, err := New(5, 0.95, 0.98)
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	c.AdjustCoherence(0)
	if c.CoherenceFactor() != 0.95 {
		t.Fatalf("zero load should clamp to floor, got %f", c.CoherenceFactor())
	}

	c.AdjustCoherence(100)
	if got := c.CoherenceFactor(); got < 0.95 || got > 1.0 {
		t.Fatalf("coherence factor out of band: %f", got)
	}

	c.AdjustCoherence(40)
	want := 1 - math.Exp(-4.0)
	if math.Abs(c.CoherenceFactor()-want) > 1e-12 {
		t.Fatalf("mid load factor: got=%f want=%f", c.CoherenceFactor(), want)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, 0.9, 0.98); err == nil {
		t.Fatal("expected length validation error")
	}
	if _, err := New(5, 0, 0.98); err == nil {
		t.Fatal("expected base efficiency validation error")
	}
	if _, err := New(5, 1.1, 0.98); err == nil {
		t.Fatal("expected base efficiency upper bound error")
	}
	if _, err := New(5, 0.9, 0); err == nil {
		t.Fatal("expected coherence factor validation error")
	}
}
