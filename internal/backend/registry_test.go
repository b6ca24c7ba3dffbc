package backend

import (
	"context"
	"errors"
	"testing"
)

type stubBackend struct {
	name string
	err  error
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Run(_ context.Context, data []float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return data, nil
}

func TestRegisterAndResolve(t *testing.T) {
	resetRegistryForTests()

	if err := Register("qpu", func() Backend { return &stubBackend{name: "qpu"} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register("qpu", func() Backend { return &stubBackend{name: "qpu"} }); !errors.Is(err, ErrBackendExists) {
		t.Fatalf("expected ErrBackendExists, got %v", err)
	}

	b, err := Resolve("qpu")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if b.Name() != "qpu" {
		t.Fatalf("unexpected backend name: %s", b.Name())
	}

	if _, err := Resolve("missing"); !errors.Is(err, ErrBackendNotFound) {
		t.Fatalf("expected ErrBackendNotFound, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	resetRegistryForTests()

	if err := Register("", func() Backend { return nil }); err == nil {
		t.Fatal("expected name validation error")
	}
	if err := Register("qpu", nil); err == nil {
		t.Fatal("expected factory validation error")
	}
}

func TestListSorted(t *testing.T) {
	resetRegistryForTests()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		n := name
		if err := Register(n, func() Backend { return &stubBackend{name: n} }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	names := List()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d]: got %s want %s", i, names[i], want[i])
		}
	}
}

func TestSimulateReversesAndDoubles(t *testing.T) {
	got := Simulate([]float64{1, 2, 3})
	want := []float64{6, 4, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("simulate[%d]: got %f want %f", i, got[i], want[i])
		}
	}

	if out := Simulate(nil); len(out) != 0 {
		t.Fatalf("empty input should produce empty output, got %v", out)
	}
}
