package filter

import (
	"testing"

	"github.com/asgard/heimdall/internal/clock"
)

func lerpFloat(alpha float64, a, b float64) float64 {
	return a + alpha*(b-a)
}

func TestLowPassFilterRejectsInvalidCoefficient(t *testing.T) {
	if _, err := New[float64, clock.Local](0, lerpFloat); err != ErrInvalidCoefficient {
		t.Fatalf("expected ErrInvalidCoefficient for alpha=0, got %v", err)
	}
	if _, err := New[float64, clock.Local](1, lerpFloat); err != ErrInvalidCoefficient {
		t.Fatalf("expected ErrInvalidCoefficient for alpha=1, got %v", err)
	}
}

func TestLowPassFilterConvergesTowardConstantInput(t *testing.T) {
	f, err := New[float64, clock.Local](0.5, lerpFloat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t0 := clock.New[clock.Local](0)
	f.Seed(0, t0)
	for i := int64(1); i <= 50; i++ {
		f.Update(1, clock.New[clock.Local](i*int64(clock.Second)))
	}
	if v := f.Value(); v < 0.999 {
		t.Fatalf("expected convergence close to 1, got %v", v)
	}
}

func TestLowPassFilterSeedDoesNotBlend(t *testing.T) {
	f, err := New[float64, clock.Local](0.5, lerpFloat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Seed(42, clock.New[clock.Local](0))
	if v := f.Value(); v != 42 {
		t.Fatalf("expected seeded value 42, got %v", v)
	}
}
