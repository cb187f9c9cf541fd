package beyblade_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/beyblade"
	"github.com/asgard/heimdall/internal/clock"
)

// TestIndicatorHysteresisScenario reproduces: slow alpha=0.05, fast
// alpha=0.5, threshold=0.6. Ten ticks of true at 60Hz should trip the
// indicator only once both filters cross 0.6 (the slow filter rises
// slowly, so the flip happens late in the sequence, if at all within ten
// ticks); two ticks of false afterward must leave the indicator off. With
// these coefficients and the first tick only seeding the filters, neither
// filter reaches 0.6 within the ten true ticks (fast ends near 0.1, slow
// below 0.01), so the indicator never trips here.
func TestIndicatorHysteresisScenario(t *testing.T) {
	ind, err := beyblade.NewIndicator(0.05, 0.5, 0.6)
	if err != nil {
		t.Fatalf("NewIndicator: %v", err)
	}

	const tickPeriod = clock.Duration(1000000 / 60) // ~16.67ms at 60Hz
	now := clock.New[clock.Local](0)

	var trippedAtTick int = -1
	for i := 0; i < 10; i++ {
		now = now.Plus(tickPeriod)
		ind.Feed(true, now)
		if ind.IsSpinning() && trippedAtTick < 0 {
			trippedAtTick = i
		}
	}
	if trippedAtTick >= 0 && trippedAtTick < 5 {
		t.Fatalf("indicator tripped too early at tick %d; the slow filter should make early trips implausible", trippedAtTick)
	}

	now = now.Plus(tickPeriod)
	ind.Feed(false, now)
	now = now.Plus(tickPeriod)
	ind.Feed(false, now)

	if ind.IsSpinning() {
		t.Fatalf("indicator still spinning after two false ticks; fast filter should have dropped below threshold")
	}
}

func TestIdentifierDropsIndicatorsForAbsentRobots(t *testing.T) {
	id := beyblade.NewIdentifier(beyblade.Config{
		MaxRadius:                          1.0,
		RelativeVelocityMagnitudeThreshold: 0.1,
		IndicatorThreshold:                 0.6,
		AlphaSlow:                          0.05,
		AlphaFast:                          0.5,
	})

	now := clock.New[clock.Local](0)
	id.Update(nil, nil, now)
	if id.IsBeyblading(1) {
		t.Fatalf("no robots tracked; expected IsBeyblading(1) = false")
	}
}
