// Package beyblade detects robots spinning their chassis rapidly to evade
// aim ("beyblading"): a per-robot pair of low-pass filters on a boolean
// "is spinning" signal, with a slow filter that is hard to trip and a
// fast filter that is quick to reset, producing hysteresis around a
// shared threshold.
package beyblade

import (
	"fmt"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/filter"
)

func lerpFloat(alpha float64, a, b float64) float64 {
	return a + alpha*(b-a)
}

// Indicator is the per-robot dual-rate hysteresis filter.
type Indicator struct {
	slow      *filter.LowPassFilter[float64, clock.Local]
	fast      *filter.LowPassFilter[float64, clock.Local]
	threshold float64
	seeded    bool
}

// NewIndicator constructs an Indicator. alphaSlow should be well below
// alphaFast so the slow filter is hard to trip and the fast filter is
// quick to reset.
func NewIndicator(alphaSlow, alphaFast, threshold float64) (*Indicator, error) {
	slow, err := filter.New[float64, clock.Local](alphaSlow, lerpFloat)
	if err != nil {
		return nil, fmt.Errorf("beyblade: slow filter: %w", err)
	}
	fast, err := filter.New[float64, clock.Local](alphaFast, lerpFloat)
	if err != nil {
		return nil, fmt.Errorf("beyblade: fast filter: %w", err)
	}
	return &Indicator{slow: slow, fast: fast, threshold: threshold}, nil
}

// Feed folds one tick's boolean observation (as 0.0/1.0) into both
// filters. The first call only seeds both filters at 0 (not spinning) and
// records t as the filters' reference time; it does not blend the
// observation, since an update against its own seed time carries zero
// elapsed time and could never move the value. The first real blend
// happens on the next call, against whatever time has actually elapsed
// since this one.
func (ind *Indicator) Feed(spinning bool, t clock.Timestamp[clock.Local]) {
	if !ind.seeded {
		ind.slow.Seed(0, t)
		ind.fast.Seed(0, t)
		ind.seeded = true
		return
	}
	value := 0.0
	if spinning {
		value = 1.0
	}
	ind.slow.Update(value, t)
	ind.fast.Update(value, t)
}

// IsSpinning reports whether both filters are at or above threshold.
func (ind *Indicator) IsSpinning() bool {
	return ind.slow.Value() >= ind.threshold && ind.fast.Value() >= ind.threshold
}
