package kalman

import (
	"fmt"
	"math"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
	"github.com/sirupsen/logrus"
)

// TrackerConfig bounds data association and target lifetime.
type TrackerConfig struct {
	MaxDistance  float64
	MaxStaleness clock.Duration
}

// Tracker runs a bank of TrackedTargets with greedy nearest-neighbor data
// association. It is not internally synchronized; it is owned
// single-threaded by the main loop per §5.
type Tracker struct {
	cfg        TrackerConfig
	factory    Factory
	logger     *logrus.Logger
	nextID     uint64
	targets    []TrackedTarget
}

// NewTracker constructs an empty tracker. factory is consulted to spawn a
// TrackedTarget for every unmatched measurement.
func NewTracker(cfg TrackerConfig, factory Factory, logger *logrus.Logger) (*Tracker, error) {
	if cfg.MaxDistance <= 0 {
		return nil, fmt.Errorf("kalman: tracker max_distance must be positive, got %v", cfg.MaxDistance)
	}
	if factory == nil {
		return nil, fmt.Errorf("kalman: tracker factory must not be nil")
	}
	return &Tracker{cfg: cfg, factory: factory, logger: logger}, nil
}

// Targets returns the tracker's current targets, in no particular order.
func (tr *Tracker) Targets() []TrackedTarget { return tr.targets }

// Update associates measurements against existing targets, applies
// measurement or extrapolation-only updates, drops targets stale beyond
// MaxStaleness, and spawns new targets for unmatched measurements. It
// returns the resulting target list (also retained as tr.Targets()).
func (tr *Tracker) Update(measurements []spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local]) []TrackedTarget {
	matchedMeasurement := make([]bool, len(measurements))
	matchedTarget := make([]bool, len(tr.targets))

	for ti, target := range tr.targets {
		extrapolated := target.ExtrapolatePosition(t)
		bestIdx := -1
		bestDist := math.Inf(1)
		for mi, meas := range measurements {
			if matchedMeasurement[mi] {
				continue
			}
			d := meas.Position.Minus(extrapolated).Magnitude()
			if d < bestDist {
				bestDist = d
				bestIdx = mi
			}
		}
		if bestIdx >= 0 && bestDist <= tr.cfg.MaxDistance {
			target.UpdateFromMeasurement(measurements[bestIdx], t)
			matchedMeasurement[bestIdx] = true
			matchedTarget[ti] = true
		}
	}

	survivors := make([]TrackedTarget, 0, len(tr.targets)+len(measurements))
	for ti, target := range tr.targets {
		if matchedTarget[ti] {
			survivors = append(survivors, target)
			continue
		}
		staleness := t.Diff(target.LatestObservedTimestamp())
		if staleness <= tr.cfg.MaxStaleness {
			target.UpdateFromExtrapolation(t)
			survivors = append(survivors, target)
			continue
		}
		if tr.logger != nil {
			tr.logger.WithField("instance_id", target.InstanceID()).
				WithField("staleness_us", int64(staleness)).
				Info("kalman: dropping target exceeding max staleness")
		}
	}

	for mi, meas := range measurements {
		if matchedMeasurement[mi] {
			continue
		}
		tr.nextID++
		survivors = append(survivors, tr.factory(tr.nextID, meas, t))
	}

	tr.targets = survivors
	return survivors
}
