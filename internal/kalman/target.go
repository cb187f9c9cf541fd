package kalman

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// TrackedTarget is the capability every tracked target exposes,
// regardless of which filter implementation produces it. KalmanTarget is
// the in-house implementation in this package; an adapter over an
// external linear-filter library is an admissible second implementation
// as long as it satisfies the same contract.
type TrackedTarget interface {
	InstanceID() uint64

	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestEstimatedVelocity() spatial.Vector[frame.World]
	LatestUncertainty() spatial.Vector[frame.World]

	LatestUpdateTimestamp() clock.Timestamp[clock.Local]
	LatestObservedTimestamp() clock.Timestamp[clock.Local]
	LatestObservedPosition() spatial.Position[frame.World]

	// ExtrapolatePosition is pure: it predicts ahead without mutating
	// the target's stored state.
	ExtrapolatePosition(t clock.Timestamp[clock.Local]) spatial.Position[frame.World]

	UpdateFromMeasurement(measured spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local])
	UpdateFromExtrapolation(t clock.Timestamp[clock.Local])
}

// Factory spawns a new TrackedTarget seeded from a first measurement.
type Factory func(id uint64, measured spatial.MeasuredPosition[frame.World], t clock.Timestamp[clock.Local]) TrackedTarget
