package beyblade

import (
	"math"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// RobotTarget is the minimal robot view the identifier needs.
type RobotTarget interface {
	InstanceID() uint64
	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestEstimatedVelocity() spatial.Vector[frame.World]
}

// PlateTarget is the minimal plate view the identifier needs.
type PlateTarget interface {
	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestEstimatedVelocity() spatial.Vector[frame.World]
}

// Config parameterizes association and hysteresis.
type Config struct {
	MaxRadius                       float64
	RelativeVelocityMagnitudeThreshold float64
	IndicatorThreshold               float64
	AlphaSlow                        float64
	AlphaFast                        float64
}

// Identifier tracks a BeybladeIndicator per currently-known robot
// instance id, dropping indicators for robots no longer present and
// lazily creating them for new robots.
type Identifier struct {
	cfg        Config
	indicators map[uint64]*Indicator
}

// NewIdentifier constructs an empty Identifier.
func NewIdentifier(cfg Config) *Identifier {
	return &Identifier{cfg: cfg, indicators: make(map[uint64]*Indicator)}
}

// Update associates plates to their nearest robot, computes each robot's
// mean relative-velocity magnitude against its associated plates, and
// feeds the resulting boolean into that robot's indicator.
func (id *Identifier) Update(robots []RobotTarget, plates []PlateTarget, t clock.Timestamp[clock.Local]) {
	live := make(map[uint64]bool, len(robots))
	for _, r := range robots {
		live[r.InstanceID()] = true
	}
	for key := range id.indicators {
		if !live[key] {
			delete(id.indicators, key)
		}
	}

	sums := make(map[uint64]float64, len(robots))
	counts := make(map[uint64]int, len(robots))
	for _, plate := range plates {
		platePos := plate.LatestEstimatedPosition()
		bestIdx := -1
		bestDist := math.Inf(1)
		for i, robot := range robots {
			d := robot.LatestEstimatedPosition().Minus(platePos).Magnitude()
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx < 0 || bestDist > id.cfg.MaxRadius {
			continue
		}
		robot := robots[bestIdx]
		relVel := robot.LatestEstimatedVelocity().Minus(plate.LatestEstimatedVelocity())
		robotID := robot.InstanceID()
		sums[robotID] += relVel.Magnitude()
		counts[robotID]++
	}

	for _, robot := range robots {
		instanceID := robot.InstanceID()
		indicator, ok := id.indicators[instanceID]
		if !ok {
			var err error
			indicator, err = NewIndicator(id.cfg.AlphaSlow, id.cfg.AlphaFast, id.cfg.IndicatorThreshold)
			if err != nil {
				continue
			}
			id.indicators[instanceID] = indicator
		}
		var mean float64
		if n := counts[instanceID]; n > 0 {
			mean = sums[instanceID] / float64(n)
		}
		indicator.Feed(mean >= id.cfg.RelativeVelocityMagnitudeThreshold, t)
	}
}

// IsBeyblading reports whether the given robot instance currently has an
// indicator with both filters above threshold.
func (id *Identifier) IsBeyblading(instanceID uint64) bool {
	indicator, ok := id.indicators[instanceID]
	return ok && indicator.IsSpinning()
}
