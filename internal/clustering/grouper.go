// Package clustering groups tracked armor plates into robot-level
// position estimates: a pairing step that merges co-located plates
// belonging to the same chassis, followed by an online variable-K
// clustering step that smooths and culls the resulting centers.
package clustering

import (
	"math"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// PlateTarget is the minimal view of a tracked plate the grouper needs.
type PlateTarget interface {
	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestUpdateTimestamp() clock.Timestamp[clock.Local]
}

// GroupedCenter is one grouping step output: either the midpoint of a
// paired pair of plates, or a single plate's own position.
type GroupedCenter struct {
	Position spatial.Position[frame.World]
	Time     clock.Timestamp[clock.Local]
}

// Grouper pairs nearby plates before they reach the online clusterer.
type Grouper struct {
	minRadius float64
	maxRadius float64
}

// NewGrouper constructs a Grouper pairing plates whose inter-plate
// distance lies in [minRadius, maxRadius].
func NewGrouper(minRadius, maxRadius float64) *Grouper {
	return &Grouper{minRadius: minRadius, maxRadius: maxRadius}
}

// Group pairs plates in iteration order: each plate is paired with the
// nearest remaining unpaired plate within [minRadius, maxRadius], at most
// once. Unpaired plates emit their own position.
func (g *Grouper) Group(plates []PlateTarget) []GroupedCenter {
	paired := make([]bool, len(plates))
	centers := make([]GroupedCenter, 0, len(plates))

	for i, seed := range plates {
		if paired[i] {
			continue
		}
		seedPos := seed.LatestEstimatedPosition()
		bestJ := -1
		bestDist := math.Inf(1)
		for j := i + 1; j < len(plates); j++ {
			if paired[j] {
				continue
			}
			d := plates[j].LatestEstimatedPosition().Minus(seedPos).Magnitude()
			if d >= g.minRadius && d <= g.maxRadius && d < bestDist {
				bestDist = d
				bestJ = j
			}
		}
		if bestJ >= 0 {
			paired[i] = true
			paired[bestJ] = true
			other := plates[bestJ].LatestEstimatedPosition()
			midpoint := spatial.Position[frame.World]{
				X: (seedPos.X + other.X) / 2,
				Y: (seedPos.Y + other.Y) / 2,
				Z: (seedPos.Z + other.Z) / 2,
			}
			centers = append(centers, GroupedCenter{Position: midpoint, Time: seed.LatestUpdateTimestamp()})
		} else {
			centers = append(centers, GroupedCenter{Position: seedPos, Time: seed.LatestUpdateTimestamp()})
		}
	}
	return centers
}
