package clustering

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// RobotClusterer composes the pairing and online-clustering steps into
// the per-tick robot-center pipeline.
type RobotClusterer struct {
	grouper *Grouper
	kmeans  *VariableKMeans
}

// NewRobotClusterer constructs a clusterer grouping plates within
// [minRadius, maxRadius] and smoothing the resulting centers with
// low-pass filters of coefficient alpha, culling filters idle for
// ageLimit.
func NewRobotClusterer(minRadius, maxRadius, alpha float64, ageLimit clock.Duration) (*RobotClusterer, error) {
	kmeans, err := NewVariableKMeans(alpha, maxRadius, ageLimit)
	if err != nil {
		return nil, err
	}
	return &RobotClusterer{grouper: NewGrouper(minRadius, maxRadius), kmeans: kmeans}, nil
}

// Update runs one tick of pairing followed by online clustering, and
// returns the current robot center estimates.
func (c *RobotClusterer) Update(plates []PlateTarget, now clock.Timestamp[clock.Local]) []spatial.Position[frame.World] {
	centers := c.grouper.Group(plates)
	return c.kmeans.Update(centers, now)
}
