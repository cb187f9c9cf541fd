package mainloop

import (
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/kalman"
	"github.com/asgard/heimdall/internal/spatial"
)

// aimable wraps a kalman.TrackedTarget with a launcher-frame position
// computed once per tick, so the same tracked target can satisfy both
// the clustering/beyblade packages (which only need world-frame state)
// and the selection package's Target/Robot/Plate interfaces (which also
// need LauncherPosition).
type aimable struct {
	kalman.TrackedTarget
	launcherPosition spatial.Position[frame.Launcher]
}

func (a aimable) LauncherPosition() spatial.Position[frame.Launcher] { return a.launcherPosition }

// wrapAimable tags every tracked target with its launcher-frame position
// under worldToLauncher.
func wrapAimable(targets []kalman.TrackedTarget, worldToLauncher spatial.Transform[frame.World, frame.Launcher]) []aimable {
	out := make([]aimable, len(targets))
	for i, t := range targets {
		out[i] = aimable{
			TrackedTarget:    t,
			launcherPosition: worldToLauncher.ApplyToPosition(t.LatestEstimatedPosition()),
		}
	}
	return out
}

// robotMeasurement builds the isotropic-variance measurement fed to the
// robot tracker from one clustered robot center.
func robotMeasurement(center spatial.Position[frame.World], variance float64) spatial.MeasuredPosition[frame.World] {
	return spatial.MeasuredPosition[frame.World]{
		Position:    center,
		Uncertainty: spatial.FromVariances[frame.World](variance, variance, variance),
	}
}
