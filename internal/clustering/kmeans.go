package clustering

import (
	"fmt"
	"math"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/filter"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

func lerpPosition(alpha float64, a, b spatial.Position[frame.World]) spatial.Position[frame.World] {
	return spatial.Position[frame.World]{
		X: a.X + alpha*(b.X-a.X),
		Y: a.Y + alpha*(b.Y-a.Y),
		Z: a.Z + alpha*(b.Z-a.Z),
	}
}

type kmeansFilter struct {
	lpf          *filter.LowPassFilter[spatial.Position[frame.World], clock.Local]
	spawnedTick  bool
}

// VariableKMeans maintains a variable number of low-pass-filtered cluster
// centers: observations greedily join the nearest existing filter within
// max_radius, or spawn a new one; filters untouched for age_limit are
// culled.
type VariableKMeans struct {
	alpha     float64
	maxRadius float64
	ageLimit  clock.Duration
	filters   []*kmeansFilter
}

// NewVariableKMeans constructs an empty online clusterer. alpha is the
// canonical one-second low-pass coefficient applied to every cluster
// filter.
func NewVariableKMeans(alpha, maxRadius float64, ageLimit clock.Duration) (*VariableKMeans, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("clustering: alpha must be in (0,1), got %v", alpha)
	}
	return &VariableKMeans{alpha: alpha, maxRadius: maxRadius, ageLimit: ageLimit}, nil
}

// Update folds a tick's grouped centers into the clusterer: each center
// joins its nearest existing filter if within max_radius, else spawns a
// new filter. Filters untouched for age_limit (and not spawned this tick)
// are culled. Returns the current cluster positions.
func (k *VariableKMeans) Update(centers []GroupedCenter, now clock.Timestamp[clock.Local]) []spatial.Position[frame.World] {
	for _, f := range k.filters {
		f.spawnedTick = false
	}

	for _, center := range centers {
		bestIdx := -1
		bestDist := math.Inf(1)
		for i, f := range k.filters {
			d := f.lpf.Value().Minus(center.Position).Magnitude()
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx >= 0 && bestDist <= k.maxRadius {
			k.filters[bestIdx].lpf.Update(center.Position, center.Time)
			continue
		}
		lpf, err := filter.New[spatial.Position[frame.World], clock.Local](k.alpha, lerpPosition)
		if err != nil {
			// alpha was already validated at construction time.
			continue
		}
		lpf.Seed(center.Position, center.Time)
		k.filters = append(k.filters, &kmeansFilter{lpf: lpf, spawnedTick: true})
	}

	survivors := k.filters[:0]
	for _, f := range k.filters {
		if !f.spawnedTick && now.Diff(f.lpf.LastUpdateTime()) >= k.ageLimit {
			continue
		}
		survivors = append(survivors, f)
	}
	k.filters = survivors

	out := make([]spatial.Position[frame.World], len(k.filters))
	for i, f := range k.filters {
		out[i] = f.lpf.Value()
	}
	return out
}
