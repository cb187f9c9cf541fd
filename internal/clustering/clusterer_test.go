package clustering_test

import (
	"math"
	"testing"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/clustering"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

type fakePlate struct {
	pos spatial.Position[frame.World]
	t   clock.Timestamp[clock.Local]
}

func (f fakePlate) LatestEstimatedPosition() spatial.Position[frame.World] { return f.pos }
func (f fakePlate) LatestUpdateTimestamp() clock.Timestamp[clock.Local]    { return f.t }

func plate(x, y, z float64, t clock.Timestamp[clock.Local]) clustering.PlateTarget {
	return fakePlate{pos: spatial.Position[frame.World]{X: x, Y: y, Z: z}, t: t}
}

func near(p spatial.Position[frame.World], x, y, z, tol float64) bool {
	return math.Abs(p.X-x) <= tol && math.Abs(p.Y-y) <= tol && math.Abs(p.Z-z) <= tol
}

// TestClustererScenario reproduces: min_radius=0.05, max_radius=0.5,
// age_limit=1s; plates at (0,0,0) and (0.1,0,0) pair to (0.05,0,0) at
// t=0; plates at (5,0,0) and (0.11,0,0) arrive at t=16ms (the second
// joins the existing cluster near 0.05, the first spawns a new cluster).
// After two ticks, exactly two clusters exist.
func TestClustererScenario(t *testing.T) {
	clusterer, err := clustering.NewRobotClusterer(0.05, 0.5, 0.5, clock.Second)
	if err != nil {
		t.Fatalf("NewRobotClusterer: %v", err)
	}

	t0 := clock.New[clock.Local](0)
	centers := clusterer.Update([]clustering.PlateTarget{
		plate(0, 0, 0, t0),
		plate(0.1, 0, 0, t0),
	}, t0)
	if len(centers) != 1 || !near(centers[0], 0.05, 0, 0, 1e-9) {
		t.Fatalf("after first tick: centers = %+v, want one at (0.05,0,0)", centers)
	}

	t1 := clock.New[clock.Local](16000)
	centers = clusterer.Update([]clustering.PlateTarget{
		plate(5, 0, 0, t1),
		plate(0.11, 0, 0, t1),
	}, t1)
	if len(centers) != 2 {
		t.Fatalf("after second tick: %d centers, want 2: %+v", len(centers), centers)
	}

	// The near-origin filter's new value is some interpolation between
	// its previous value (0.05) and the new observation (0.11): the
	// exact blend depends on the configured time constant, but it must
	// lie between the two by construction of the low-pass filter.
	var sawNearOrigin, sawFar bool
	for _, c := range centers {
		if c.X >= 0.05-1e-9 && c.X <= 0.11+1e-9 && math.Abs(c.Y) < 1e-9 && math.Abs(c.Z) < 1e-9 {
			sawNearOrigin = true
		}
		if near(c, 5, 0, 0, 1e-6) {
			sawFar = true
		}
	}
	if !sawNearOrigin || !sawFar {
		t.Fatalf("centers = %+v, want one in [0.05,0.11] on x and one at (5,0,0)", centers)
	}
}

func TestClustererCullsStaleFilters(t *testing.T) {
	clusterer, err := clustering.NewRobotClusterer(0.05, 0.5, 0.5, clock.Second)
	if err != nil {
		t.Fatalf("NewRobotClusterer: %v", err)
	}
	t0 := clock.New[clock.Local](0)
	centers := clusterer.Update([]clustering.PlateTarget{plate(1, 1, 1, t0)}, t0)
	if len(centers) != 1 {
		t.Fatalf("setup: want 1 center, got %d", len(centers))
	}

	t1 := t0.Plus(2 * clock.Second)
	centers = clusterer.Update(nil, t1)
	if len(centers) != 0 {
		t.Fatalf("after exceeding age_limit with no observations: want 0 centers, got %d", len(centers))
	}
}
