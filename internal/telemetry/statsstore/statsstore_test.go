package statsstore_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/telemetry/stats"
)

// These exercise the snapshot shapes statsstore persists without requiring
// a live Mongo connection; Connect itself needs a real server and is left
// to integration testing.

func TestCounterValueShapeForPersistence(t *testing.T) {
	c := &stats.Counter{}
	c.Add(7)
	if got := c.Value(); got != 7 {
		t.Fatalf("expected counter value 7, got %d", got)
	}
}

func TestFloatSnapshotShapeForPersistence(t *testing.T) {
	f := &stats.Float{}
	f.Observe(1)
	f.Observe(3)
	snap := f.Snapshot()
	if snap.Count != 2 || snap.Mean != 2 || snap.Min != 1 || snap.Max != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
