package stats_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/telemetry/stats"
)

func TestCounterIncrement(t *testing.T) {
	c := stats.NewCounter()
	c.Increment()
	c.Add(4)
	if c.Value() != 5 {
		t.Fatalf("got %d, want 5", c.Value())
	}
}

func TestFloatSnapshot(t *testing.T) {
	f := stats.NewFloat()
	f.Observe(1)
	f.Observe(3)
	f.Observe(2)
	snap := f.Snapshot()
	if snap.Count != 3 || snap.Mean != 2 || snap.Min != 1 || snap.Max != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestFloatSnapshotEmpty(t *testing.T) {
	f := stats.NewFloat()
	snap := f.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
