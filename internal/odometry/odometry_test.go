package odometry_test

import (
	"errors"
	"testing"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/odometry"
)

func TestRecordAppliesReceiptOffset(t *testing.T) {
	store := odometry.NewStore(odometry.Config{ReceiptOffset: 9 * clock.Millisecond, HistorySize: 16, MaxEntryAge: clock.Second})

	receiptTime := clock.New[clock.Local](100000)
	msg := messages.OdometryMessage{X: 1, Y: 2, Z: 3}
	if err := store.Record(receiptTime, msg); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// The entry was keyed at receiptTime-9ms; a lookup there should hit.
	got, err := store.Lookup(receiptTime.Minus(9 * clock.Millisecond))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.X != 1 || got.Y != 2 || got.Z != 3 {
		t.Fatalf("got %+v, want the recorded odometry", got)
	}
}

func TestLookupMissReturnsErrNoOdometry(t *testing.T) {
	store := odometry.NewStore(odometry.Config{ReceiptOffset: 9 * clock.Millisecond, HistorySize: 16, MaxEntryAge: clock.Second})
	_, err := store.Lookup(clock.New[clock.Local](0))
	if !errors.Is(err, odometry.ErrNoOdometry) {
		t.Fatalf("expected ErrNoOdometry, got %v", err)
	}
}
