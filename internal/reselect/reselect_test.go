package reselect_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/reselect"
)

func TestTakeIfPending(t *testing.T) {
	r := reselect.New()
	if _, ok := r.TakeIfPending(); ok {
		t.Fatalf("expected no pending request initially")
	}

	r.Raise(42)
	id, ok := r.TakeIfPending()
	if !ok || id != 42 {
		t.Fatalf("expected pending request 42, got id=%d ok=%v", id, ok)
	}

	if _, ok := r.TakeIfPending(); ok {
		t.Fatalf("expected request to be consumed by the first TakeIfPending")
	}
}
