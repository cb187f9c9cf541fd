package msgstore_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/telemetry/msgstore"
)

// Open requires a live Postgres instance and is exercised by integration
// tests; here we only check the direction labels stay stable since other
// packages compare against them.

func TestDirectionLabels(t *testing.T) {
	if msgstore.Inbound != "inbound" {
		t.Fatalf("unexpected inbound label: %q", msgstore.Inbound)
	}
	if msgstore.Outbound != "outbound" {
		t.Fatalf("unexpected outbound label: %q", msgstore.Outbound)
	}
}
