package metricsexport_test

import (
	"net/http/httptest"
	"testing"

	"github.com/asgard/heimdall/internal/telemetry/metricsexport"
	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metricsexport.New(registry)
	m.FramesProcessed.Inc()
	m.TrackedRobots.Set(2)
	m.MessagesSent.WithLabelValues("AutoAimTargetUpdate").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	metricsexport.Handler(registry).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !contains(body, "heimdall_pipeline_frames_processed_total 1") {
		t.Fatalf("expected frames_processed_total in output, got:\n%s", body)
	}
	if !contains(body, "heimdall_tracker_robots_tracked 2") {
		t.Fatalf("expected robots_tracked in output, got:\n%s", body)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
