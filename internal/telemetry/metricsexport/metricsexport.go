// Package metricsexport exposes frame-rate, tracker, and serial-link
// Prometheus metrics for the debug HTTP server's /metrics endpoint.
package metricsexport

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every gauge/counter this process exports.
type Metrics struct {
	FramesProcessed    prometheus.Counter
	FrameLatency       prometheus.Histogram
	TrackedRobots      prometheus.Gauge
	TrackedPlates      prometheus.Gauge
	TargetAcquired     prometheus.Gauge
	CRCErrorsTotal     prometheus.Counter
	MessagesSent       *prometheus.CounterVec
	MessagesReceived   *prometheus.CounterVec
	OdometryMisses     prometheus.Counter
	DetectorInvocation prometheus.Histogram
}

// New registers every metric against registry and returns the handle
// used to update them from the main loop.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "heimdall", Subsystem: "pipeline", Name: "frames_processed_total",
			Help: "Total camera frames processed by the main loop.",
		}),
		FrameLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heimdall", Subsystem: "pipeline", Name: "frame_latency_seconds",
			Help:    "End-to-end latency from frame capture to aim-point emission.",
			Buckets: []float64{.001, .005, .01, .02, .033, .05, .1, .2},
		}),
		TrackedRobots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "heimdall", Subsystem: "tracker", Name: "robots_tracked",
			Help: "Number of robots currently carried by the robot tracker.",
		}),
		TrackedPlates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "heimdall", Subsystem: "tracker", Name: "plates_tracked",
			Help: "Number of armor plates currently carried by the plate tracker.",
		}),
		TargetAcquired: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "heimdall", Subsystem: "selection", Name: "target_acquired",
			Help: "1 if a target is currently selected, 0 otherwise.",
		}),
		CRCErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "heimdall", Subsystem: "uart", Name: "crc_errors_total",
			Help: "Total frames dropped for failing CRC validation.",
		}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heimdall", Subsystem: "uart", Name: "messages_sent_total",
			Help: "Total outbound messages by type.",
		}, []string{"type"}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heimdall", Subsystem: "uart", Name: "messages_received_total",
			Help: "Total inbound messages by type.",
		}, []string{"type"}),
		OdometryMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "heimdall", Subsystem: "odometry", Name: "lookup_misses_total",
			Help: "Total frames skipped for lacking a matching odometry sample.",
		}),
		DetectorInvocation: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heimdall", Subsystem: "vision", Name: "detector_duration_seconds",
			Help:    "Wall time spent inside the detector per frame.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveDetector is a small helper for timing a detector call:
// defer m.ObserveDetector(time.Now())()
func (m *Metrics) ObserveDetector(start time.Time) func() {
	return func() { m.DetectorInvocation.Observe(time.Since(start).Seconds()) }
}

// Handler returns the /metrics HTTP handler bound to registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
