// Package debugserver serves the process's health check, Prometheus
// metrics, latest snapshot, and a live WebSocket stream of snapshots for
// external observers. None of these endpoints is required for the main
// loop to run; the server exists purely for debugging and dashboards.
package debugserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/asgard/heimdall/internal/streamsink"
	"github.com/asgard/heimdall/internal/telemetry/metricsexport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the debug HTTP surface over a *http.Server owned by the
// caller; Router only builds the handler.
type Server struct {
	sink     *streamsink.Sink
	registry *prometheus.Registry
	logger   *logrus.Logger

	hub *hub
}

// New constructs a Server reading from sink and serving registry's
// metrics.
func New(sink *streamsink.Sink, registry *prometheus.Registry, logger *logrus.Logger) *Server {
	s := &Server{sink: sink, registry: registry, logger: logger, hub: newHub()}
	go s.hub.run()
	return s
}

// Broadcast pushes snap to every connected /stream WebSocket client.
// Called by the main loop after each snapshot publish.
func (s *Server) Broadcast(snap streamsink.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Warn("debugserver: failed to marshal snapshot for broadcast")
		return
	}
	s.hub.broadcast(data)
}

// Router builds the http.Handler serving /healthz, /metrics, /state, and
// /stream.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", metricsexport.Handler(s.registry))
	r.Get("/state", s.handleState)
	r.Get("/stream", s.handleStream)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.sink.Latest()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.WithError(err).Warn("debugserver: failed to encode /state response")
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("debugserver: websocket upgrade failed")
		return
	}
	client := &streamClient{conn: conn, send: make(chan []byte, 16)}
	s.hub.register(client)

	go client.writeLoop()
	client.readLoop(s.hub)
}
