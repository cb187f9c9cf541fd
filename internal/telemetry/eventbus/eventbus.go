// Package eventbus optionally republishes target updates and numeric
// warnings onto a NATS subject for out-of-process observers (dashboards,
// loggers on another host). Unlike the in-process channel bus it is
// adapted from, publication here goes out over a real NATS connection;
// when no server is configured the bus is a no-op.
package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/asgard/heimdall/internal/messages"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects used for the two event kinds this module publishes.
const (
	SubjectTargetUpdate = "heimdall.target.update"
	SubjectWarning      = "heimdall.warning"
)

// Bus publishes onto a NATS connection. A nil *Bus, or one returned by
// Disabled, drops every publish silently, so callers never need to
// nil-check it.
type Bus struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// Connect dials url and returns a Bus bound to it.
func Connect(url string, logger *logrus.Logger) (*Bus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}
	return &Bus{conn: conn, logger: logger}, nil
}

// Disabled returns a Bus that drops every publish, for deployments with
// no configured NATS server.
func Disabled() *Bus {
	return &Bus{}
}

// TargetUpdateEvent mirrors the wire AutoAimTargetUpdateMessage for
// observers that don't speak the MCB serial protocol.
type TargetUpdateEvent struct {
	PosX         float32 `json:"pos_x,omitempty"`
	PosY         float32 `json:"pos_y,omitempty"`
	PosZ         float32 `json:"pos_z,omitempty"`
	VelX         float32 `json:"vel_x,omitempty"`
	VelY         float32 `json:"vel_y,omitempty"`
	VelZ         float32 `json:"vel_z,omitempty"`
	HasTarget    bool    `json:"has_target"`
	MCBTimestamp uint32  `json:"mcb_timestamp"`
}

// PublishTargetUpdate republishes msg for external observers. A nil
// connection (Disabled) or a publish failure is logged, never fatal to
// the caller's main loop.
func (b *Bus) PublishTargetUpdate(msg messages.AutoAimTargetUpdateMessage) {
	if b == nil || b.conn == nil {
		return
	}
	event := TargetUpdateEvent{
		PosX: msg.PosX, PosY: msg.PosY, PosZ: msg.PosZ,
		VelX: msg.VelX, VelY: msg.VelY, VelZ: msg.VelZ,
		HasTarget: msg.HasTarget, MCBTimestamp: msg.MCBTimestamp,
	}
	b.publish(SubjectTargetUpdate, event)
}

// WarningEvent carries a named numeric measurement that crossed a
// configured threshold (e.g. CRC error rate, frame latency).
type WarningEvent struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PublishWarning republishes a threshold-crossing warning.
func (b *Bus) PublishWarning(name string, value float64) {
	if b == nil || b.conn == nil {
		return
	}
	b.publish(SubjectWarning, WarningEvent{Name: name, Value: value})
}

func (b *Bus) publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.WithError(err).WithField("subject", subject).Warn("eventbus: marshal failed")
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.WithError(err).WithField("subject", subject).Warn("eventbus: publish failed")
	}
}

// Close closes the underlying connection.
func (b *Bus) Close() {
	if b == nil || b.conn == nil {
		return
	}
	b.conn.Close()
}
