// Package identity holds the mutex-guarded robot identity latch set by
// the referee system's RefereeRobotID message, and wires the remaining
// referee messages (realtime data, competition result, warning) into
// diagnostic counters rather than control decisions.
package identity

import (
	"errors"
	"sync"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/telemetry/stats"
	"github.com/sirupsen/logrus"
)

// ErrIdentityUnknown is returned by Current before the first
// RefereeRobotID message arrives.
var ErrIdentityUnknown = errors.New("identity: robot identity not yet known")

// Latch is the single-writer-many-reader identity holder.
type Latch struct {
	mu      sync.RWMutex
	known   bool
	current robomaster.Identity

	warnings        *stats.Counter
	realtimeUpdates *stats.Counter
	competitionEnds *stats.Counter
}

// NewLatch constructs an empty Latch with its own fresh stats counters.
func NewLatch() *Latch {
	return &Latch{
		warnings:        stats.NewCounter(),
		realtimeUpdates: stats.NewCounter(),
		competitionEnds: stats.NewCounter(),
	}
}

// Current returns the latched identity, or ErrIdentityUnknown.
func (l *Latch) Current() (robomaster.Identity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.known {
		return robomaster.Identity{}, ErrIdentityUnknown
	}
	return l.current, nil
}

// Set overwrites the latched identity.
func (l *Latch) Set(id robomaster.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = id
	l.known = true
}

// Counters exposes the diagnostic counters for metrics export.
func (l *Latch) Counters() (warnings, realtimeUpdates, competitionEnds *stats.Counter) {
	return l.warnings, l.realtimeUpdates, l.competitionEnds
}

// RobotIDHandler builds the messages.RefereeRobotIDHandler that feeds
// decoded identities into the Latch.
func (l *Latch) RobotIDHandler(logger *logrus.Logger) messages.RefereeRobotIDHandler {
	return messages.RefereeRobotIDHandler{
		OnMessage: func(_ clock.Timestamp[clock.Local], msg messages.RefereeRobotIDMessage) error {
			id, err := msg.Identity()
			if err != nil {
				logger.WithError(err).Warn("identity: rejecting unparseable robot id")
				return nil
			}
			l.Set(id)
			return nil
		},
	}
}

// RealtimeDataHandler builds the messages.RefereeRealtimeDataHandler that
// records realtime updates as a counter rather than a control decision.
func (l *Latch) RealtimeDataHandler() messages.RefereeRealtimeDataHandler {
	return messages.RefereeRealtimeDataHandler{
		OnMessage: func(clock.Timestamp[clock.Local], messages.RefereeRealtimeDataMessage) error {
			l.realtimeUpdates.Increment()
			return nil
		},
	}
}

// CompetitionResultHandler builds the handler recording competition-end
// events as a counter.
func (l *Latch) CompetitionResultHandler() messages.RefereeCompetitionResultHandler {
	return messages.RefereeCompetitionResultHandler{
		OnMessage: func(clock.Timestamp[clock.Local], messages.RefereeCompetitionResultMessage) error {
			l.competitionEnds.Increment()
			return nil
		},
	}
}

// WarningHandler builds the handler recording referee warnings as a
// counter.
func (l *Latch) WarningHandler() messages.RefereeWarningHandler {
	return messages.RefereeWarningHandler{
		OnMessage: func(clock.Timestamp[clock.Local], messages.RefereeWarningMessage) error {
			l.warnings.Increment()
			return nil
		},
	}
}
