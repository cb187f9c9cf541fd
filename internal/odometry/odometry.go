// Package odometry holds the mutex-guarded timestamped history of chassis
// and turret odometry reports, keyed by a receipt-offset-corrected local
// timestamp rather than the MCB's own odometry clock, so the main loop can
// look up "what was the robot's pose when this camera frame was taken".
package odometry

import (
	"errors"
	"sync"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/historybuffer"
	"github.com/asgard/heimdall/internal/messages"
)

// ErrNoOdometry is returned when a lookup finds no odometry entry near
// the requested timestamp.
var ErrNoOdometry = errors.New("odometry: no odometry entry near requested timestamp")

// Config parameterizes the history buffer and the receipt-time
// correction. Store subtracts ReceiptOffset exactly as given; config.Load
// supplies 9ms when the YAML leaves odometry.receipt_offset unset.
type Config struct {
	ReceiptOffset clock.Duration
	HistorySize   int
	MaxEntryAge   clock.Duration
}

// Store is the synchronized odometry history.
type Store struct {
	cfg    Config
	mu     sync.Mutex
	buffer *historybuffer.Buffer[clock.Local, messages.OdometryMessage]
}

// NewStore constructs an empty Store.
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:    cfg,
		buffer: historybuffer.New[clock.Local, messages.OdometryMessage](cfg.HistorySize, cfg.MaxEntryAge),
	}
}

// Record inserts an odometry report received at receiptTime, keyed by
// receiptTime minus the configured receipt offset.
func (s *Store) Record(receiptTime clock.Timestamp[clock.Local], msg messages.OdometryMessage) error {
	key := receiptTime.Minus(s.cfg.ReceiptOffset)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Add(key, msg)
}

// Lookup finds the odometry report nearest to the given local timestamp,
// per the history buffer's nearest-neighbor search semantics.
func (s *Store) Lookup(t clock.Timestamp[clock.Local]) (messages.OdometryMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.buffer.Search(t)
	if !ok {
		return messages.OdometryMessage{}, ErrNoOdometry
	}
	return msg, nil
}

// Clear empties the history, e.g. on identity loss or reconnect.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Clear()
}
