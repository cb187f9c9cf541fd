package camera

import (
	"context"
	"errors"
)

// ErrExhausted is returned by a MockFrameSource once its queued framesets
// are consumed.
var ErrExhausted = errors.New("camera: mock frame source exhausted")

// MockFrameSource replays a fixed sequence of framesets, for tests and
// for running the pipeline without a real depth camera attached.
type MockFrameSource struct {
	frames []Frameset
	next   int
}

// NewMockFrameSource constructs a MockFrameSource replaying frames in
// order.
func NewMockFrameSource(frames []Frameset) *MockFrameSource {
	return &MockFrameSource{frames: frames}
}

// NextFrame returns the next queued frameset, or ErrExhausted.
func (m *MockFrameSource) NextFrame(ctx context.Context) (Frameset, error) {
	if err := ctx.Err(); err != nil {
		return Frameset{}, err
	}
	if m.next >= len(m.frames) {
		return Frameset{}, ErrExhausted
	}
	fs := m.frames[m.next]
	m.next++
	return fs, nil
}
