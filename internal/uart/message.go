package uart

import (
	"fmt"

	"github.com/asgard/heimdall/internal/clock"
)

// TypeID is the wire type identifier carried in every frame.
type TypeID uint16

// Message is any value that can be serialized as a frame body and knows
// its own wire type id.
type Message interface {
	TypeID() TypeID
	MarshalBody() ([]byte, error)
}

// Handler parses a frame body into a Message and reacts to it. Parse must
// return the same concrete type every time for a given TypeID.
type Handler interface {
	TypeID() TypeID
	Parse(body []byte) (Message, error)
	Handle(receiptTime clock.Timestamp[clock.Local], msg Message) error
}

// Registry dispatches an incoming frame to its Handler by TypeID.
type Registry struct {
	handlers map[TypeID]Handler
}

// NewRegistry builds a Registry, rejecting duplicate type ids.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	m := make(map[TypeID]Handler, len(handlers))
	for _, h := range handlers {
		if _, exists := m[h.TypeID()]; exists {
			return nil, fmt.Errorf("uart: duplicate handler registered for type id 0x%04X", h.TypeID())
		}
		m[h.TypeID()] = h
	}
	return &Registry{handlers: m}, nil
}

// Lookup returns the handler for t, if any.
func (r *Registry) Lookup(t TypeID) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
