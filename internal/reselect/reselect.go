// Package reselect holds the single pending "force a new target
// selection" request raised by a SelectNewTarget message and drained by
// the main loop on its next tick.
package reselect

import "sync"

// Request is the mutex-guarded pending-reselect flag, optionally carrying
// the requester's request id for acknowledgement/logging.
type Request struct {
	mu      sync.Mutex
	pending bool
	id      uint32
}

// New constructs an empty Request.
func New() *Request { return &Request{} }

// Raise marks a reselect as pending, overwriting any earlier
// still-pending request id.
func (r *Request) Raise(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = true
	r.id = id
}

// TakeIfPending clears and returns the pending request, if any.
func (r *Request) TakeIfPending() (id uint32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pending {
		return 0, false
	}
	r.pending = false
	return r.id, true
}
