// Package historybuffer implements a bounded, append-only, monotonically
// keyed time series with nearest-neighbor lookup, used to reconcile
// asynchronously arriving odometry with camera frame timestamps.
package historybuffer

import (
	"errors"
	"sync"

	"github.com/asgard/heimdall/internal/clock"
)

// ErrEntryTooOld is returned by Add when the new key is not strictly
// greater than the newest key already stored.
var ErrEntryTooOld = errors.New("historybuffer: entry timestamp is not newer than the newest stored entry")

// Entry is a single (timestamp, value) pair.
type Entry[D clock.Domain, V any] struct {
	Timestamp clock.Timestamp[D]
	Value     V
}

// Buffer is a mutex-guarded, append-only ring bounded by entry count and
// by the age of the oldest entry relative to the newest.
type Buffer[D clock.Domain, V any] struct {
	mu          sync.Mutex
	entries     []Entry[D, V]
	maxEntries  int
	maxEntryAge clock.Duration
}

// New constructs an empty Buffer with the given eviction limits.
func New[D clock.Domain, V any](maxEntries int, maxEntryAge clock.Duration) *Buffer[D, V] {
	return &Buffer[D, V]{maxEntries: maxEntries, maxEntryAge: maxEntryAge}
}

// Add appends (t, v) if t is strictly greater than the current newest key,
// then evicts entries that violate the count or age bound.
func (b *Buffer[D, V]) Add(t clock.Timestamp[D], v V) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) > 0 && !t.After(b.entries[len(b.entries)-1].Timestamp) {
		return ErrEntryTooOld
	}
	b.entries = append(b.entries, Entry[D, V]{Timestamp: t, Value: v})
	b.evictLocked()
	return nil
}

func (b *Buffer[D, V]) evictLocked() {
	if len(b.entries) == 0 {
		return
	}
	if b.maxEntries > 0 {
		for len(b.entries) > b.maxEntries {
			b.entries = b.entries[1:]
		}
	}
	if b.maxEntryAge > 0 {
		newest := b.entries[len(b.entries)-1].Timestamp
		for len(b.entries) > 1 && newest.Diff(b.entries[0].Timestamp) > b.maxEntryAge {
			b.entries = b.entries[1:]
		}
	}
}

// Search returns the entry whose key is closest to t, breaking ties
// toward the later entry, or ok=false if t lies outside [oldest, newest].
func (b *Buffer[D, V]) Search(t clock.Timestamp[D]) (value V, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.entries)
	if n == 0 {
		return value, false
	}
	oldest := b.entries[0].Timestamp
	newest := b.entries[n-1].Timestamp
	if t.Before(oldest) || t.After(newest) {
		return value, false
	}

	// bisect-left: first index whose key is >= t.
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if b.entries[mid].Timestamp.Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	switch {
	case lo == 0:
		return b.entries[0].Value, true
	case lo == n:
		return b.entries[n-1].Value, true
	default:
		before := b.entries[lo-1]
		after := b.entries[lo]
		dBefore := t.Diff(before.Timestamp).Abs()
		dAfter := after.Timestamp.Diff(t).Abs()
		if dAfter <= dBefore {
			return after.Value, true
		}
		return before.Value, true
	}
}

// Clear empties the buffer entirely.
func (b *Buffer[D, V]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// OldestTimestamp returns the oldest stored key, or ok=false if empty.
func (b *Buffer[D, V]) OldestTimestamp() (clock.Timestamp[D], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return clock.Timestamp[D]{}, false
	}
	return b.entries[0].Timestamp, true
}

// LatestTimestamp returns the newest stored key, or ok=false if empty.
func (b *Buffer[D, V]) LatestTimestamp() (clock.Timestamp[D], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return clock.Timestamp[D]{}, false
	}
	return b.entries[len(b.entries)-1].Timestamp, true
}

// NumEntries reports how many entries are currently stored.
func (b *Buffer[D, V]) NumEntries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
