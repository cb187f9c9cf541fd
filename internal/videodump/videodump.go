// Package videodump writes color-frame dumps through a bounded worker
// pool rather than one goroutine per frame, so a slow disk backs up a
// fixed-size queue instead of spawning unbounded goroutines.
package videodump

import (
	"fmt"
	"io"
	"sync"

	"github.com/alitto/pond"

	"github.com/asgard/heimdall/internal/camera"
)

// Writer is anything that can absorb one frame's worth of raw bytes.
type Writer interface {
	io.Writer
}

// Dumper submits frame-write jobs to a bounded pool of background
// workers. A frame submitted while the pool's queue is full is dropped
// and counted (see Dropped) rather than blocking the caller or growing
// the queue.
type Dumper struct {
	pool *pond.WorkerPool

	mu      sync.Mutex
	writer  Writer
	dropped int
}

// New creates a Dumper with maxWorkers concurrent writers and a queue
// capacity of queueSize pending frames.
func New(maxWorkers, queueSize int) *Dumper {
	return &Dumper{pool: pond.New(maxWorkers, queueSize, pond.Strategy(pond.Balanced()))}
}

// SetWriter swaps the destination writer, e.g. on session chunk
// rollover. Frames already queued finish against the writer active when
// they were submitted.
func (d *Dumper) SetWriter(w Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writer = w
}

// Submit enqueues fs.Color for writing. If the pool's queue is full the
// frame is dropped and counted rather than blocking the caller, since a
// capture-loop stall is worse than a missing debug frame.
func (d *Dumper) Submit(fs camera.Frameset) {
	d.mu.Lock()
	w := d.writer
	d.mu.Unlock()
	submitted := d.pool.TrySubmit(func() {
		if w == nil {
			return
		}
		_, _ = w.Write(fs.Color)
	})
	if !submitted {
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
	}
}

// Dropped reports how many frames were discarded for a full queue.
func (d *Dumper) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Stop waits for queued work to drain and shuts the pool down.
func (d *Dumper) Stop() error {
	d.pool.StopAndWait()
	if d.pool.FailedTasks() > 0 {
		return fmt.Errorf("videodump: %d frame writes failed", d.pool.FailedTasks())
	}
	return nil
}
