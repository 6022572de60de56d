// Package watch rescans source files for nested block comments as they
// change on disk.
package watch

import (
	"slices"
	"sync"
	"time"
)

// MaxPendingFiles is the maximum number of files that can be pending.
// Reaching it triggers an immediate flush.
const MaxPendingFiles = 1000

// Debouncer coalesces rapid file change events into one batch of paths.
// Editors often write a file several times per save (autosave, formatter
// runs); the batch is delivered once the window passes without new events.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
// onFlush receives the changed paths, sorted, after the window expires with
// no new events. It is never called with the debouncer's lock held.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change to path.
// Multiple calls with the same path within the window are coalesced.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[path] = struct{}{}

	if len(d.pending) >= MaxPendingFiles {
		paths := d.drainLocked()
		d.mu.Unlock()
		d.deliver(paths)
		return
	}

	// A timer that already fired finds nothing pending once a flush ran,
	// so stopping it late is harmless.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.FlushNow)
	d.mu.Unlock()
}

// FlushNow immediately flushes any pending paths without waiting for the
// timer.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.drainLocked()
	d.mu.Unlock()

	d.deliver(paths)
}

// Stop stops the debouncer. Any pending paths are flushed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	paths := d.drainLocked()
	d.mu.Unlock()

	d.deliver(paths)
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// drainLocked stops the timer and empties the pending set.
// Caller must hold d.mu.
func (d *Debouncer) drainLocked() []string {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		return nil
	}

	paths := make([]string, 0, len(d.pending))
	for path := range d.pending {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	d.pending = make(map[string]struct{})
	return paths
}

func (d *Debouncer) deliver(paths []string) {
	if len(paths) > 0 && d.onFlush != nil {
		d.onFlush(paths)
	}
}
