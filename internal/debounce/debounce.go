// Package debounce coalesces bursts of calls into a single call after a quiet
// period.
package debounce

import (
	"sync"
	"time"
)

// DefaultDuration is the quiet period used when none is configured.
const DefaultDuration = 400 * time.Millisecond

// Debouncer runs only the most recently scheduled function, and only once the
// quiet period has elapsed without another Schedule.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	gen      uint64
	stopped  bool
}

// New returns a Debouncer with the given quiet period. Non-positive values use
// DefaultDuration.
func New(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the configured quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn after the configured quiet period.
func (d *Debouncer) Trigger(fn func()) bool {
	return d.Schedule(d.duration, fn)
}

// Schedule cancels any pending call and arranges for fn to run after the given
// delay. It returns false once the debouncer has been stopped.
func (d *Debouncer) Schedule(after time.Duration, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(after, func() {
		d.mu.Lock()
		// A timer that fired concurrently with a newer Schedule must not run.
		if d.stopped || d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	return true
}

// Pending reports whether a call is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the pending call, if any. Later Schedule calls still work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels the pending call and disables the debouncer for good.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
