// Package debounce coalesces bursts of calls into one delayed call.
package debounce

import (
	"sync"
	"time"

	"github.com/letmevibethatforyou/typeahead/clock"
)

// Debouncer runs the most recently scheduled function once its delay has
// elapsed without another call to Debounce.
type Debouncer struct {
	mu    sync.Mutex
	clock clock.Clock
	delay time.Duration
	timer clock.Timer
}

// New creates a debouncer that waits delay on the given clock.
func New(c clock.Clock, delay time.Duration) *Debouncer {
	return &Debouncer{
		clock: c,
		delay: delay,
	}
}

// Debounce schedules fn, discarding any function still waiting.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	var t clock.Timer
	t = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that fired while being stopped or replaced is stale.
		if d.timer != t {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.timer = t
}

// Cancel drops the pending function. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
