// Package clock abstracts timers so that debounced code can run against
// either the wall clock or a manually advanced fake.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules callbacks and reports the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc calls f on its own goroutine (real clock) or inside Advance
	// (fake clock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or was stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a Clock that only moves when Advance is called.
// It is safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	timers map[uint64]*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	id    uint64
	at    time.Time
	fn    func()
}

// NewFake creates a fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{
		now:    start,
		timers: make(map[uint64]*fakeTimer),
	}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers fn to run when the fake has been advanced by d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := &fakeTimer{
		clock: f,
		id:    f.nextID,
		at:    f.now.Add(d),
		fn:    fn,
	}
	f.timers[t.id] = t
	return t
}

// Advance moves the clock forward by d and runs every callback that became
// due, in deadline order, on the calling goroutine. Callbacks may schedule
// new timers; those fire in the same call if they fall inside the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		delete(f.timers, next.id)
		f.now = next.at
		f.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of scheduled callbacks that have not fired.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// nextDue returns the earliest timer due at or before target. Callers hold f.mu.
func (f *Fake) nextDue(target time.Time) *fakeTimer {
	due := make([]*fakeTimer, 0, len(f.timers))
	for _, t := range f.timers {
		if !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}
