package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces rapid triggers into a single callback invocation.
// Only the last trigger within the delay fires the callback; each trigger
// cancels the pending one before arming a new timer, so at most one timer
// is outstanding.
type Debouncer struct {
	mu        sync.Mutex
	timer     Timer
	gen       uint64
	callback  func()
	afterFunc AfterFunc
}

// NewDebouncer creates a debouncer that calls callback after a quiet period.
func NewDebouncer(callback func()) *Debouncer {
	return &Debouncer{
		callback:  callback,
		afterFunc: realAfterFunc,
	}
}

// Trigger (re)arms the timer for delay. A zero delay fires on the next
// scheduler tick, never synchronously.
func (d *Debouncer) Trigger(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = d.afterFunc(delay, func() { d.fire(gen) })
}

// fire runs the callback unless the timer that scheduled it was cancelled
// or superseded after its expiry was already queued.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.timer == nil || d.gen != gen {
		d.mu.Unlock()
		return
	}

	d.timer = nil
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.callback()
}

// Stop cancels any pending callback and reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}

	d.timer.Stop()
	d.timer = nil
	d.gen++

	return true
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.timer != nil
}
