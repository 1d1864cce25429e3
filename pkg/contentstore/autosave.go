package contentstore

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time so the auto-save schedule can be driven in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// AutoSaver is a cancellable delayed task. Arm always replaces the pending
// task with a new one scheduled delay from now, so the task only runs once
// arming stops for a full delay interval. Continuous arming starves it.
type AutoSaver struct {
	clock Clock
	delay time.Duration
	run   func()

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewAutoSaver returns an idle AutoSaver that calls run when it fires.
func NewAutoSaver(clock Clock, delay time.Duration, run func()) *AutoSaver {
	if clock == nil {
		clock = SystemClock()
	}
	return &AutoSaver{clock: clock, delay: delay, run: run}
}

// Arm cancels any pending task and schedules a new one.
func (a *AutoSaver) Arm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(gen) })
}

// Cancel stops the pending task. It reports whether a task was pending.
func (a *AutoSaver) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return false
	}
	a.timer.Stop()
	a.timer = nil
	a.gen++
	return true
}

// Pending reports whether a task is scheduled.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Delay returns the fixed coalescing delay.
func (a *AutoSaver) Delay() time.Duration {
	return a.delay
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	// superseded by a later Arm or Cancel
	if gen != a.gen || a.timer == nil {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()
	a.run()
}
