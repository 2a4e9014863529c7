// Package schedule runs explicit, cancellable periodic tasks owned by the
// component that starts them.
package schedule

import (
	"sync"
	"time"

	"github.com/reelworks/timeline/internal/clock"
)

// Task calls fn every period until Stop is called. The next run is armed
// only after fn returns, so runs never overlap.
type Task struct {
	clock  clock.Clock
	period time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *clock.Timer
	stopped bool
}

// Every starts a task that first runs one period from now.
func Every(c clock.Clock, period time.Duration, fn func()) *Task {
	t := &Task{clock: c, period: period, fn: fn}
	t.arm()
	return t
}

func (t *Task) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.timer = t.clock.AfterFunc(t.period, t.run)
}

func (t *Task) run() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}
	t.fn()
	t.arm()
}

// Stop cancels the pending run. It is safe to call more than once and from
// inside fn.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Stopped reports whether Stop has been called.
func (t *Task) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Period returns the interval between runs.
func (t *Task) Period() time.Duration {
	return t.period
}
