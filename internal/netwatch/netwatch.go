// Package netwatch turns periodic reachability probes into online/offline
// transitions.
package netwatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reelworks/timeline/internal/clock"
	"github.com/reelworks/timeline/internal/schedule"
)

type EventType int

const (
	EventOffline EventType = iota
	EventOnline
)

func (e EventType) String() string {
	if e == EventOnline {
		return "online"
	}
	return "offline"
}

// Probe reports whether the remote endpoint is reachable.
type Probe func(ctx context.Context) error

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// FailureThreshold is the number of consecutive failed probes before
	// the monitor reports offline. A single success reports online.
	FailureThreshold int
}

func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 15 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 2
	}
}

// Monitor probes on a fixed interval and calls its change callbacks only
// when the reachability state flips.
type Monitor struct {
	probe  Probe
	clock  clock.Clock
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	online    bool
	failures  int
	callbacks []func(EventType)
	task      *schedule.Task
	ctx       context.Context
	cancel    context.CancelFunc
}

// New returns a monitor that assumes the endpoint starts online.
func New(probe Probe, c clock.Clock, logger *slog.Logger, opts Options) *Monitor {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.Real()
	}
	return &Monitor{
		probe:  probe,
		clock:  c,
		opts:   opts,
		logger: logger,
		online: true,
	}
}

// OnChange registers a callback for state transitions.
func (m *Monitor) OnChange(callback func(EventType)) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, callback)
	m.mu.Unlock()
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Watch starts periodic probing. Calling Watch on a running monitor is a
// no-op.
func (m *Monitor) Watch(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.task != nil {
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.task = schedule.Every(m.clock, m.opts.Interval, m.check)
	m.logger.Info("connectivity watch started", "interval", m.opts.Interval)
}

// Stop halts probing. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	task, cancel := m.task, m.cancel
	m.task, m.cancel = nil, nil
	m.mu.Unlock()
	if task != nil {
		task.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) check() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil {
		return
	}
	m.Check(ctx)
}

// Check runs one probe immediately and returns the resulting state.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	err := m.probe(pctx)
	cancel()

	m.mu.Lock()
	was := m.online
	if err == nil {
		m.failures = 0
		m.online = true
	} else {
		m.failures++
		if m.failures >= m.opts.FailureThreshold {
			m.online = false
		}
	}
	now := m.online
	callbacks := append([]func(EventType){}, m.callbacks...)
	failures := m.failures
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug("connectivity probe failed", "error", err, "consecutive_failures", failures)
	}
	if was == now {
		return now
	}

	event := EventOffline
	if now {
		event = EventOnline
	}
	m.logger.Info("connectivity changed", "state", event.String())
	for _, cb := range callbacks {
		cb(event)
	}
	return now
}
