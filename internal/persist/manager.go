// Package persist keeps a project durable: every save writes a local
// snapshot first, then upserts the remote copy, queueing failed or offline
// saves for bounded retries.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reelworks/timeline/internal/clock"
	"github.com/reelworks/timeline/internal/schedule"
	"github.com/reelworks/timeline/internal/timeline"
)

// LocalStore is the crash-safety floor. Get returns nil data when the
// project has never been stored.
type LocalStore interface {
	Put(ctx context.Context, projectID string, data []byte, savedAt time.Time) error
	Get(ctx context.Context, projectID string) ([]byte, time.Time, error)
}

// Remote is the idempotent keyed remote store. GetProject returns nil data
// when the project does not exist remotely.
type Remote interface {
	UpsertProject(ctx context.Context, projectID string, data []byte) error
	GetProject(ctx context.Context, projectID string) ([]byte, error)
}

// Source is the read side of the editor.
type Source interface {
	Checkpoint() (*timeline.Project, uint64)
	ProjectID() string
}

type Options struct {
	AutosaveInterval time.Duration
	RemoteEvery      int
	SweepInterval    time.Duration
	Backoff          Backoff
	MaxAttempts      int
	RemoteTimeout    time.Duration
	StartOffline     bool

	OnSaved      func(at time.Time)
	OnError      func(err error)
	OnLocalError func(err error)
	OnStatus     func(s Status)
}

// DefaultOptions returns the production cadence.
func DefaultOptions() Options {
	return Options{
		AutosaveInterval: 5 * time.Second,
		RemoteEvery:      6,
		SweepInterval:    10 * time.Second,
		Backoff:          Backoff{Base: 2 * time.Second, Max: time.Minute},
		MaxAttempts:      5,
		RemoteTimeout:    15 * time.Second,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = d.AutosaveInterval
	}
	if o.RemoteEvery <= 0 {
		o.RemoteEvery = d.RemoteEvery
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = d.SweepInterval
	}
	if o.Backoff.Base <= 0 {
		o.Backoff.Base = d.Backoff.Base
	}
	if o.Backoff.Max < o.Backoff.Base {
		o.Backoff.Max = max(d.Backoff.Max, o.Backoff.Base)
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = d.RemoteTimeout
	}
}

// Manager drives the save pipeline and its status machine. Remote work is
// serialized: saves, sweeps and flushes never overlap.
type Manager struct {
	src    Source
	local  LocalStore
	remote Remote
	clock  clock.Clock
	logger *slog.Logger
	opts   Options
	queue  *RetryQueue

	opMu sync.Mutex

	mu        sync.Mutex
	status    Status
	online    bool
	lastSaved time.Time
	savedRev  uint64
	ticks     int
	autosave  *schedule.Task
	sweeper   *schedule.Task
}

func NewManager(src Source, local LocalStore, remote Remote, c clock.Clock, logger *slog.Logger, opts Options) *Manager {
	opts.setDefaults()
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	_, rev := src.Checkpoint()
	return &Manager{
		src:      src,
		local:    local,
		remote:   remote,
		clock:    c,
		logger:   logger,
		opts:     opts,
		queue:    NewRetryQueue(),
		status:   StatusSaved,
		online:   !opts.StartOffline,
		savedRev: rev,
	}
}

// Queue exposes the retry queue.
func (m *Manager) Queue() *RetryQueue { return m.queue }

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LastSaved is the time of the last successful remote save.
func (m *Manager) LastSaved() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaved
}

func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	m.mu.Unlock()
	if changed {
		m.logger.Debug("save status changed", "status", s)
		if m.opts.OnStatus != nil {
			m.opts.OnStatus(s)
		}
	}
}

func (m *Manager) reportError(err error) {
	if m.opts.OnError != nil {
		m.opts.OnError(err)
	}
}

// MarkDirty flags unsaved edits. Wire it to the editor's change feed.
func (m *Manager) MarkDirty(uint64) {
	m.mu.Lock()
	dirty := m.status == StatusSaved
	m.mu.Unlock()
	if dirty {
		m.setStatus(StatusPending)
	}
}

type snapshot struct {
	projectID string
	data      []byte
	revision  uint64
	updatedAt time.Time
}

func (m *Manager) capture() (snapshot, error) {
	p, rev := m.src.Checkpoint()
	data, err := json.Marshal(p)
	if err != nil {
		return snapshot{}, fmt.Errorf("marshal project %s: %w", p.ID, err)
	}
	return snapshot{projectID: p.ID, data: data, revision: rev, updatedAt: p.UpdatedAt}, nil
}

// SaveLocal writes a snapshot to the local store only. Failures are
// reported through OnLocalError and returned.
func (m *Manager) SaveLocal(ctx context.Context) error {
	snap, err := m.capture()
	if err != nil {
		return err
	}
	return m.writeLocal(ctx, snap)
}

func (m *Manager) writeLocal(ctx context.Context, snap snapshot) error {
	if m.local == nil {
		return nil
	}
	if err := m.local.Put(ctx, snap.projectID, snap.data, m.clock.Now()); err != nil {
		lerr := &LocalStoreError{Op: "write", ProjectID: snap.projectID, Err: err}
		m.logger.Error("local snapshot failed", "project_id", snap.projectID, "error", err)
		if m.opts.OnLocalError != nil {
			m.opts.OnLocalError(lerr)
		}
		return lerr
	}
	return nil
}

// Save writes the local snapshot, then upserts the remote copy. Offline it
// queues the snapshot and returns ErrOffline; a remote failure queues the
// snapshot and returns a *NetworkError. A local failure never stops the
// remote attempt.
func (m *Manager) Save(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setStatus(StatusSaving)
	snap, err := m.capture()
	if err != nil {
		m.setStatus(StatusFailed)
		m.reportError(err)
		return err
	}
	_ = m.writeLocal(ctx, snap)

	if !m.Online() {
		m.enqueue(snap)
		m.setStatus(StatusOffline)
		m.logger.Info("offline, save queued", "project_id", snap.projectID, "queue_len", m.queue.Len())
		return ErrOffline
	}

	if err := m.upsert(ctx, snap.projectID, snap.data); err != nil {
		m.enqueue(snap)
		nerr := &NetworkError{ProjectID: snap.projectID, Err: err}
		m.setStatus(StatusFailed)
		m.logger.Warn("remote save failed, queued for retry", "project_id", snap.projectID, "error", err)
		m.reportError(nerr)
		return nerr
	}

	m.markSaved(snap.revision)
	return nil
}

func (m *Manager) upsert(ctx context.Context, projectID string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.RemoteTimeout)
	defer cancel()
	return m.remote.UpsertProject(ctx, projectID, data)
}

func (m *Manager) enqueue(snap snapshot) {
	now := m.clock.Now()
	m.queue.Push(Item{
		ProjectID:   snap.projectID,
		Payload:     snap.data,
		Revision:    snap.revision,
		EnqueuedAt:  now,
		NextAttempt: now.Add(m.opts.Backoff.Delay(0)),
	})
}

func (m *Manager) markSaved(rev uint64) {
	now := m.clock.Now()
	m.mu.Lock()
	m.lastSaved = now
	if rev > m.savedRev {
		m.savedRev = rev
	}
	m.mu.Unlock()

	_, current := m.src.Checkpoint()
	if m.queue.Len() == 0 && current <= rev {
		m.setStatus(StatusSaved)
	} else {
		m.setStatus(StatusPending)
	}
	m.logger.Info("project saved", "project_id", m.src.ProjectID(), "revision", rev)
	if m.opts.OnSaved != nil {
		m.opts.OnSaved(now)
	}
}

// Rebase treats the current checkpoint as already saved. Call it right
// after loading a project into the editor.
func (m *Manager) Rebase() {
	_, rev := m.src.Checkpoint()
	m.mu.Lock()
	m.savedRev = rev
	m.mu.Unlock()
	if m.queue.Len() == 0 {
		m.setStatus(StatusSaved)
	}
}

// Sweep retries the oldest queued item if its backoff has elapsed. It does
// nothing while offline.
func (m *Manager) Sweep(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if !m.Online() {
		return
	}
	it, ok := m.queue.Peek()
	if !ok || m.clock.Now().Before(it.NextAttempt) {
		return
	}
	m.retry(ctx, it)
}

// Flush retries every queued item immediately, oldest first, and stops at
// the first failure.
func (m *Manager) Flush(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	for n := m.queue.Len(); n > 0 && m.Online(); n-- {
		it, ok := m.queue.Peek()
		if !ok || !m.retry(ctx, it) {
			return
		}
	}
}

func (m *Manager) retry(ctx context.Context, it Item) bool {
	err := m.upsert(ctx, it.ProjectID, it.Payload)
	if err == nil {
		m.queue.ack(it.ProjectID, it.Revision)
		m.markSaved(it.Revision)
		return true
	}

	dropped, exhausted := m.queue.fail(it.ProjectID, m.clock.Now(), m.opts.MaxAttempts, m.opts.Backoff)
	if exhausted {
		m.logger.Error("retry attempts exhausted, snapshot dropped",
			"project_id", it.ProjectID, "attempts", dropped.RetryCount, "error", err)
		m.setStatus(StatusFailed)
		m.reportError(fmt.Errorf("%w: project %s after %d attempts: %w",
			ErrQueueExhausted, it.ProjectID, dropped.RetryCount, &NetworkError{ProjectID: it.ProjectID, Err: err}))
		return false
	}
	m.logger.Warn("retry failed", "project_id", it.ProjectID, "retry_count", dropped.RetryCount,
		"next_attempt", dropped.NextAttempt, "error", err)
	m.setStatus(StatusFailed)
	m.reportError(&NetworkError{ProjectID: it.ProjectID, Err: err})
	return false
}

// SetOnline records connectivity. Coming online flushes the queue; going
// offline suspends remote work.
func (m *Manager) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	m.mu.Unlock()
	if was == online {
		return
	}
	if !online {
		m.logger.Info("connectivity lost, remote saves suspended")
		m.setStatus(StatusOffline)
		return
	}
	m.logger.Info("connectivity restored, flushing queue", "queue_len", m.queue.Len())
	if m.queue.Len() == 0 {
		m.mu.Lock()
		saved := m.savedRev
		m.mu.Unlock()
		if _, rev := m.src.Checkpoint(); rev <= saved {
			m.setStatus(StatusSaved)
		} else {
			m.setStatus(StatusPending)
		}
		return
	}
	m.Flush(ctx)
}

// Tick is one fast autosave interval: a local write every tick, plus a
// full Save on every RemoteEvery-th tick.
func (m *Manager) Tick(ctx context.Context) {
	m.mu.Lock()
	m.ticks++
	remote := m.ticks%m.opts.RemoteEvery == 0
	m.mu.Unlock()

	if remote {
		if err := m.Save(ctx); err != nil && !errors.Is(err, ErrOffline) {
			m.logger.Debug("autosave remote write failed", "error", err)
		}
		return
	}
	_ = m.SaveLocal(ctx)
}

// Start arms the autosave and retry sweep tasks. ctx bounds every call they
// make.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.autosave != nil {
		return
	}
	m.autosave = schedule.Every(m.clock, m.opts.AutosaveInterval, func() { m.Tick(ctx) })
	m.sweeper = schedule.Every(m.clock, m.opts.SweepInterval, func() { m.Sweep(ctx) })
	m.logger.Info("persistence started",
		"autosave_interval", m.opts.AutosaveInterval,
		"remote_every", m.opts.RemoteEvery,
		"sweep_interval", m.opts.SweepInterval)
}

// Stop cancels the periodic tasks. Queued items stay queued.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.autosave != nil {
		m.autosave.Stop()
		m.sweeper.Stop()
		m.autosave, m.sweeper = nil, nil
	}
}

// UnsavedChanges reports whether leaving now could lose work.
func (m *Manager) UnsavedChanges() bool {
	return m.queue.Len() > 0 || !m.Status().Settled()
}

// Teardown stops the timers, makes a final local write and reports whether
// the caller should warn about unsaved changes.
func (m *Manager) Teardown(ctx context.Context) bool {
	m.Stop()
	if err := m.SaveLocal(ctx); err != nil {
		m.logger.Warn("final local write failed", "error", err)
	}
	unsaved := m.UnsavedChanges()
	if unsaved {
		m.logger.Warn("tearing down with unsaved changes",
			"status", m.Status(), "queue_len", m.queue.Len())
	}
	return unsaved
}
