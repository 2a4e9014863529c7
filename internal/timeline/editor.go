// Package timeline holds the project aggregate and the Editor, the only
// component allowed to mutate it.
package timeline

import (
	"log/slog"
	"sync"

	"github.com/reelworks/timeline/internal/clock"
)

// DuplicateGap separates a duplicated asset from its original.
const DuplicateGap = 0.1

// Editor serializes every mutation of a Project. Readers take deep copies
// through Snapshot.
type Editor struct {
	mu sync.Mutex

	project     *Project
	revision    uint64
	ripple      bool
	selection   []string
	clipboard   []Asset
	activeTrack int
	playhead    func() float64

	clock  clock.Clock
	newID  IDGenerator
	logger *slog.Logger

	subMu  sync.Mutex
	subs   map[int]func(rev uint64)
	nextID int
}

type Option func(*Editor)

// WithClock sets the time source used for ids and updatedAt.
func WithClock(c clock.Clock) Option {
	return func(e *Editor) { e.clock = c }
}

// WithIDGenerator replaces the default id scheme.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Editor) { e.newID = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor takes ownership of p. A nil project starts an empty one.
func NewEditor(p *Project, opts ...Option) *Editor {
	e := &Editor{
		clock:  clock.Real(),
		newID:  NewID,
		logger: slog.Default(),
		subs:   make(map[int]func(uint64)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if p == nil {
		now := e.clock.Now()
		p = NewProject(e.newID("project", now), "Untitled", now)
	}
	e.project = p
	return e
}

// SetPlayhead installs the source of the current playhead position used by
// Split and Paste.
func (e *Editor) SetPlayhead(fn func() float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playhead = fn
}

func (e *Editor) playheadLocked() float64 {
	if e.playhead == nil {
		return 0
	}
	return e.playhead()
}

// Snapshot returns a deep copy of the current project.
func (e *Editor) Snapshot() *Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.Clone()
}

// Revision increases by one on every successful mutation.
func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// ProjectID returns the id of the project being edited.
func (e *Editor) ProjectID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.ID
}

// Replace swaps in a loaded project. Selection and clipboard are cleared;
// subscribers are not notified.
func (e *Editor) Replace(p *Project) {
	if p == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.project = p.Clone()
	e.selection = nil
	e.clipboard = nil
	e.revision++
}

func (e *Editor) SetRippleMode(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ripple = on
}

func (e *Editor) RippleMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ripple
}

// SetActiveTrack sets the default track for Paste.
func (e *Editor) SetActiveTrack(track int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if track < 0 {
		track = 0
	}
	e.activeTrack = track
}

func (e *Editor) ActiveTrack() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTrack
}

// Select replaces the selection with the ids that exist in the project.
func (e *Editor) Select(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = e.selection[:0]
	for _, id := range ids {
		if e.project.indexOf(id) >= 0 {
			e.selection = append(e.selection, id)
		}
	}
}

func (e *Editor) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.selection...)
}

// Subscribe registers fn to be called after every successful mutation. The
// returned func removes the subscription.
func (e *Editor) Subscribe(fn func(rev uint64)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// mutate runs fn under the lock. When fn reports a change the revision is
// bumped, updatedAt touched and subscribers notified after unlocking.
func (e *Editor) mutate(op string, fn func(p *Project) bool) bool {
	e.mu.Lock()
	changed := fn(e.project)
	var rev uint64
	if changed {
		e.revision++
		rev = e.revision
		e.project.UpdatedAt = e.clock.Now()
	}
	e.mu.Unlock()

	if !changed {
		e.logger.Debug("edit rejected", "op", op)
		return false
	}

	e.subMu.Lock()
	subs := make([]func(uint64), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(rev)
	}
	return true
}

func (e *Editor) removeFromSelection(id string) {
	out := e.selection[:0]
	for _, s := range e.selection {
		if s != id {
			out = append(out, s)
		}
	}
	e.selection = out
}

// TotalDuration returns the effective project length, never below
// DefaultDurationFloor.
func (e *Editor) TotalDuration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.TotalDuration(DefaultDurationFloor)
}

// FrameRate returns the project frame rate.
func (e *Editor) FrameRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.FPS()
}

// Checkpoint returns a deep copy of the project together with the revision
// it reflects.
func (e *Editor) Checkpoint() (*Project, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.Clone(), e.revision
}
