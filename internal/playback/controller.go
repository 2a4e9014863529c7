// Package playback advances a virtual playhead over a project on a fixed
// frame tick.
package playback

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/reelworks/timeline/internal/clock"
	"github.com/reelworks/timeline/internal/effects"
	"github.com/reelworks/timeline/internal/schedule"
	"github.com/reelworks/timeline/internal/timecode"
	"github.com/reelworks/timeline/internal/timeline"
)

// Source is the read side of the editor.
type Source interface {
	Snapshot() *timeline.Project
	TotalDuration() float64
	FrameRate() float64
}

// State is the observable playback state.
type State struct {
	Playing  bool    `json:"isPlaying"`
	Position float64 `json:"playheadPosition"`
}

// Controller owns the playback ticker. The playhead only ever sits on a
// whole frame. When it reaches the end of the project it stops there.
//
// Lock order: Source calls happen before c.mu is taken, since the editor
// reads Position while holding its own lock.
type Controller struct {
	src    Source
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	playing  bool
	frame    int64
	fps      float64
	task     *schedule.Task
	run      uint64 // bumped on every Play; ticks from older runs are ignored
	onChange func(State)
}

func New(src Source, c clock.Clock, logger *slog.Logger) *Controller {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{src: src, clock: c, logger: logger, fps: src.FrameRate()}
}

// OnChange registers a callback fired after every state change, including
// each tick. It runs on the ticker goroutine.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{Playing: c.playing, Position: timecode.FromFrames(c.frame, c.fps)}
}

// Position returns the playhead in seconds.
func (c *Controller) Position() float64 {
	return c.State().Position
}

func (c *Controller) Playing() bool {
	return c.State().Playing
}

// TotalDuration is derived from the project on every call.
func (c *Controller) TotalDuration() float64 {
	return c.src.TotalDuration()
}

// Play starts the ticker. Playing from the end restarts at zero.
func (c *Controller) Play() {
	total := c.src.TotalDuration()
	fps := c.src.FrameRate()

	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return
	}
	c.rescaleLocked(fps)
	if c.frame >= timecode.Frames(total, c.fps) {
		c.frame = 0
	}
	c.playing = true
	c.run++
	run := c.run
	period := time.Duration(float64(time.Second) / c.fps)
	c.task = schedule.Every(c.clock, period, func() { c.tick(run) })
	c.logger.Debug("playback started", "position", timecode.FromFrames(c.frame, c.fps), "fps", c.fps)
	c.notifyLocked()
}

func (c *Controller) tick(run uint64) {
	total := c.src.TotalDuration()

	c.mu.Lock()
	if !c.playing || run != c.run {
		c.mu.Unlock()
		return
	}
	last := timecode.Frames(total, c.fps)
	c.frame++
	if c.frame >= last {
		c.frame = last
		c.haltLocked()
		c.logger.Debug("playback reached end", "position", total)
	}
	c.notifyLocked()
}

// Pause stops the ticker and keeps the position.
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.haltLocked()
	c.notifyLocked()
}

// Stop pauses and rewinds to zero.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.haltLocked()
	c.frame = 0
	c.notifyLocked()
}

// Seek moves the playhead to t, clamped to [0, TotalDuration] and snapped to
// a frame.
func (c *Controller) Seek(t float64) {
	total := c.src.TotalDuration()
	fps := c.src.FrameRate()

	c.mu.Lock()
	c.rescaleLocked(fps)
	c.frame = timecode.Frames(math.Max(0, math.Min(t, total)), c.fps)
	c.notifyLocked()
}

// Skip moves the playhead by delta seconds.
func (c *Controller) Skip(delta float64) {
	c.Seek(c.Position() + delta)
}

// Step moves the playhead by whole frames.
func (c *Controller) Step(frames int) {
	c.mu.Lock()
	fps := c.fps
	c.mu.Unlock()
	c.Seek(c.Position() + float64(frames)/fps)
}

func (c *Controller) haltLocked() {
	c.playing = false
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}

// rescaleLocked keeps the playhead time when the project frame rate changed.
func (c *Controller) rescaleLocked(fps float64) {
	if fps == c.fps {
		return
	}
	pos := timecode.FromFrames(c.frame, c.fps)
	c.fps = fps
	c.frame = timecode.Frames(pos, fps)
}

// notifyLocked releases c.mu before running the callback.
func (c *Controller) notifyLocked() {
	st := c.stateLocked()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// ActiveAssets returns the visible assets under t, video tracks first, each
// group ordered by track index.
func (c *Controller) ActiveAssets(t float64) []timeline.Asset {
	return ActiveAssets(c.src.Snapshot(), t)
}

// ActiveTransitions evaluates the transition windows containing t.
func (c *Controller) ActiveTransitions(t float64) []effects.ActiveTransition {
	return effects.ActiveTransitions(c.src.Snapshot(), t)
}

func ActiveAssets(p *timeline.Project, t float64) []timeline.Asset {
	var out []timeline.Asset
	for i := range p.Assets {
		a := &p.Assets[i]
		if a.Visible() && a.Contains(t) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TrackKind != out[j].TrackKind {
			return out[i].TrackKind == timeline.TrackVideo
		}
		return out[i].Track < out[j].Track
	})
	return out
}
