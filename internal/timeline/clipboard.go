package timeline

import (
	"math"

	"github.com/reelworks/timeline/internal/timecode"
)

// PasteTarget overrides where a paste lands. Nil fields fall back to the
// active track and the current playhead.
type PasteTarget struct {
	Track *int
	Time  *float64
}

// Copy snapshots the given assets, in the order given, into the clipboard.
// Unknown ids are skipped. It returns the number of copied assets.
func (e *Editor) Copy(ids ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var clip []Asset
	for _, id := range ids {
		if a, ok := e.project.Asset(id); ok {
			clip = append(clip, a.Clone())
		}
	}
	if len(clip) == 0 {
		return 0
	}
	e.clipboard = clip
	return len(clip)
}

// Clipboard returns a copy of the clipboard contents.
func (e *Editor) Clipboard() []Asset {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Asset, len(e.clipboard))
	for i := range e.clipboard {
		out[i] = e.clipboard[i].Clone()
	}
	return out
}

// Paste inserts fresh clones of the clipboard, offset so the first copied
// asset lands on the target. Relative spacing is preserved and the pasted
// assets become the selection.
func (e *Editor) Paste(target PasteTarget) []string {
	var ids []string
	e.mutate("paste", func(p *Project) bool {
		if len(e.clipboard) == 0 {
			return false
		}
		track := e.activeTrack
		if target.Track != nil {
			track = *target.Track
		}
		at := e.playheadLocked()
		if target.Time != nil {
			at = *target.Time
		}
		first := e.clipboard[0]
		dt := at - first.StartTime
		dTrack := track - first.Track

		now := e.clock.Now()
		for _, src := range e.clipboard {
			a := src.Clone()
			a.ID = e.newID(string(a.Type), now)
			a.StartTime = timecode.Snap(math.Max(0, a.StartTime+dt), p.FPS())
			a.Track = clampTrack(a.Track+dTrack, p.Tracks.Ceiling(a.TrackKind))
			clearHidden(&a)
			if a.Composition != nil {
				a.Composition.ID = a.ID
				a.Composition.CanRecompose = false
			}
			p.Assets = append(p.Assets, a)
			ids = append(ids, a.ID)
		}
		e.selection = append([]string(nil), ids...)
		return true
	})
	return ids
}
