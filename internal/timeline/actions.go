package timeline

import (
	"math"
	"sort"

	"github.com/reelworks/timeline/internal/timecode"
)

// AssetPatch is a shallow update: every non-nil field replaces the current
// value. The Clear flags drop optional blocks.
type AssetPatch struct {
	Name           *string
	URL            *string
	ThumbnailURL   *string
	StartTime      *float64
	Duration       *float64
	SourceDuration *float64
	TrimStart      *float64
	TrimEnd        *float64
	Volume         *float64
	Muted          *bool
	FadeIn         *float64
	FadeOut        *float64
	Speed          *float64
	Reversed       *bool
	Transition     *Transition
	ColorGrading   *ColorGrading
	Effects        *VisualEffects
	Text           *TextBlock
	Keyframes      []Keyframe
	Origin         *Origin

	ClearTransition   bool
	ClearColorGrading bool
	ClearEffects      bool
}

// Add places a new asset and returns its id. Missing defaults are filled in:
// track kind from the type, speed 1, duration derived from the source.
func (e *Editor) Add(a Asset) string {
	ids := e.AddMany([]Asset{a})
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// AddMany places every valid asset in order and returns the new ids.
func (e *Editor) AddMany(assets []Asset) []string {
	var ids []string
	e.mutate("add", func(p *Project) bool {
		now := e.clock.Now()
		for _, a := range assets {
			a = a.Clone()
			if !normalizeNew(p, &a) {
				continue
			}
			a.ID = e.newID(string(a.Type), now)
			if a.Composition != nil && a.Composition.ID == "" {
				a.Composition.ID = a.ID
			}
			p.Assets = append(p.Assets, a)
			ids = append(ids, a.ID)
		}
		return len(ids) > 0
	})
	return ids
}

func normalizeNew(p *Project, a *Asset) bool {
	if a.Type == "" {
		return false
	}
	if a.TrackKind == "" {
		a.TrackKind = DefaultTrackKind(a.Type)
	}
	if a.Speed <= 0 {
		a.Speed = 1
	}
	if a.StartTime < 0 || a.TrimStart < 0 || a.TrimEnd < 0 || a.Duration < 0 || !offsetsValid(a) {
		return false
	}
	if a.SourceDuration > 0 && a.TrimStart+a.TrimEnd > a.SourceDuration {
		return false
	}
	if (a.HiddenByComposition || a.ParentCompositionID != "") && !p.hasComposition(a.ParentCompositionID) {
		clearHidden(a)
	}
	if a.Duration == 0 {
		a.Duration = timecode.DeriveDuration(timecode.MediaKind(a.Type), a.SourceDuration, a.TrimStart, a.TrimEnd, a.Speed)
		if a.Duration <= 0 {
			return false
		}
	}
	a.StartTime = timecode.Snap(a.StartTime, p.FPS())
	a.Track = clampTrack(a.Track, p.Tracks.Ceiling(a.TrackKind))
	sortKeyframes(a.Keyframes)
	return true
}

// AddClip appends a legacy clip and returns its id.
func (e *Editor) AddClip(c Clip) string {
	ids := e.AddClips([]Clip{c})
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func (e *Editor) AddClips(clips []Clip) []string {
	var ids []string
	e.mutate("add_clip", func(p *Project) bool {
		now := e.clock.Now()
		for _, c := range clips {
			if c.Type == "" || c.StartTime < 0 || c.Duration <= 0 {
				continue
			}
			c.ID = e.newID(string(c.Type), now)
			c.StartTime = timecode.Snap(c.StartTime, p.FPS())
			p.Clips = append(p.Clips, c)
			ids = append(ids, c.ID)
		}
		return len(ids) > 0
	})
	return ids
}

// Update shallow-merges patch into the asset. It returns false when the id
// is unknown or the result would break an asset invariant.
func (e *Editor) Update(id string, patch AssetPatch) bool {
	return e.mutate("update", func(p *Project) bool {
		i := p.indexOf(id)
		if i < 0 {
			return false
		}
		next := p.Assets[i].Clone()
		patch.apply(&next)
		if next.StartTime < 0 || next.Duration <= 0 || next.TrimStart < 0 || next.TrimEnd < 0 || next.Speed <= 0 || !offsetsValid(&next) {
			return false
		}
		if next.SourceDuration > 0 && next.TrimStart+next.TrimEnd > next.SourceDuration {
			return false
		}
		next.StartTime = timecode.Snap(next.StartTime, p.FPS())
		p.Assets[i] = next
		return true
	})
}

func (patch AssetPatch) apply(a *Asset) {
	setString(&a.Name, patch.Name)
	setString(&a.URL, patch.URL)
	setString(&a.ThumbnailURL, patch.ThumbnailURL)
	setFloat(&a.StartTime, patch.StartTime)
	setFloat(&a.Duration, patch.Duration)
	setFloat(&a.SourceDuration, patch.SourceDuration)
	setFloat(&a.TrimStart, patch.TrimStart)
	setFloat(&a.TrimEnd, patch.TrimEnd)
	setFloat(&a.Volume, patch.Volume)
	setFloat(&a.FadeIn, patch.FadeIn)
	setFloat(&a.FadeOut, patch.FadeOut)
	setFloat(&a.Speed, patch.Speed)
	if patch.Muted != nil {
		a.Muted = *patch.Muted
	}
	if patch.Reversed != nil {
		a.Reversed = *patch.Reversed
	}
	if patch.ClearTransition {
		a.Transition = nil
	}
	if patch.Transition != nil {
		tr := *patch.Transition
		a.Transition = &tr
	}
	if patch.ClearColorGrading {
		a.ColorGrading = nil
	}
	if patch.ColorGrading != nil {
		cg := *patch.ColorGrading
		a.ColorGrading = &cg
	}
	if patch.ClearEffects {
		a.Effects = nil
	}
	if patch.Effects != nil {
		fx := *patch.Effects
		a.Effects = &fx
	}
	if patch.Text != nil {
		tmp := Asset{Text: patch.Text}.Clone()
		a.Text = tmp.Text
	}
	if patch.Keyframes != nil {
		tmp := Asset{Keyframes: patch.Keyframes}.Clone()
		a.Keyframes = tmp.Keyframes
		sortKeyframes(a.Keyframes)
	}
	if patch.Origin != nil {
		o := *patch.Origin
		a.Origin = &o
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes an asset or legacy clip. In ripple mode every later asset
// on the same track shifts left by the removed duration. Deleting a
// composition restores its hidden sources in place and never ripples.
func (e *Editor) Delete(id string) bool {
	return e.mutate("delete", func(p *Project) bool {
		i := p.indexOf(id)
		if i < 0 {
			return deleteClip(p, id)
		}
		removed := p.Assets[i]
		p.Assets = append(p.Assets[:i], p.Assets[i+1:]...)
		if removed.Composition != nil {
			unhideSources(p, removed.Composition.ID)
		} else if e.ripple {
			rippleShift(p, &removed)
		}
		e.removeFromSelection(id)
		return true
	})
}

func deleteClip(p *Project, id string) bool {
	for i := range p.Clips {
		if p.Clips[i].ID == id {
			p.Clips = append(p.Clips[:i], p.Clips[i+1:]...)
			return true
		}
	}
	return false
}

func rippleShift(p *Project, removed *Asset) {
	for i := range p.Assets {
		a := &p.Assets[i]
		if !a.SameTrack(removed) || a.StartTime <= removed.StartTime {
			continue
		}
		a.StartTime = timecode.Snap(math.Max(0, a.StartTime-removed.Duration), p.FPS())
	}
}

// Duplicate clones an asset right after the original and returns the new id.
func (e *Editor) Duplicate(id string) (string, bool) {
	var newID string
	ok := e.mutate("duplicate", func(p *Project) bool {
		i := p.indexOf(id)
		if i < 0 {
			return false
		}
		dup := p.Assets[i].Clone()
		dup.ID = e.newID(string(dup.Type), e.clock.Now())
		dup.StartTime = timecode.Snap(dup.End()+DuplicateGap, p.FPS())
		clearHidden(&dup)
		if dup.Composition != nil {
			dup.Composition.ID = dup.ID
			dup.Composition.CanRecompose = false
		}
		p.Assets = append(p.Assets, dup)
		newID = dup.ID
		return true
	})
	return newID, ok
}

// Move places an asset at a frame-snapped time on a clamped track.
func (e *Editor) Move(id string, track int, t float64) bool {
	return e.mutate("move", func(p *Project) bool {
		a, ok := p.Asset(id)
		if !ok {
			return false
		}
		a.StartTime = timecode.Snap(math.Max(0, t), p.FPS())
		a.Track = clampTrack(track, p.Tracks.Ceiling(a.TrackKind))
		return true
	})
}

// Trim grows the in/out trims by the given source-time deltas and shrinks
// the duration to match. StartTime stays fixed. The call is rejected
// without any change when the result is invalid.
func (e *Editor) Trim(id string, inDelta, outDelta float64) bool {
	return e.mutate("trim", func(p *Project) bool {
		a, ok := p.Asset(id)
		if !ok {
			return false
		}
		trimIn := a.TrimStart + inDelta
		trimOut := a.TrimEnd + outDelta
		speed := a.Speed
		if speed <= 0 {
			speed = 1
		}
		duration := a.Duration - (inDelta+outDelta)/speed
		if duration <= 0 || trimIn < 0 || trimOut < 0 {
			return false
		}
		if a.SourceDuration > 0 && trimIn+trimOut > a.SourceDuration {
			return false
		}
		if inDelta == 0 && outDelta == 0 {
			return false
		}
		a.TrimStart = trimIn
		a.TrimEnd = trimOut
		a.Duration = duration
		return true
	})
}

// Split cuts an asset at the current playhead.
func (e *Editor) Split(id string) (string, bool) {
	e.mu.Lock()
	at := e.playheadLocked()
	e.mu.Unlock()
	return e.SplitAt(id, at)
}

// SplitAt cuts an asset in two at t. The right half gets a new id and keeps
// the outgoing transition, fade-out and out animation.
func (e *Editor) SplitAt(id string, t float64) (string, bool) {
	var newID string
	ok := e.mutate("split", func(p *Project) bool {
		i := p.indexOf(id)
		if i < 0 {
			return false
		}
		at := timecode.Snap(t, p.FPS())
		left := p.Assets[i]
		if at <= left.StartTime || at >= left.End() {
			return false
		}
		speed := left.Speed
		if speed <= 0 {
			speed = 1
		}
		offset := at - left.StartTime
		right := left.Clone()
		right.ID = e.newID(string(left.Type), e.clock.Now())
		right.StartTime = at
		right.Duration = left.End() - at
		right.TrimStart = left.TrimStart + offset*speed
		right.FadeIn = 0
		right.Keyframes = nil

		left.Duration = offset
		left.TrimEnd = left.TrimEnd + right.Duration*speed
		left.FadeOut = 0
		left.Transition = nil

		if left.Text != nil {
			lt, rt := *left.Text, *right.Text
			lt.Out = nil
			rt.In = nil
			left.Text, right.Text = &lt, &rt
		}

		var kept []Keyframe
		for _, kf := range left.Keyframes {
			if kf.Time <= offset {
				kept = append(kept, kf)
				continue
			}
			kf = kf.clone()
			kf.Time -= offset
			right.Keyframes = append(right.Keyframes, kf)
		}
		left.Keyframes = kept

		p.Assets[i] = left
		p.Assets = append(p.Assets, Asset{})
		copy(p.Assets[i+2:], p.Assets[i+1:])
		p.Assets[i+1] = right
		newID = right.ID
		return true
	})
	return newID, ok
}

// AddKeyframe inserts kf in time order, replacing any key at the same time.
func (e *Editor) AddKeyframe(id string, kf Keyframe) bool {
	return e.mutate("add_keyframe", func(p *Project) bool {
		a, ok := p.Asset(id)
		if !ok || kf.Time < 0 || kf.Time > a.Duration {
			return false
		}
		kf = kf.clone()
		for i := range a.Keyframes {
			if a.Keyframes[i].Time == kf.Time {
				a.Keyframes[i] = kf
				return true
			}
		}
		a.Keyframes = append(a.Keyframes, kf)
		sortKeyframes(a.Keyframes)
		return true
	})
}

func (e *Editor) RemoveKeyframe(id string, at float64) bool {
	return e.mutate("remove_keyframe", func(p *Project) bool {
		a, ok := p.Asset(id)
		if !ok {
			return false
		}
		for i := range a.Keyframes {
			if a.Keyframes[i].Time == at {
				a.Keyframes = append(a.Keyframes[:i], a.Keyframes[i+1:]...)
				return true
			}
		}
		return false
	})
}

func clampTrack(track, ceiling int) int {
	if track < 0 {
		return 0
	}
	if track >= ceiling {
		return ceiling - 1
	}
	return track
}

func sortKeyframes(kfs []Keyframe) {
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time < kfs[j].Time })
}

// offsetsValid reports whether fades and keyframe offsets are non-negative.
func offsetsValid(a *Asset) bool {
	if a.FadeIn < 0 || a.FadeOut < 0 {
		return false
	}
	for _, kf := range a.Keyframes {
		if kf.Time < 0 {
			return false
		}
	}
	return true
}

func clearHidden(a *Asset) {
	a.IsSourceClip = false
	a.HiddenByComposition = false
	a.ParentCompositionID = ""
}
