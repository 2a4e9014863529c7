package effects

import (
	"math"
	"sort"

	"github.com/reelworks/timeline/internal/catalog"
	"github.com/reelworks/timeline/internal/timecode"
	"github.com/reelworks/timeline/internal/timeline"
)

// MaxPixelizeBlur is the blur radius at the midpoint of a pixelize
// transition.
const MaxPixelizeBlur = 24.0

// Rect is a clip rectangle in normalized frame coordinates.
type Rect struct {
	X, Y, W, H float64
}

var fullFrame = Rect{W: 1, H: 1}

// Layer holds the presentation deltas for one side of a transition.
// Translations are fractions of the frame size.
type Layer struct {
	Opacity    float64 `json:"opacity"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	Blur       float64 `json:"blur"`
	Clip       Rect    `json:"clip"`
}

func identity() Layer {
	return Layer{Opacity: 1, ScaleX: 1, ScaleY: 1, Clip: fullFrame}
}

// Presentation is the pair of layer deltas for a transition at one
// progress value. Backdrop is set for dip-to-color fades.
type Presentation struct {
	Progress float64 `json:"progress"`
	Outgoing Layer   `json:"outgoing"`
	Incoming Layer   `json:"incoming"`
	Backdrop string  `json:"backdrop,omitempty"`
}

// Present computes the family-specific deltas for eased progress p.
func Present(def catalog.TransitionDef, p float64) Presentation {
	p = clamp01(p)
	out, in := identity(), identity()
	pr := Presentation{Progress: p}

	switch def.Family {
	case catalog.FamilyFade:
		if def.ViaColor != "" {
			pr.Backdrop = def.ViaColor
			out.Opacity = clamp01(1 - 2*p)
			in.Opacity = clamp01(2*p - 1)
		} else {
			out.Opacity = 1 - p
			in.Opacity = p
		}
	case catalog.FamilyWipe:
		switch def.Direction {
		case "left":
			in.Clip = Rect{X: 1 - p, W: p, H: 1}
		case "up":
			in.Clip = Rect{Y: 1 - p, W: 1, H: p}
		case "down":
			in.Clip = Rect{W: 1, H: p}
		default:
			in.Clip = Rect{W: p, H: 1}
		}
	case catalog.FamilySlide:
		switch def.Direction {
		case "left":
			out.TranslateX, in.TranslateX = -p, 1-p
		case "up":
			out.TranslateY, in.TranslateY = -p, 1-p
		case "down":
			out.TranslateY, in.TranslateY = p, p-1
		default:
			out.TranslateX, in.TranslateX = p, p-1
		}
	case catalog.FamilyZoom:
		out.Opacity, in.Opacity = 1-p, p
		if def.Direction == "out" {
			setScale(&out, 1-0.5*p)
			setScale(&in, 1.5-0.5*p)
		} else {
			setScale(&out, 1+0.5*p)
			setScale(&in, 0.5+0.5*p)
		}
	case catalog.FamilySqueeze:
		if def.Direction == "vertical" {
			out.ScaleY, in.ScaleY = 1-p, p
		} else {
			out.ScaleX, in.ScaleX = 1-p, p
		}
	case catalog.FamilyPixelize:
		blur := MaxPixelizeBlur * (1 - math.Abs(2*p-1))
		out.Blur, in.Blur = blur, blur
		if p < 0.5 {
			in.Opacity = 0
		} else {
			out.Opacity = 0
		}
	}
	pr.Outgoing, pr.Incoming = out, in
	return pr
}

func setScale(l *Layer, s float64) {
	l.ScaleX, l.ScaleY = s, s
}

// Window is the overlap between an asset carrying an outgoing transition
// and the next asset on the same track.
type Window struct {
	OutgoingID string
	IncomingID string
	Def        catalog.TransitionDef
	Easing     timeline.Easing
	Start, End float64
}

// Progress returns raw and eased progress at t. active is false outside
// [Start, End].
func (w Window) Progress(t float64) (raw, eased float64, active bool) {
	if t < w.Start || t > w.End || w.End <= w.Start {
		return 0, 0, false
	}
	raw = (t - w.Start) / (w.End - w.Start)
	return raw, Ease(w.Easing, raw), true
}

// ActiveTransition is a window evaluated at a point in time.
type ActiveTransition struct {
	Window
	Raw          float64
	Presentation Presentation
}

// Windows finds every transition window in the project. An incoming asset
// qualifies when it is visible, shares the track and starts no later than
// one frame after the outgoing asset ends.
func Windows(p *timeline.Project) []Window {
	frame := timecode.FrameDuration(p.FPS())
	var out []Window
	for i := range p.Assets {
		a := &p.Assets[i]
		if a.Transition == nil || a.Transition.Duration <= 0 || !a.Visible() {
			continue
		}
		def, ok := catalog.Transition(a.Transition.Type)
		if !ok {
			continue
		}
		next := nextOnTrack(p, a, frame)
		if next == nil {
			continue
		}
		d := math.Min(a.Transition.Duration, a.Duration)
		easing := a.Transition.Easing
		if easing == "" {
			easing = timeline.DefaultEasing
		}
		out = append(out, Window{
			OutgoingID: a.ID,
			IncomingID: next.ID,
			Def:        def,
			Easing:     easing,
			Start:      a.End() - d,
			End:        a.End(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func nextOnTrack(p *timeline.Project, a *timeline.Asset, tolerance float64) *timeline.Asset {
	var best *timeline.Asset
	for i := range p.Assets {
		b := &p.Assets[i]
		if b.ID == a.ID || !b.Visible() || !b.SameTrack(a) {
			continue
		}
		if b.StartTime <= a.StartTime || b.StartTime > a.End()+tolerance {
			continue
		}
		if best == nil || b.StartTime < best.StartTime {
			best = b
		}
	}
	return best
}

// ActiveTransitions evaluates every window containing t.
func ActiveTransitions(p *timeline.Project, t float64) []ActiveTransition {
	var out []ActiveTransition
	for _, w := range Windows(p) {
		raw, eased, ok := w.Progress(t)
		if !ok {
			continue
		}
		out = append(out, ActiveTransition{Window: w, Raw: raw, Presentation: Present(w.Def, eased)})
	}
	return out
}
