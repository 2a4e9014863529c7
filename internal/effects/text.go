package effects

import "github.com/reelworks/timeline/internal/timeline"

// TextSlideDistance is how far a sliding text block travels, as a fraction
// of the frame.
const TextSlideDistance = 0.1

// TextLayer returns the presentation of a text block at local time t of an
// asset lasting duration seconds. The in animation runs from 0, the out
// animation ends at duration.
func TextLayer(tb *timeline.TextBlock, t, duration float64) Layer {
	l := identity()
	if tb == nil {
		return l
	}
	if in := tb.In; in != nil && in.Duration > 0 && t < in.Duration {
		applyText(&l, in, Ease(timeline.EaseOut, t/in.Duration))
	}
	if out := tb.Out; out != nil && out.Duration > 0 && t > duration-out.Duration {
		applyText(&l, out, Ease(timeline.EaseIn, (duration-t)/out.Duration))
	}
	return l
}

// applyText blends l toward its resting state by visibility v in [0,1].
func applyText(l *Layer, anim *timeline.TextAnimation, v float64) {
	switch anim.Kind {
	case timeline.TextAnimFade:
		l.Opacity = min(l.Opacity, v)
	case timeline.TextAnimScale:
		setScale(l, 0.5+0.5*v)
		l.Opacity = min(l.Opacity, v)
	case timeline.TextAnimSlide:
		off := (1 - v) * TextSlideDistance
		switch anim.Direction {
		case "left":
			l.TranslateX = -off
		case "right":
			l.TranslateX = off
		case "down":
			l.TranslateY = -off
		default:
			l.TranslateY = off
		}
		l.Opacity = min(l.Opacity, v)
	}
}
