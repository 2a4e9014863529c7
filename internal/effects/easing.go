// Package effects derives presentation parameters for transitions, color
// grading, keyframes and text animation. It renders nothing.
package effects

import "github.com/reelworks/timeline/internal/timeline"

// Ease maps raw progress p in [0,1] through the named curve. Unknown curves
// are linear.
func Ease(e timeline.Easing, p float64) float64 {
	p = clamp01(p)
	switch e {
	case timeline.EaseIn:
		return p * p
	case timeline.EaseOut:
		return 1 - (1-p)*(1-p)
	case timeline.EaseInOut:
		if p < 0.5 {
			return 2 * p * p
		}
		q := -2*p + 2
		return 1 - q*q/2
	default:
		return p
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
