package effects

import "github.com/reelworks/timeline/internal/timeline"

// Transform is the sampled animated state of an asset.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
	Blur     float64 `json:"blur"`
	Volume   float64 `json:"volume"`
}

// IdentityTransform is the state of an asset without keyframes.
var IdentityTransform = Transform{Scale: 1, Opacity: 1, Volume: 1}

type property func(kf *timeline.Keyframe) *float64

var properties = []struct {
	get property
	set func(t *Transform, v float64)
}{
	{func(k *timeline.Keyframe) *float64 { return k.X }, func(t *Transform, v float64) { t.X = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Y }, func(t *Transform, v float64) { t.Y = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Scale }, func(t *Transform, v float64) { t.Scale = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Rotation }, func(t *Transform, v float64) { t.Rotation = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Opacity }, func(t *Transform, v float64) { t.Opacity = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Blur }, func(t *Transform, v float64) { t.Blur = v }},
	{func(k *timeline.Keyframe) *float64 { return k.Volume }, func(t *Transform, v float64) { t.Volume = v }},
}

// Sample interpolates keyframes at local time t (seconds from asset start).
// Each property is interpolated independently between the keys that set it,
// using the easing of the segment's starting key, and holds its first and
// last values outside the keyed range. kfs must be time-ordered.
func Sample(kfs []timeline.Keyframe, t float64) Transform {
	out := IdentityTransform
	for _, prop := range properties {
		if v, ok := sampleProperty(kfs, prop.get, t); ok {
			prop.set(&out, v)
		}
	}
	return out
}

func sampleProperty(kfs []timeline.Keyframe, get property, t float64) (float64, bool) {
	var prev *timeline.Keyframe
	for i := range kfs {
		k := &kfs[i]
		v := get(k)
		if v == nil {
			continue
		}
		if k.Time >= t {
			if prev == nil || k.Time == prev.Time {
				return *v, true
			}
			p := (t - prev.Time) / (k.Time - prev.Time)
			easing := prev.Easing
			if easing == "" {
				easing = timeline.EaseLinear
			}
			from := *get(prev)
			return from + (*v-from)*Ease(easing, p), true
		}
		prev = k
	}
	if prev == nil {
		return 0, false
	}
	return *get(prev), true
}

// FadeGain is the combined fade-in/fade-out multiplier at local time t.
func FadeGain(a *timeline.Asset, t float64) float64 {
	g := 1.0
	if a.FadeIn > 0 && t < a.FadeIn {
		g = clamp01(t / a.FadeIn)
	}
	if a.FadeOut > 0 && t > a.Duration-a.FadeOut {
		g = min(g, clamp01((a.Duration-t)/a.FadeOut))
	}
	return g
}
