package effects

import (
	"github.com/reelworks/timeline/internal/catalog"
	"github.com/reelworks/timeline/internal/timeline"
)

// Filter is one step of the ordered filter chain handed to a renderer.
// Factor filters are neutral at 1; signed filters are neutral at 0.
type Filter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Filter names in application order.
const (
	FilterBrightness  = "brightness"
	FilterContrast    = "contrast"
	FilterSaturate    = "saturate"
	FilterTemperature = "temperature"
	FilterTint        = "tint"
	FilterBlur        = "blur"
	FilterSharpen     = "sharpen"
	FilterVignette    = "vignette"
	FilterGrain       = "grain"
)

// Grade holds the combined slider deltas of a preset and user overrides.
type Grade struct {
	Brightness  float64
	Contrast    float64
	Saturation  float64
	Temperature float64
	Tint        float64
}

// CombineGrade adds the overrides of cg to its preset's deltas, clamped to
// [-100, 100], and scales the result by intensity. An unknown preset
// contributes nothing.
func CombineGrade(cg *timeline.ColorGrading) Grade {
	if cg == nil {
		return Grade{}
	}
	var base catalog.GradingPreset
	if cg.Preset != "" {
		base, _ = catalog.Preset(cg.Preset)
	}
	k := clamp01(cg.Intensity)
	mix := func(preset, override float64) float64 {
		return clamp(preset+override, -100, 100) * k
	}
	return Grade{
		Brightness:  mix(base.Brightness, cg.Brightness),
		Contrast:    mix(base.Contrast, cg.Contrast),
		Saturation:  mix(base.Saturation, cg.Saturation),
		Temperature: mix(base.Temperature, cg.Temperature),
		Tint:        mix(base.Tint, cg.Tint),
	}
}

// Filters returns the ordered filter list for a grade. Untouched sliders are
// omitted.
func (g Grade) Filters() []Filter {
	var out []Filter
	add := func(name string, delta, value float64) {
		if delta != 0 {
			out = append(out, Filter{Name: name, Value: value})
		}
	}
	add(FilterBrightness, g.Brightness, 1+g.Brightness/100)
	add(FilterContrast, g.Contrast, 1+g.Contrast/100)
	add(FilterSaturate, g.Saturation, 1+g.Saturation/100)
	add(FilterTemperature, g.Temperature, g.Temperature/100)
	add(FilterTint, g.Tint, g.Tint/100)
	return out
}

// AssetFilters returns the grading filters of an asset followed by its
// visual effects.
func AssetFilters(a *timeline.Asset) []Filter {
	out := CombineGrade(a.ColorGrading).Filters()
	if fx := a.Effects; fx != nil {
		for _, f := range []Filter{
			{FilterBlur, fx.Blur},
			{FilterSharpen, fx.Sharpen},
			{FilterVignette, fx.Vignette},
			{FilterGrain, fx.Grain},
		} {
			if f.Value != 0 {
				out = append(out, f)
			}
		}
	}
	return out
}
