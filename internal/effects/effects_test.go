package effects

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelworks/timeline/internal/catalog"
	"github.com/reelworks/timeline/internal/timeline"
)

func TestEase(t *testing.T) {
	cases := []struct {
		easing timeline.Easing
		p      float64
		want   float64
	}{
		{timeline.EaseLinear, 0.25, 0.25},
		{timeline.EaseIn, 0.5, 0.25},
		{timeline.EaseOut, 0.5, 0.75},
		{timeline.EaseInOut, 0.25, 0.125},
		{timeline.EaseInOut, 0.5, 0.5},
		{timeline.EaseInOut, 0.75, 0.875},
		{timeline.EaseIn, 1.5, 1},
		{timeline.EaseOut, -1, 0},
		{"bounce", 0.3, 0.3},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, Ease(tc.easing, tc.p), 1e-9, "%s(%v)", tc.easing, tc.p)
	}
}

func TestEaseIsMonotonic(t *testing.T) {
	for _, e := range []timeline.Easing{timeline.EaseLinear, timeline.EaseIn, timeline.EaseOut, timeline.EaseInOut} {
		prev := 0.0
		for i := 0; i <= 100; i++ {
			v := Ease(e, float64(i)/100)
			require.GreaterOrEqual(t, v, prev, "%s at %d", e, i)
			prev = v
		}
		require.InDelta(t, 1.0, prev, 1e-9)
	}
}

func def(t *testing.T, id string) catalog.TransitionDef {
	t.Helper()
	d, ok := catalog.Transition(id)
	require.True(t, ok, id)
	return d
}

func TestPresent_Families(t *testing.T) {
	fade := Present(def(t, "crossfade"), 0.25)
	require.InDelta(t, 0.75, fade.Outgoing.Opacity, 1e-9)
	require.InDelta(t, 0.25, fade.Incoming.Opacity, 1e-9)

	dip := Present(def(t, "fade-black"), 0.25)
	require.Equal(t, "black", dip.Backdrop)
	require.InDelta(t, 0.5, dip.Outgoing.Opacity, 1e-9)
	require.Zero(t, dip.Incoming.Opacity)

	wipe := Present(def(t, "wipe-left"), 0.3)
	require.InDelta(t, 0.7, wipe.Incoming.Clip.X, 1e-9)
	require.InDelta(t, 0.3, wipe.Incoming.Clip.W, 1e-9)
	require.Equal(t, fullFrame, wipe.Outgoing.Clip)

	slide := Present(def(t, "slide-right"), 0.5)
	require.InDelta(t, 0.5, slide.Outgoing.TranslateX, 1e-9)
	require.InDelta(t, -0.5, slide.Incoming.TranslateX, 1e-9)

	zoom := Present(def(t, "zoom-in"), 1)
	require.InDelta(t, 1.5, zoom.Outgoing.ScaleX, 1e-9)
	require.InDelta(t, 1.0, zoom.Incoming.ScaleY, 1e-9)
	require.InDelta(t, 1.0, zoom.Incoming.Opacity, 1e-9)

	squeeze := Present(def(t, "squeeze-vertical"), 0.4)
	require.InDelta(t, 0.6, squeeze.Outgoing.ScaleY, 1e-9)
	require.Equal(t, 1.0, squeeze.Outgoing.ScaleX)
}

func TestPresent_PixelizeIsSymmetric(t *testing.T) {
	d := def(t, "pixelize")
	require.InDelta(t, MaxPixelizeBlur, Present(d, 0.5).Outgoing.Blur, 1e-9)
	require.Zero(t, Present(d, 0).Outgoing.Blur)
	require.Zero(t, Present(d, 1).Incoming.Blur)
	for _, p := range []float64{0.1, 0.2, 0.35} {
		require.InDelta(t, Present(d, p).Outgoing.Blur, Present(d, 1-p).Incoming.Blur, 1e-9)
	}
}

func project(assets ...timeline.Asset) *timeline.Project {
	p := &timeline.Project{ID: "p", FrameRate: 30, Tracks: timeline.TrackConfig{Video: 2, Audio: 2}}
	p.Assets = assets
	return p
}

func TestActiveTransitions(t *testing.T) {
	p := project(
		timeline.Asset{ID: "a", TrackKind: timeline.TrackVideo, StartTime: 0, Duration: 5,
			Transition: &timeline.Transition{Type: "crossfade", Duration: 1, Easing: timeline.EaseLinear}},
		timeline.Asset{ID: "b", TrackKind: timeline.TrackVideo, StartTime: 5, Duration: 5},
		timeline.Asset{ID: "c", TrackKind: timeline.TrackVideo, Track: 1, StartTime: 5, Duration: 5},
	)

	require.Empty(t, ActiveTransitions(p, 3.9))

	active := ActiveTransitions(p, 4.5)
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].OutgoingID)
	require.Equal(t, "b", active[0].IncomingID)
	require.InDelta(t, 0.5, active[0].Raw, 1e-9)
	require.InDelta(t, 0.5, active[0].Presentation.Incoming.Opacity, 1e-9)
}

func TestWindows_SkipsUnknownAndUnadjacent(t *testing.T) {
	p := project(
		timeline.Asset{ID: "a", TrackKind: timeline.TrackVideo, Duration: 5,
			Transition: &timeline.Transition{Type: "star-wipe", Duration: 1}},
		timeline.Asset{ID: "b", TrackKind: timeline.TrackVideo, StartTime: 5, Duration: 5,
			Transition: &timeline.Transition{Type: "fade", Duration: 1}},
		timeline.Asset{ID: "c", TrackKind: timeline.TrackVideo, StartTime: 12, Duration: 5},
	)
	require.Empty(t, Windows(p))
}

func TestWindows_DefaultEasingAndClampedDuration(t *testing.T) {
	p := project(
		timeline.Asset{ID: "a", TrackKind: timeline.TrackVideo, Duration: 0.5,
			Transition: &timeline.Transition{Type: "fade", Duration: 2}},
		timeline.Asset{ID: "b", TrackKind: timeline.TrackVideo, StartTime: 0.5, Duration: 5},
	)
	ws := Windows(p)
	require.Len(t, ws, 1)
	require.Equal(t, timeline.DefaultEasing, ws[0].Easing)
	require.Equal(t, 0.0, ws[0].Start)
	require.Equal(t, 0.5, ws[0].End)
}

func TestCombineGrade(t *testing.T) {
	g := CombineGrade(&timeline.ColorGrading{Preset: "noir", Intensity: 0.5, Brightness: 20})
	require.InDelta(t, 5, g.Brightness, 1e-9)
	require.InDelta(t, 20, g.Contrast, 1e-9)
	require.InDelta(t, -50, g.Saturation, 1e-9)

	clamped := CombineGrade(&timeline.ColorGrading{Preset: "noir", Intensity: 1, Saturation: -40})
	require.Equal(t, -100.0, clamped.Saturation)

	require.Equal(t, Grade{}, CombineGrade(nil))
}

func TestAssetFilters_Order(t *testing.T) {
	a := &timeline.Asset{
		ColorGrading: &timeline.ColorGrading{Preset: "cinematic", Intensity: 1},
		Effects:      &timeline.VisualEffects{Blur: 2, Grain: 0.3},
	}
	var names []string
	for _, f := range AssetFilters(a) {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{FilterBrightness, FilterContrast, FilterSaturate, FilterTemperature, FilterBlur, FilterGrain}, names)
	require.Empty(t, AssetFilters(&timeline.Asset{}))
}

func f(v float64) *float64 { return &v }

func TestSample(t *testing.T) {
	kfs := []timeline.Keyframe{
		{Time: 1, X: f(0), Opacity: f(0)},
		{Time: 2, Scale: f(2)},
		{Time: 3, X: f(100), Opacity: f(1), Easing: timeline.EaseIn},
	}

	before := Sample(kfs, 0)
	require.Equal(t, 0.0, before.X)
	require.Equal(t, 2.0, before.Scale)
	require.Equal(t, 0.0, before.Opacity)

	mid := Sample(kfs, 2)
	require.InDelta(t, 50, mid.X, 1e-9)
	require.InDelta(t, 0.5, mid.Opacity, 1e-9)
	require.Equal(t, 1.0, mid.Volume)

	after := Sample(kfs, 10)
	require.Equal(t, 100.0, after.X)
	require.Equal(t, 1.0, after.Opacity)

	require.Equal(t, IdentityTransform, Sample(nil, 1))
}

func TestFadeGain(t *testing.T) {
	a := &timeline.Asset{Duration: 10, FadeIn: 2, FadeOut: 4}
	require.InDelta(t, 0.5, FadeGain(a, 1), 1e-9)
	require.Equal(t, 1.0, FadeGain(a, 5))
	require.InDelta(t, 0.25, FadeGain(a, 9), 1e-9)
}

func TestTextLayer(t *testing.T) {
	tb := &timeline.TextBlock{
		Content: "Title",
		In:      &timeline.TextAnimation{Kind: timeline.TextAnimFade, Duration: 1},
		Out:     &timeline.TextAnimation{Kind: timeline.TextAnimSlide, Duration: 1, Direction: "left"},
	}
	require.Zero(t, TextLayer(tb, 0, 5).Opacity)
	require.InDelta(t, 0.75, TextLayer(tb, 0.5, 5).Opacity, 1e-9)
	require.Equal(t, identity(), TextLayer(tb, 2.5, 5))

	end := TextLayer(tb, 5, 5)
	require.InDelta(t, -TextSlideDistance, end.TranslateX, 1e-9)
	require.Zero(t, end.Opacity)
}
