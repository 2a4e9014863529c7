package timeline

import (
	"time"

	"github.com/reelworks/timeline/internal/timecode"
)

// DefaultDurationFloor is the shortest timeline the engine ever reports.
const DefaultDurationFloor = 60.0

type AssetType string

const (
	AssetVideo AssetType = "video"
	AssetAudio AssetType = "audio"
	AssetImage AssetType = "image"
	AssetMusic AssetType = "music"
	AssetText  AssetType = "text"
)

// TrackKind selects which family of tracks an asset lives on.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// DefaultTrackKind maps an asset type to the track family it is placed on.
func DefaultTrackKind(t AssetType) TrackKind {
	switch t {
	case AssetAudio, AssetMusic:
		return TrackAudio
	default:
		return TrackVideo
	}
}

type Easing string

const (
	EaseLinear    Easing = "linear"
	EaseIn        Easing = "ease-in"
	EaseOut       Easing = "ease-out"
	EaseInOut     Easing = "ease-in-out"
	DefaultEasing        = EaseInOut
)

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type TrackConfig struct {
	Video int `json:"videoTracks"`
	Audio int `json:"audioTracks"`
}

// Ceiling returns the number of tracks of the given kind, never less than 1.
func (c TrackConfig) Ceiling(kind TrackKind) int {
	n := c.Video
	if kind == TrackAudio {
		n = c.Audio
	}
	if n < 1 {
		return 1
	}
	return n
}

// Project is the aggregate root of the timeline.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Clips       []Clip      `json:"clips"`
	Assets      []Asset     `json:"assets"`
	Duration    float64     `json:"duration"`
	Resolution  Resolution  `json:"resolution"`
	AspectRatio string      `json:"aspectRatio"`
	FrameRate   float64     `json:"frameRate"`
	Tracks      TrackConfig `json:"tracks"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewProject returns an empty 1080p/30fps project with two tracks of each
// kind.
func NewProject(id, name string, now time.Time) *Project {
	return &Project{
		ID:          id,
		Name:        name,
		Clips:       []Clip{},
		Assets:      []Asset{},
		Duration:    DefaultDurationFloor,
		Resolution:  Resolution{Width: 1920, Height: 1080},
		AspectRatio: "16:9",
		FrameRate:   timecode.DefaultFrameRate,
		Tracks:      TrackConfig{Video: 2, Audio: 2},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FPS returns the project frame rate, falling back to the default.
func (p *Project) FPS() float64 {
	if p.FrameRate <= 0 {
		return timecode.DefaultFrameRate
	}
	return p.FrameRate
}

// TotalDuration is the effective length of the timeline: the largest of the
// nominal duration, every asset end and floor.
func (p *Project) TotalDuration(floor float64) float64 {
	total := p.Duration
	if floor > total {
		total = floor
	}
	for i := range p.Assets {
		if end := p.Assets[i].End(); end > total {
			total = end
		}
	}
	for i := range p.Clips {
		if end := p.Clips[i].StartTime + p.Clips[i].Duration; end > total {
			total = end
		}
	}
	return total
}

// Asset looks up an asset by id.
func (p *Project) Asset(id string) (*Asset, bool) {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			return &p.Assets[i], true
		}
	}
	return nil, false
}

func (p *Project) indexOf(id string) int {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Clips = append([]Clip(nil), p.Clips...)
	if out.Clips == nil {
		out.Clips = []Clip{}
	}
	out.Assets = make([]Asset, len(p.Assets))
	for i := range p.Assets {
		out.Assets[i] = p.Assets[i].Clone()
	}
	return &out
}

type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Easing   Easing  `json:"easing,omitempty"`
}

// ColorGrading deltas are slider units in [-100, 100]; Intensity is [0, 1].
type ColorGrading struct {
	Preset      string  `json:"preset,omitempty"`
	Intensity   float64 `json:"intensity"`
	Brightness  float64 `json:"brightness,omitempty"`
	Contrast    float64 `json:"contrast,omitempty"`
	Saturation  float64 `json:"saturation,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Tint        float64 `json:"tint,omitempty"`
}

type VisualEffects struct {
	Blur     float64 `json:"blur,omitempty"`
	Sharpen  float64 `json:"sharpen,omitempty"`
	Vignette float64 `json:"vignette,omitempty"`
	Grain    float64 `json:"grain,omitempty"`
}

type TextAnimationKind string

const (
	TextAnimNone  TextAnimationKind = "none"
	TextAnimFade  TextAnimationKind = "fade"
	TextAnimSlide TextAnimationKind = "slide"
	TextAnimScale TextAnimationKind = "scale"
)

type TextAnimation struct {
	Kind      TextAnimationKind `json:"kind"`
	Duration  float64           `json:"duration"`
	Direction string            `json:"direction,omitempty"`
}

type TextStyle struct {
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	Align      string  `json:"align,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type TextBlock struct {
	Content string         `json:"content"`
	Style   TextStyle      `json:"style"`
	In      *TextAnimation `json:"animationIn,omitempty"`
	Out     *TextAnimation `json:"animationOut,omitempty"`
}

// Keyframe values are optional; a nil field is not animated by this key.
type Keyframe struct {
	Time     float64  `json:"time"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Blur     *float64 `json:"blur,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Easing   Easing   `json:"easing,omitempty"`
}

type CompositionInfo struct {
	ID            string   `json:"compositionId"`
	SourceClipIDs []string `json:"sourceClipIds"`
	Kind          string   `json:"kind"`
	Cost          float64  `json:"cost"`
	CanRecompose  bool     `json:"canRecompose"`
	Version       int      `json:"version"`
}

// Asset is one placed media unit on the timeline.
type Asset struct {
	ID             string    `json:"id"`
	Type           AssetType `json:"type"`
	Name           string    `json:"name,omitempty"`
	URL            string    `json:"url"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	Track          int       `json:"track"`
	TrackKind      TrackKind `json:"trackType"`
	StartTime      float64   `json:"startTime"`
	Duration       float64   `json:"duration"`
	SourceDuration float64   `json:"sourceDuration,omitempty"`
	TrimStart      float64   `json:"trimStart"`
	TrimEnd        float64   `json:"trimEnd"`
	Volume         float64   `json:"volume"`
	Muted          bool      `json:"muted"`
	FadeIn         float64   `json:"fadeIn,omitempty"`
	FadeOut        float64   `json:"fadeOut,omitempty"`
	Speed          float64   `json:"speed"`
	Reversed       bool      `json:"reversed,omitempty"`

	Transition   *Transition    `json:"transition,omitempty"`
	ColorGrading *ColorGrading  `json:"colorGrading,omitempty"`
	Effects      *VisualEffects `json:"effects,omitempty"`
	Text         *TextBlock     `json:"text,omitempty"`
	Keyframes    []Keyframe     `json:"keyframes,omitempty"`
	Origin       *Origin        `json:"origin,omitempty"`
	Composition  *CompositionInfo `json:"composition,omitempty"`

	IsSourceClip        bool   `json:"isSourceClip,omitempty"`
	HiddenByComposition bool   `json:"hiddenByComposition,omitempty"`
	ParentCompositionID string `json:"parentCompositionId,omitempty"`
}

// End is the timeline time at which the asset stops.
func (a *Asset) End() float64 {
	return a.StartTime + a.Duration
}

// Visible reports whether the asset takes part in playback.
func (a *Asset) Visible() bool {
	return !a.HiddenByComposition
}

// Contains reports whether t falls inside [StartTime, End).
func (a *Asset) Contains(t float64) bool {
	return t >= a.StartTime && t < a.End()
}

// SameTrack reports whether two assets share track kind and index.
func (a *Asset) SameTrack(b *Asset) bool {
	return a.TrackKind == b.TrackKind && a.Track == b.Track
}

// Clone returns a deep copy of the asset.
func (a Asset) Clone() Asset {
	out := a
	if a.Transition != nil {
		tr := *a.Transition
		out.Transition = &tr
	}
	if a.ColorGrading != nil {
		cg := *a.ColorGrading
		out.ColorGrading = &cg
	}
	if a.Effects != nil {
		fx := *a.Effects
		out.Effects = &fx
	}
	if a.Text != nil {
		tb := *a.Text
		if a.Text.In != nil {
			in := *a.Text.In
			tb.In = &in
		}
		if a.Text.Out != nil {
			o := *a.Text.Out
			tb.Out = &o
		}
		out.Text = &tb
	}
	if a.Keyframes != nil {
		out.Keyframes = make([]Keyframe, len(a.Keyframes))
		for i, kf := range a.Keyframes {
			out.Keyframes[i] = kf.clone()
		}
	}
	if a.Origin != nil {
		o := *a.Origin
		out.Origin = &o
	}
	if a.Composition != nil {
		c := *a.Composition
		c.SourceClipIDs = append([]string(nil), a.Composition.SourceClipIDs...)
		out.Composition = &c
	}
	return out
}

func (k Keyframe) clone() Keyframe {
	out := k
	out.X = clonePtr(k.X)
	out.Y = clonePtr(k.Y)
	out.Scale = clonePtr(k.Scale)
	out.Rotation = clonePtr(k.Rotation)
	out.Opacity = clonePtr(k.Opacity)
	out.Blur = clonePtr(k.Blur)
	out.Volume = clonePtr(k.Volume)
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Clip is the legacy single-track-kind predecessor of Asset.
type Clip struct {
	ID           string    `json:"id"`
	Type         AssetType `json:"type"`
	Name         string    `json:"name,omitempty"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
	Track        int       `json:"track"`
	StartTime    float64   `json:"startTime"`
	Duration     float64   `json:"duration"`
	TrimStart    float64   `json:"trimStart"`
	TrimEnd      float64   `json:"trimEnd"`
	Volume       float64   `json:"volume"`
	Muted        bool      `json:"muted,omitempty"`
}

// ToAsset converts a legacy clip into an asset with default properties.
func (c Clip) ToAsset() Asset {
	return Asset{
		ID:           c.ID,
		Type:         c.Type,
		Name:         c.Name,
		URL:          c.URL,
		ThumbnailURL: c.ThumbnailURL,
		Track:        c.Track,
		TrackKind:    DefaultTrackKind(c.Type),
		StartTime:    c.StartTime,
		Duration:     c.Duration,
		TrimStart:    c.TrimStart,
		TrimEnd:      c.TrimEnd,
		Volume:       c.Volume,
		Muted:        c.Muted,
		Speed:        1,
	}
}
