package timeline

import (
	"encoding/json"
	"fmt"
)

type OriginKind string

const (
	OriginAIVideo  OriginKind = "ai-video"
	OriginAIImage  OriginKind = "ai-image"
	OriginAIAudio  OriginKind = "ai-audio"
	OriginUploaded OriginKind = "uploaded"
	OriginSubtitle OriginKind = "subtitle"
)

// OriginKinds lists every provenance kind in report order.
var OriginKinds = []OriginKind{OriginAIVideo, OriginAIImage, OriginAIAudio, OriginUploaded, OriginSubtitle}

// Provenance is implemented by exactly the variant types in this file.
type Provenance interface {
	Kind() OriginKind
	Cost() float64
	sealed()
}

type AIVideo struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt,omitempty"`
	Resolution  string  `json:"resolution,omitempty"`
	Seconds     float64 `json:"seconds,omitempty"`
	SourceImage string  `json:"sourceImage,omitempty"`
	Credits     float64 `json:"cost"`
}

type AIImage struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt,omitempty"`
	AspectRatio string  `json:"aspectRatio,omitempty"`
	Credits     float64 `json:"cost"`
}

type AudioCategory string

const (
	AudioSFX   AudioCategory = "audio"
	AudioMusic AudioCategory = "music"
	AudioVoice AudioCategory = "voice"
)

type AIAudio struct {
	Category AudioCategory `json:"category"`
	Model    string        `json:"model"`
	Prompt   string        `json:"prompt,omitempty"`
	Voice    string        `json:"voice,omitempty"`
	Credits  float64       `json:"cost"`
}

type Uploaded struct {
	Filename   string  `json:"filename"`
	SizeBytes  int64   `json:"sizeBytes"`
	MimeType   string  `json:"mimeType,omitempty"`
	NeedsProxy bool    `json:"needsProxy,omitempty"`
	Credits    float64 `json:"cost"`
}

type Subtitle struct {
	Language string  `json:"language"`
	Source   string  `json:"source,omitempty"`
	Credits  float64 `json:"cost"`
}

func (AIVideo) Kind() OriginKind  { return OriginAIVideo }
func (AIImage) Kind() OriginKind  { return OriginAIImage }
func (AIAudio) Kind() OriginKind  { return OriginAIAudio }
func (Uploaded) Kind() OriginKind { return OriginUploaded }
func (Subtitle) Kind() OriginKind { return OriginSubtitle }

func (o AIVideo) Cost() float64  { return o.Credits }
func (o AIImage) Cost() float64  { return o.Credits }
func (o AIAudio) Cost() float64  { return o.Credits }
func (o Uploaded) Cost() float64 { return o.Credits }
func (o Subtitle) Cost() float64 { return o.Credits }

func (AIVideo) sealed()  {}
func (AIImage) sealed()  {}
func (AIAudio) sealed()  {}
func (Uploaded) sealed() {}
func (Subtitle) sealed() {}

// Origin carries one provenance variant. On the wire it is encoded as
// {"kind": ..., "data": {...}}.
type Origin struct {
	Provenance
}

// NewOrigin wraps a provenance variant.
func NewOrigin(p Provenance) *Origin {
	if p == nil {
		return nil
	}
	return &Origin{Provenance: p}
}

type originEnvelope struct {
	Kind OriginKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (o Origin) MarshalJSON() ([]byte, error) {
	if o.Provenance == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(o.Provenance)
	if err != nil {
		return nil, err
	}
	return json.Marshal(originEnvelope{Kind: o.Kind(), Data: data})
}

func (o *Origin) UnmarshalJSON(b []byte) error {
	var env originEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	var (
		p   Provenance
		err error
	)
	switch env.Kind {
	case OriginAIVideo:
		var v AIVideo
		err = json.Unmarshal(env.Data, &v)
		p = v
	case OriginAIImage:
		var v AIImage
		err = json.Unmarshal(env.Data, &v)
		p = v
	case OriginAIAudio:
		var v AIAudio
		err = json.Unmarshal(env.Data, &v)
		p = v
	case OriginUploaded:
		var v Uploaded
		err = json.Unmarshal(env.Data, &v)
		p = v
	case OriginSubtitle:
		var v Subtitle
		err = json.Unmarshal(env.Data, &v)
		p = v
	default:
		return fmt.Errorf("unknown origin kind %q", env.Kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s origin: %w", env.Kind, err)
	}
	o.Provenance = p
	return nil
}
