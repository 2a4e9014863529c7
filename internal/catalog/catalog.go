// Package catalog exposes the fixed lookup tables of the engine: the
// transition library, color grading presets and upload size policy. The
// tables are decoded once from an embedded YAML document and never change
// afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Transition families. Every transition type belongs to exactly one.
const (
	FamilyFade     = "fade"
	FamilyWipe     = "wipe"
	FamilySlide    = "slide"
	FamilyZoom     = "zoom"
	FamilySqueeze  = "squeeze"
	FamilyPixelize = "pixelize"
)

type TransitionDef struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Family          string  `yaml:"family"`
	Direction       string  `yaml:"direction"`
	ViaColor        string  `yaml:"via_color"`
	DefaultDuration float64 `yaml:"default_duration"`
}

type GradingPreset struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Brightness  float64 `yaml:"brightness"`
	Contrast    float64 `yaml:"contrast"`
	Saturation  float64 `yaml:"saturation"`
	Temperature float64 `yaml:"temperature"`
	Tint        float64 `yaml:"tint"`
}

type UploadPolicy struct {
	MaxBytes            map[string]int64    `yaml:"max_bytes"`
	ProxyThresholdBytes int64               `yaml:"proxy_threshold_bytes"`
	ProxyFormats        []string            `yaml:"proxy_formats"`
	AcceptedFormats     map[string][]string `yaml:"accepted_formats"`
}

type document struct {
	Transitions    []TransitionDef `yaml:"transitions"`
	GradingPresets []GradingPreset `yaml:"grading_presets"`
	Upload         UploadPolicy    `yaml:"upload"`
}

type tables struct {
	transitions     map[string]TransitionDef
	transitionOrder []string
	presets         map[string]GradingPreset
	upload          UploadPolicy
	proxyFormats    map[string]bool
	accepted        map[string]map[string]bool
}

var (
	loadOnce sync.Once
	loaded   *tables
)

func get() *tables {
	loadOnce.Do(func() {
		t, err := parse(catalogYAML)
		if err != nil {
			panic("catalog: embedded catalog is invalid: " + err.Error())
		}
		loaded = t
	})
	return loaded
}

func parse(data []byte) (*tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	t := &tables{
		transitions:  make(map[string]TransitionDef, len(doc.Transitions)),
		presets:      make(map[string]GradingPreset, len(doc.GradingPresets)),
		upload:       doc.Upload,
		proxyFormats: make(map[string]bool, len(doc.Upload.ProxyFormats)),
		accepted:     make(map[string]map[string]bool, len(doc.Upload.AcceptedFormats)),
	}
	for _, def := range doc.Transitions {
		if _, dup := t.transitions[def.ID]; dup {
			return nil, fmt.Errorf("duplicate transition %q", def.ID)
		}
		switch def.Family {
		case FamilyFade, FamilyWipe, FamilySlide, FamilyZoom, FamilySqueeze, FamilyPixelize:
		default:
			return nil, fmt.Errorf("transition %q has unknown family %q", def.ID, def.Family)
		}
		t.transitions[def.ID] = def
		t.transitionOrder = append(t.transitionOrder, def.ID)
	}
	for _, p := range doc.GradingPresets {
		if _, dup := t.presets[p.ID]; dup {
			return nil, fmt.Errorf("duplicate grading preset %q", p.ID)
		}
		t.presets[p.ID] = p
	}
	for _, ext := range doc.Upload.ProxyFormats {
		t.proxyFormats[ext] = true
	}
	for kind, exts := range doc.Upload.AcceptedFormats {
		set := make(map[string]bool, len(exts))
		for _, ext := range exts {
			set[ext] = true
		}
		t.accepted[kind] = set
	}
	return t, nil
}

// Transition looks up a transition definition by id.
func Transition(id string) (TransitionDef, bool) {
	def, ok := get().transitions[id]
	return def, ok
}

// Transitions lists the transition library in catalog order.
func Transitions() []TransitionDef {
	t := get()
	out := make([]TransitionDef, 0, len(t.transitionOrder))
	for _, id := range t.transitionOrder {
		out = append(out, t.transitions[id])
	}
	return out
}

// Preset looks up a color grading preset by id.
func Preset(id string) (GradingPreset, bool) {
	p, ok := get().presets[id]
	return p, ok
}

// PresetIDs returns all preset ids sorted alphabetically.
func PresetIDs() []string {
	t := get()
	ids := make([]string, 0, len(t.presets))
	for id := range t.presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaxUploadBytes returns the byte ceiling for a media kind. ok is false for
// kinds that cannot be uploaded.
func MaxUploadBytes(kind string) (int64, bool) {
	n, ok := get().upload.MaxBytes[kind]
	return n, ok
}

// ProxyThresholdBytes is the size above which every upload needs a proxy.
func ProxyThresholdBytes() int64 {
	return get().upload.ProxyThresholdBytes
}

// IsProxyFormat reports whether ext (lowercase, with dot) is a professional
// format that always needs a proxy.
func IsProxyFormat(ext string) bool {
	return get().proxyFormats[ext]
}

// AcceptsFormat reports whether ext is accepted for the media kind.
func AcceptsFormat(kind, ext string) bool {
	return get().accepted[kind][ext]
}
