package timeline

import (
	"math"
)

// ComposeRequest describes a derived asset built from existing sources. The
// rendered media itself comes from an external collaborator.
type ComposeRequest struct {
	SourceIDs []string
	Kind      string
	Type      AssetType
	URL       string
	Name      string
	Cost      float64
}

// Compose adds a composition spanning its sources and hides the sources
// without deleting them. The composition lands on the first source's track.
func (e *Editor) Compose(req ComposeRequest) (string, bool) {
	var id string
	ok := e.mutate("compose", func(p *Project) bool {
		if len(req.SourceIDs) == 0 {
			return false
		}
		var sources []*Asset
		seen := make(map[string]bool)
		for _, sid := range req.SourceIDs {
			a, found := p.Asset(sid)
			if !found || seen[sid] || a.HiddenByComposition {
				return false
			}
			seen[sid] = true
			sources = append(sources, a)
		}
		start, end := math.Inf(1), 0.0
		for _, a := range sources {
			start = math.Min(start, a.StartTime)
			end = math.Max(end, a.End())
		}
		typ := req.Type
		if typ == "" {
			typ = sources[0].Type
		}
		id = e.newID(string(typ), e.clock.Now())
		comp := Asset{
			ID:        id,
			Type:      typ,
			Name:      req.Name,
			URL:       req.URL,
			Track:     sources[0].Track,
			TrackKind: sources[0].TrackKind,
			StartTime: start,
			Duration:  end - start,
			Volume:    1,
			Speed:     1,
			Composition: &CompositionInfo{
				ID:            id,
				SourceClipIDs: append([]string(nil), req.SourceIDs...),
				Kind:          req.Kind,
				Cost:          req.Cost,
				CanRecompose:  true,
				Version:       1,
			},
		}
		for _, a := range sources {
			a.IsSourceClip = true
			a.HiddenByComposition = true
			a.ParentCompositionID = id
		}
		p.Assets = append(p.Assets, comp)
		return true
	})
	return id, ok
}

// Decompose removes a composition and restores its sources.
func (e *Editor) Decompose(id string) bool {
	return e.mutate("decompose", func(p *Project) bool {
		i := p.indexOf(id)
		if i < 0 || p.Assets[i].Composition == nil {
			return false
		}
		compID := p.Assets[i].Composition.ID
		p.Assets = append(p.Assets[:i], p.Assets[i+1:]...)
		unhideSources(p, compID)
		e.removeFromSelection(id)
		return true
	})
}

func (p *Project) hasComposition(id string) bool {
	if id == "" {
		return false
	}
	for i := range p.Assets {
		if c := p.Assets[i].Composition; c != nil && c.ID == id {
			return true
		}
	}
	return false
}

func unhideSources(p *Project, compositionID string) {
	for i := range p.Assets {
		if p.Assets[i].ParentCompositionID == compositionID {
			clearHidden(&p.Assets[i])
		}
	}
}

// MigrateClips converts legacy clips into assets and empties the clip list.
// Clips whose id already exists as an asset are dropped. Running it twice is
// a no-op.
func (e *Editor) MigrateClips() int {
	var n int
	e.mutate("migrate_clips", func(p *Project) bool {
		var changed bool
		n, changed = migrateClips(p)
		return changed
	})
	return n
}

func migrateClips(p *Project) (int, bool) {
	if len(p.Clips) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range p.Clips {
		if p.indexOf(c.ID) >= 0 {
			continue
		}
		a := c.ToAsset()
		a.Track = clampTrack(a.Track, p.Tracks.Ceiling(a.TrackKind))
		p.Assets = append(p.Assets, a)
		n++
	}
	p.Clips = []Clip{}
	return n, true
}
