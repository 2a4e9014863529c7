package timeline

// CostReport summarizes generation and upload costs. It enforces nothing.
type CostReport struct {
	Total         float64                   `json:"total"`
	ByOrigin      map[OriginKind]float64    `json:"byOrigin"`
	CountByOrigin map[OriginKind]int        `json:"countByOrigin"`
	AudioByKind   map[AudioCategory]float64 `json:"audioByCategory"`
	ByComposition map[string]float64        `json:"byComposition"`
	CountByType   map[AssetType]int         `json:"countByType"`
	Untracked     int                       `json:"untracked"`
}

// BuildCostReport folds the assets into per-origin and per-composition
// totals. Sources hidden by a composition are still counted.
func BuildCostReport(assets []Asset) CostReport {
	r := CostReport{
		ByOrigin:      make(map[OriginKind]float64),
		CountByOrigin: make(map[OriginKind]int),
		AudioByKind:   make(map[AudioCategory]float64),
		ByComposition: make(map[string]float64),
		CountByType:   make(map[AssetType]int),
	}
	for i := range assets {
		a := &assets[i]
		r.CountByType[a.Type]++
		if c := a.Composition; c != nil {
			r.ByComposition[c.ID] += c.Cost
			r.Total += c.Cost
		}
		if a.Origin == nil || a.Origin.Provenance == nil {
			if a.Composition == nil {
				r.Untracked++
			}
			continue
		}
		cost := a.Origin.Cost()
		if audio, ok := a.Origin.Provenance.(AIAudio); ok {
			r.AudioByKind[audio.Category] += cost
		}
		kind := a.Origin.Kind()
		r.ByOrigin[kind] += cost
		r.CountByOrigin[kind]++
		r.Total += cost
	}
	return r
}

// CostReport summarizes the current project.
func (e *Editor) CostReport() CostReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return BuildCostReport(e.project.Assets)
}
