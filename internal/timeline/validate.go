package timeline

import (
	"errors"
	"fmt"
)

// Validate reports every broken invariant of the project. A nil result
// means the project is consistent.
func (p *Project) Validate() error {
	var errs []error
	if p.Duration < 0 {
		errs = append(errs, fmt.Errorf("project duration %v is negative", p.Duration))
	}
	compositions := make(map[string]bool)
	for i := range p.Assets {
		if c := p.Assets[i].Composition; c != nil {
			compositions[c.ID] = true
		}
	}
	seen := make(map[string]bool, len(p.Assets))
	for i := range p.Assets {
		a := &p.Assets[i]
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("asset %s: duplicate id", a.ID))
		}
		seen[a.ID] = true
		if err := a.validate(p, compositions); err != nil {
			errs = append(errs, fmt.Errorf("asset %s: %w", a.ID, err))
		}
	}
	for _, c := range p.Clips {
		if c.StartTime < 0 || c.Duration < 0 {
			errs = append(errs, fmt.Errorf("clip %s: negative time", c.ID))
		}
	}
	return errors.Join(errs...)
}

func (a *Asset) validate(p *Project, compositions map[string]bool) error {
	var errs []error
	if a.StartTime < 0 || a.Duration < 0 || a.TrimStart < 0 || a.TrimEnd < 0 || a.FadeIn < 0 || a.FadeOut < 0 {
		errs = append(errs, errors.New("negative time value"))
	}
	if a.SourceDuration > 0 && a.TrimStart+a.TrimEnd > a.SourceDuration {
		errs = append(errs, fmt.Errorf("trims %v+%v exceed source %v", a.TrimStart, a.TrimEnd, a.SourceDuration))
	}
	if ceiling := p.Tracks.Ceiling(a.TrackKind); a.Track < 0 || a.Track >= ceiling {
		errs = append(errs, fmt.Errorf("track %d outside %s ceiling %d", a.Track, a.TrackKind, ceiling))
	}
	for i := 1; i < len(a.Keyframes); i++ {
		if a.Keyframes[i].Time < a.Keyframes[i-1].Time {
			errs = append(errs, errors.New("keyframes out of order"))
			break
		}
	}
	if a.HiddenByComposition && !compositions[a.ParentCompositionID] {
		errs = append(errs, fmt.Errorf("hidden by missing composition %q", a.ParentCompositionID))
	}
	return errors.Join(errs...)
}
