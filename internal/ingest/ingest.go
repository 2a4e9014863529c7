// Package ingest converts finished uploads and generations from upstream
// collaborators into timeline assets.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reelworks/timeline/internal/media"
	"github.com/reelworks/timeline/internal/timeline"
)

// ErrNoURL is returned when a result carries no media location.
var ErrNoURL = errors.New("media result has no url")

// RejectedError reports an upload refused by the acceptance policy.
type RejectedError struct {
	Filename string
	Reason   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upload %s rejected: %s", e.Filename, e.Reason)
}

// Upload is a file the upload service has finished storing.
type Upload struct {
	Type           timeline.AssetType
	Filename       string
	SizeBytes      int64
	MimeType       string
	URL            string
	ThumbnailURL   string
	SourceDuration float64
}

// FromUpload applies the upload policy and returns an asset carrying
// uploaded provenance. The asset is not placed on a track; callers set
// Track and StartTime before adding it.
func FromUpload(u Upload) (timeline.Asset, media.Decision, error) {
	if u.URL == "" {
		return timeline.Asset{}, media.Decision{}, ErrNoURL
	}
	d := media.CheckUpload(string(u.Type), u.Filename, u.SizeBytes)
	if !d.Accepted {
		return timeline.Asset{}, d, &RejectedError{Filename: u.Filename, Reason: d.Reason}
	}

	a := newAsset(u.Type, u.URL, displayName(u.Filename), u.SourceDuration)
	a.ThumbnailURL = u.ThumbnailURL
	a.Origin = timeline.NewOrigin(timeline.Uploaded{
		Filename:   u.Filename,
		SizeBytes:  u.SizeBytes,
		MimeType:   u.MimeType,
		NeedsProxy: d.NeedsProxy,
	})
	return a, d, nil
}

// Generation is a finished AI generation.
type Generation struct {
	URL            string
	ThumbnailURL   string
	Name           string
	SourceDuration float64
	Provenance     timeline.Provenance
}

// FromGeneration returns an asset whose type follows the provenance kind.
// Audio generations land on the music type when their category is music.
func FromGeneration(g Generation) (timeline.Asset, error) {
	if g.URL == "" {
		return timeline.Asset{}, ErrNoURL
	}
	var typ timeline.AssetType
	switch p := g.Provenance.(type) {
	case timeline.AIVideo:
		typ = timeline.AssetVideo
		if g.SourceDuration == 0 {
			g.SourceDuration = p.Seconds
		}
	case timeline.AIImage:
		typ = timeline.AssetImage
	case timeline.AIAudio:
		typ = timeline.AssetAudio
		if p.Category == timeline.AudioMusic {
			typ = timeline.AssetMusic
		}
	default:
		return timeline.Asset{}, fmt.Errorf("provenance %T is not a generation", g.Provenance)
	}

	a := newAsset(typ, g.URL, g.Name, g.SourceDuration)
	a.ThumbnailURL = g.ThumbnailURL
	a.Origin = timeline.NewOrigin(g.Provenance)
	return a, nil
}

func newAsset(typ timeline.AssetType, url, name string, sourceDuration float64) timeline.Asset {
	return timeline.Asset{
		Type:           typ,
		Name:           name,
		URL:            url,
		TrackKind:      timeline.DefaultTrackKind(typ),
		SourceDuration: sourceDuration,
		Volume:         1,
		Speed:          1,
	}
}

func displayName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
