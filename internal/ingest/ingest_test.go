package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelworks/timeline/internal/timeline"
)

func TestFromUploadAccepted(t *testing.T) {
	a, d, err := FromUpload(Upload{
		Type:           timeline.AssetVideo,
		Filename:       "shots/A001_C002.r3d",
		SizeBytes:      200 << 20,
		URL:            "https://cdn.example/a001.r3d",
		SourceDuration: 12,
	})
	require.NoError(t, err)
	require.True(t, d.Accepted)
	require.True(t, d.NeedsProxy)

	require.Equal(t, timeline.AssetVideo, a.Type)
	require.Equal(t, timeline.TrackVideo, a.TrackKind)
	require.Equal(t, "A001_C002", a.Name)
	require.Equal(t, 12.0, a.SourceDuration)
	require.Equal(t, 1.0, a.Volume)

	up, ok := a.Origin.Provenance.(timeline.Uploaded)
	require.True(t, ok)
	require.True(t, up.NeedsProxy)
	require.Equal(t, int64(200<<20), up.SizeBytes)
}

func TestFromUploadRejected(t *testing.T) {
	_, d, err := FromUpload(Upload{
		Type:      timeline.AssetImage,
		Filename:  "poster.png",
		SizeBytes: 60 << 20,
		URL:       "https://cdn.example/poster.png",
	})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.False(t, d.Accepted)
	require.Equal(t, d.Reason, rejected.Reason)
}

func TestFromUploadWithoutURL(t *testing.T) {
	_, _, err := FromUpload(Upload{Type: timeline.AssetAudio, Filename: "a.wav", SizeBytes: 10})
	require.True(t, errors.Is(err, ErrNoURL))
}

func TestFromGeneration(t *testing.T) {
	tests := []struct {
		name string
		prov timeline.Provenance
		want timeline.AssetType
		kind timeline.TrackKind
	}{
		{"video", timeline.AIVideo{Model: "gen-3", Seconds: 8, Credits: 40}, timeline.AssetVideo, timeline.TrackVideo},
		{"image", timeline.AIImage{Model: "flux", Credits: 4}, timeline.AssetImage, timeline.TrackVideo},
		{"sfx", timeline.AIAudio{Category: timeline.AudioSFX, Credits: 2}, timeline.AssetAudio, timeline.TrackAudio},
		{"music", timeline.AIAudio{Category: timeline.AudioMusic, Credits: 6}, timeline.AssetMusic, timeline.TrackAudio},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := FromGeneration(Generation{URL: "https://cdn.example/x", Provenance: tc.prov})
			require.NoError(t, err)
			require.Equal(t, tc.want, a.Type)
			require.Equal(t, tc.kind, a.TrackKind)
			require.Equal(t, tc.prov.Cost(), a.Origin.Cost())
		})
	}
}

func TestFromGenerationUsesVideoSeconds(t *testing.T) {
	a, err := FromGeneration(Generation{URL: "u", Provenance: timeline.AIVideo{Seconds: 5}})
	require.NoError(t, err)
	require.Equal(t, 5.0, a.SourceDuration)
}

func TestFromGenerationRejectsUploads(t *testing.T) {
	_, err := FromGeneration(Generation{URL: "u", Provenance: timeline.Uploaded{}})
	require.Error(t, err)
}

func TestIngestedAssetIsPlaceable(t *testing.T) {
	a, _, err := FromUpload(Upload{Type: timeline.AssetAudio, Filename: "vo.wav", SizeBytes: 1 << 20, URL: "u", SourceDuration: 4})
	require.NoError(t, err)

	ed := timeline.NewEditor(timeline.NewProject("p", "P", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	a.StartTime = 2
	id := ed.Add(a)
	require.NotEmpty(t, id)

	got, ok := ed.Snapshot().Asset(id)
	require.True(t, ok)
	require.Equal(t, 4.0, got.Duration)
}
