package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitions_EveryFamilyPresent(t *testing.T) {
	families := map[string]bool{}
	for _, def := range Transitions() {
		families[def.Family] = true
		require.Positive(t, def.DefaultDuration, "transition %s", def.ID)
	}
	for _, f := range []string{FamilyFade, FamilyWipe, FamilySlide, FamilyZoom, FamilySqueeze, FamilyPixelize} {
		require.True(t, families[f], "family %s missing", f)
	}
}

func TestTransition_Lookup(t *testing.T) {
	def, ok := Transition("wipe-left")
	require.True(t, ok)
	require.Equal(t, FamilyWipe, def.Family)
	require.Equal(t, "left", def.Direction)

	_, ok = Transition("does-not-exist")
	require.False(t, ok)
}

func TestPreset_Lookup(t *testing.T) {
	p, ok := Preset("noir")
	require.True(t, ok)
	require.Equal(t, -100.0, p.Saturation)
	require.Contains(t, PresetIDs(), "cinematic")
}

func TestUploadPolicyTables(t *testing.T) {
	n, ok := MaxUploadBytes("image")
	require.True(t, ok)
	require.Equal(t, int64(50*1024*1024), n)

	_, ok = MaxUploadBytes("text")
	require.False(t, ok)

	require.True(t, IsProxyFormat(".r3d"))
	require.False(t, IsProxyFormat(".mp4"))
	require.True(t, AcceptsFormat("video", ".mp4"))
	require.False(t, AcceptsFormat("image", ".mp4"))
	require.Equal(t, int64(1<<30), ProxyThresholdBytes())
}

func TestParse_RejectsUnknownFamily(t *testing.T) {
	_, err := parse([]byte("transitions:\n  - {id: spin, family: spin}\n"))
	require.Error(t, err)
}

func TestParse_RejectsDuplicatePreset(t *testing.T) {
	_, err := parse([]byte("grading_presets:\n  - {id: a}\n  - {id: a}\n"))
	require.Error(t, err)
}
