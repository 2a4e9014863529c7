package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelworks/timeline/internal/clock"
	"github.com/reelworks/timeline/internal/cloud"
	"github.com/reelworks/timeline/internal/db"
	"github.com/reelworks/timeline/internal/export"
	"github.com/reelworks/timeline/internal/localstore"
	"github.com/reelworks/timeline/internal/netwatch"
	"github.com/reelworks/timeline/internal/persist"
	"github.com/reelworks/timeline/internal/timeline"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	clock  *clock.FakeClock
	local  *localstore.Store
	remote *cloud.StubClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "local.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return &fixture{
		clock:  clock.Fake(epoch),
		local:  localstore.New(database.Conn()),
		remote: cloud.NewStubClient(testLogger()),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Local:  localstore.Snapshots{Store: f.local},
		Remote: f.remote,
		Clock:  f.clock,
		Logger: testLogger(),
	}
}

func fastOptions() Options {
	return Options{
		Persist: persist.Options{
			AutosaveInterval: time.Second,
			RemoteEvery:      1,
			SweepInterval:    10 * time.Second,
		},
		Probe: netwatch.Options{Interval: time.Second, FailureThreshold: 1},
	}
}

func encode(t *testing.T, p *timeline.Project) []byte {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return data
}

func TestOpen_NewProject(t *testing.T) {
	f := newFixture(t)

	s, err := Open(context.Background(), "proj_new", f.deps(), Options{DefaultName: "Fresh"})
	require.NoError(t, err)
	defer s.Close(context.Background())

	require.Empty(t, s.LoadedFrom())
	p := s.Editor().Snapshot()
	require.Equal(t, "proj_new", p.ID)
	require.Equal(t, "Fresh", p.Name)
	require.Equal(t, persist.StatusSaved, s.Persistence().Status())
	require.False(t, s.Persistence().UnsavedChanges())
}

func TestOpen_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := Open(context.Background(), " ", f.deps(), Options{})
	require.Error(t, err)

	deps := f.deps()
	deps.Remote = nil
	_, err = Open(context.Background(), "p", deps, Options{})
	require.Error(t, err)
}

func TestOpen_PrefersNewerRemoteAndMigratesClips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := timeline.NewProject("proj_1", "Local draft", epoch)
	require.NoError(t, f.local.PutProject(ctx, "proj_1", encode(t, older), epoch))

	newer := timeline.NewProject("proj_1", "Remote cut", epoch)
	newer.UpdatedAt = epoch.Add(time.Hour)
	newer.Clips = []timeline.Clip{
		{ID: "clip_1", Type: timeline.AssetVideo, URL: "https://cdn.example/a.mp4", Duration: 4, Volume: 1},
		{ID: "clip_2", Type: timeline.AssetAudio, URL: "https://cdn.example/b.mp3", StartTime: 4, Duration: 3, Volume: 1},
	}
	require.NoError(t, f.remote.UpsertProject(ctx, "proj_1", encode(t, newer)))

	s, err := Open(ctx, "proj_1", f.deps(), Options{})
	require.NoError(t, err)
	defer s.Close(ctx)

	require.Equal(t, persist.FromRemote, s.LoadedFrom())
	p := s.Editor().Snapshot()
	require.Equal(t, "Remote cut", p.Name)
	require.Empty(t, p.Clips)
	require.Len(t, p.Assets, 2)
	require.Equal(t, persist.StatusPending, s.Persistence().Status(), "migration is an unsaved edit")
}

func TestSession_PlayheadDrivesSplit(t *testing.T) {
	f := newFixture(t)
	s, err := Open(context.Background(), "proj_1", f.deps(), Options{})
	require.NoError(t, err)
	defer s.Close(context.Background())

	id := s.Editor().Add(timeline.Asset{Type: timeline.AssetVideo, URL: "https://cdn.example/a.mp4", Duration: 4, Speed: 1})
	require.NotEmpty(t, id)

	s.Playback().Seek(1.5)
	_, ok := s.Editor().Split(id)
	require.True(t, ok)

	p := s.Editor().Snapshot()
	require.Len(t, p.Assets, 2)
	require.InDelta(t, 1.5, p.Assets[0].Duration, 1e-9)
}

func TestSession_AutosaveReachesRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := Open(ctx, "proj_1", f.deps(), fastOptions())
	require.NoError(t, err)
	s.Start(ctx)
	defer s.Close(ctx)

	s.Editor().Add(timeline.Asset{Type: timeline.AssetImage, URL: "https://cdn.example/p.png"})
	require.Equal(t, persist.StatusPending, s.Persistence().Status())

	f.clock.Advance(time.Second)

	require.Equal(t, persist.StatusSaved, s.Persistence().Status())
	data, err := f.remote.GetProject(ctx, "proj_1")
	require.NoError(t, err)
	var remote timeline.Project
	require.NoError(t, json.Unmarshal(data, &remote))
	require.Len(t, remote.Assets, 1)

	local, _, err := f.local.GetProject(ctx, "proj_1")
	require.NoError(t, err)
	require.NotNil(t, local)
}

func TestSession_OfflineThenRecover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var errs []error
	opts := fastOptions()
	opts.Persist.OnError = func(err error) { errs = append(errs, err) }

	s, err := Open(ctx, "proj_1", f.deps(), opts)
	require.NoError(t, err)
	s.Start(ctx)
	defer s.Close(ctx)

	f.remote.SetErr(errors.New("unreachable"))
	s.Editor().Add(timeline.Asset{Type: timeline.AssetVideo, URL: "https://cdn.example/a.mp4", Duration: 2})

	f.clock.Advance(time.Second)
	require.False(t, s.Connectivity().Online())
	require.False(t, s.Persistence().Online())
	require.Equal(t, persist.StatusOffline, s.Persistence().Status())
	require.Equal(t, 1, s.Persistence().Queue().Len())
	require.Len(t, errs, 1)

	s.Editor().Add(timeline.Asset{Type: timeline.AssetVideo, URL: "https://cdn.example/b.mp4", Duration: 2})
	f.remote.SetErr(nil)
	f.clock.Advance(time.Second)

	require.True(t, s.Persistence().Online())
	require.Zero(t, s.Persistence().Queue().Len())
	require.Equal(t, persist.StatusSaved, s.Persistence().Status())

	data, err := f.remote.GetProject(ctx, "proj_1")
	require.NoError(t, err)
	var remote timeline.Project
	require.NoError(t, json.Unmarshal(data, &remote))
	require.Len(t, remote.Assets, 2, "the coalesced queue carries the newest snapshot")
}

func TestSession_CloseReportsUnsaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := Open(ctx, "proj_1", f.deps(), fastOptions())
	require.NoError(t, err)
	s.Start(ctx)

	s.Editor().Add(timeline.Asset{Type: timeline.AssetText, Text: &timeline.TextBlock{Content: "Title"}})
	require.True(t, s.Close(ctx))
	require.True(t, s.Close(ctx), "second close repeats the answer")
	require.Zero(t, f.clock.PendingCount())

	data, _, err := f.local.GetProject(ctx, "proj_1")
	require.NoError(t, err)
	require.NotNil(t, data, "teardown writes a final local snapshot")
}

func TestSession_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := Open(ctx, "proj_1", f.deps(), Options{DefaultName: "Spring Promo"})
	require.NoError(t, err)
	defer s.Close(ctx)

	dir := t.TempDir()
	name, err := s.Export(ctx, export.NewDirTarget(dir, testLogger()))
	require.NoError(t, err)
	require.Equal(t, "Spring-Promo-proj_1.timeline.json", name)
	require.FileExists(t, filepath.Join(dir, name))
}
