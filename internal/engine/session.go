// Package engine wires one editing session: the editor, playback,
// persistence and connectivity monitoring for a single project.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/reelworks/timeline/internal/clock"
	"github.com/reelworks/timeline/internal/cloud"
	"github.com/reelworks/timeline/internal/export"
	"github.com/reelworks/timeline/internal/logging"
	"github.com/reelworks/timeline/internal/netwatch"
	"github.com/reelworks/timeline/internal/persist"
	"github.com/reelworks/timeline/internal/playback"
	"github.com/reelworks/timeline/internal/timeline"
)

// Deps are the collaborators a session talks to.
type Deps struct {
	Local  persist.LocalStore
	Remote cloud.Client
	Clock  clock.Clock
	Logger *slog.Logger
}

type Options struct {
	Persist persist.Options
	Probe   netwatch.Options
	// DefaultName names a project that exists in neither store.
	DefaultName string
}

// Session owns every long-lived component for one open project.
type Session struct {
	editor  *timeline.Editor
	player  *playback.Controller
	saves   *persist.Manager
	monitor *netwatch.Monitor
	logger  *slog.Logger
	source  string

	mu          sync.Mutex
	started     bool
	closed      bool
	unsubscribe func()
	cancel      context.CancelFunc
}

// Open loads projectID from the local and remote stores (newest copy
// wins) or starts a fresh project when neither has it.
func Open(ctx context.Context, projectID string, deps Deps, opts Options) (*Session, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("project id is required")
	}
	if deps.Remote == nil {
		return nil, errors.New("remote client is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.DefaultName == "" {
		opts.DefaultName = "Untitled project"
	}
	logger := logging.WithProjectID(deps.Logger, projectID)

	editor := timeline.NewEditor(
		timeline.NewProject(projectID, opts.DefaultName, deps.Clock.Now()),
		timeline.WithClock(deps.Clock),
		timeline.WithLogger(logging.WithComponent(logger, "editor")),
	)
	saves := persist.NewManager(editor, deps.Local, deps.Remote, deps.Clock,
		logging.WithComponent(logger, "persist"), opts.Persist)

	s := &Session{
		editor: editor,
		saves:  saves,
		logger: logger,
	}

	p, from, err := saves.Load(ctx, projectID)
	switch {
	case errors.Is(err, persist.ErrNotFound):
		logger.Info("starting new project")
	case err != nil:
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	default:
		if verr := p.Validate(); verr != nil {
			logger.Warn("loaded project has invariant violations", "source", from, "error", verr)
		}
		editor.Replace(p)
		s.source = from
		logger.Info("project loaded", "source", from, "assets", len(p.Assets), "clips", len(p.Clips))
	}
	saves.Rebase()

	s.player = playback.New(editor, deps.Clock, logging.WithComponent(logger, "playback"))
	editor.SetPlayhead(s.player.Position)

	s.monitor = netwatch.New(deps.Remote.Ping, deps.Clock, logging.WithComponent(logger, "netwatch"), opts.Probe)

	s.unsubscribe = editor.Subscribe(saves.MarkDirty)
	if n := editor.MigrateClips(); n > 0 {
		logger.Info("migrated legacy clips", "count", n)
	}
	return s, nil
}

// Start arms autosave, the retry sweep and connectivity probing.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.monitor.OnChange(func(e netwatch.EventType) {
		s.saves.SetOnline(ctx, e == netwatch.EventOnline)
	})
	s.saves.Start(ctx)
	s.monitor.Watch(ctx)
}

// Close stops every timer, writes a final local snapshot and reports
// whether unsaved changes remain.
func (s *Session) Close(ctx context.Context) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.saves.UnsavedChanges()
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	s.player.Stop()
	s.monitor.Stop()
	s.unsubscribe()
	unsaved := s.saves.Teardown(ctx)
	if cancel != nil {
		cancel()
	}
	return unsaved
}

func (s *Session) Editor() *timeline.Editor { return s.editor }

func (s *Session) Playback() *playback.Controller { return s.player }

func (s *Session) Persistence() *persist.Manager { return s.saves }

func (s *Session) Connectivity() *netwatch.Monitor { return s.monitor }

// LoadedFrom reports which store supplied the project: persist.FromLocal,
// persist.FromRemote, or empty for a new project.
func (s *Session) LoadedFrom() string { return s.source }

// Export commits a stripped copy of the project to target under its
// default file name and returns that name.
func (s *Session) Export(ctx context.Context, target export.Target) (string, error) {
	p := s.editor.Snapshot()
	name := export.FileName(p.Name, p.ID)
	msg := fmt.Sprintf("Export %s", p.Name)
	if err := s.saves.ExportManual(ctx, target, name, msg); err != nil {
		return "", err
	}
	return name, nil
}
