package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reelworks/timeline/internal/export"
	"github.com/reelworks/timeline/internal/timeline"
)

// Origin of a loaded project.
const (
	FromLocal  = "local"
	FromRemote = "remote"
)

// Load reads the local and remote copies of a project and returns the one
// with the later updatedAt. Remote is skipped while offline; a remote
// failure falls back to the local copy.
func (m *Manager) Load(ctx context.Context, projectID string) (*timeline.Project, string, error) {
	var local, remote *timeline.Project

	if m.local != nil {
		data, _, err := m.local.Get(ctx, projectID)
		switch {
		case err != nil:
			lerr := &LocalStoreError{Op: "read", ProjectID: projectID, Err: err}
			m.logger.Error("local read failed", "project_id", projectID, "error", err)
			if m.opts.OnLocalError != nil {
				m.opts.OnLocalError(lerr)
			}
		case data != nil:
			local, err = decode(data)
			if err != nil {
				m.logger.Warn("discarding unreadable local snapshot", "project_id", projectID, "error", err)
				local = nil
			}
		}
	}

	if m.Online() {
		rctx, cancel := context.WithTimeout(ctx, m.opts.RemoteTimeout)
		data, err := m.remote.GetProject(rctx, projectID)
		cancel()
		switch {
		case err != nil:
			m.logger.Warn("remote read failed, using local copy", "project_id", projectID, "error", err)
			if local == nil {
				return nil, "", &NetworkError{ProjectID: projectID, Err: err}
			}
		case data != nil:
			remote, err = decode(data)
			if err != nil {
				return nil, "", fmt.Errorf("decode remote project %s: %w", projectID, err)
			}
		}
	}

	switch {
	case local == nil && remote == nil:
		return nil, "", ErrNotFound
	case remote == nil:
		return local, FromLocal, nil
	case local == nil:
		return remote, FromRemote, nil
	case local.UpdatedAt.After(remote.UpdatedAt):
		m.logger.Info("local copy is newer than remote", "project_id", projectID,
			"local_updated_at", local.UpdatedAt, "remote_updated_at", remote.UpdatedAt)
		return local, FromLocal, nil
	default:
		return remote, FromRemote, nil
	}
}

func decode(data []byte) (*timeline.Project, error) {
	var p timeline.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ExportManual writes a stripped copy of the project to a user-owned
// target. Failures are returned and reported but never queued.
func (m *Manager) ExportManual(ctx context.Context, target export.Target, path, message string) error {
	p, _ := m.src.Checkpoint()
	content, err := export.Marshal(p)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := target.Commit(ctx, path, content, message); err != nil {
		eerr := &ExportError{Path: path, Err: err}
		m.logger.Error("manual export failed", "project_id", p.ID, "path", path, "error", err)
		m.reportError(eerr)
		return eerr
	}
	m.logger.Info("project exported", "project_id", p.ID, "path", path, "bytes", len(content))
	return nil
}
