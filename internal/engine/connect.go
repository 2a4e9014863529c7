package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelworks/timeline/internal/cloud"
	"github.com/reelworks/timeline/internal/config"
	"github.com/reelworks/timeline/internal/db"
	"github.com/reelworks/timeline/internal/export"
	"github.com/reelworks/timeline/internal/localstore"
	"github.com/reelworks/timeline/internal/logging"
	"github.com/reelworks/timeline/internal/netwatch"
	"github.com/reelworks/timeline/internal/persist"
)

// Connect opens the local snapshot database and builds the remote client
// described by cfg. The returned close function releases the database.
func Connect(cfg config.Config, logger *slog.Logger) (Deps, func() error, error) {
	if cfg.RemoteURL() == "" {
		return Deps{}, nil, fmt.Errorf("no remote url configured (set %s)", config.EnvRemoteURL)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LocalDBPath()), 0o755); err != nil {
		return Deps{}, nil, fmt.Errorf("create data directory: %w", err)
	}

	database, err := db.New(cfg.LocalDBPath(), logging.WithComponent(logger, "localdb"))
	if err != nil {
		return Deps{}, nil, fmt.Errorf("open local store: %w", err)
	}

	deps := Deps{
		Local:  localstore.Snapshots{Store: localstore.New(database.Conn())},
		Remote: cloud.NewHTTPClient(cfg.RemoteURL(), cloud.StaticToken(cfg.RemoteToken()), logging.WithComponent(logger, "cloud")),
		Logger: logger,
	}
	return deps, database.Close, nil
}

// OptionsFrom maps configured cadences onto session options.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Persist: persist.Options{
			AutosaveInterval: cfg.AutosaveInterval(),
			RemoteEvery:      cfg.RemoteEvery(),
			SweepInterval:    cfg.SweepInterval(),
			Backoff:          persist.Backoff{Base: cfg.BackoffBase(), Max: cfg.BackoffMax()},
			MaxAttempts:      cfg.MaxAttempts(),
			RemoteTimeout:    cfg.RemoteTimeout(),
		},
		Probe: netwatch.Options{
			Interval: cfg.ProbeInterval(),
			Timeout:  minDuration(cfg.RemoteTimeout(), 5*time.Second),
		},
	}
}

// ExportTarget returns the configured manual export target: the GitHub
// repository when one is configured, else the local export directory.
func ExportTarget(cfg config.Config, logger *slog.Logger) (export.Target, error) {
	if gh := cfg.GitHub(); gh.Enabled() {
		owner, repo, ok := strings.Cut(gh.Repo, "/")
		if !ok {
			return nil, fmt.Errorf("github repo %q must be owner/name", gh.Repo)
		}
		target, err := export.NewGitHubTarget(export.GitHubConfig{
			Owner:  owner,
			Repo:   repo,
			Branch: gh.Branch,
			Token:  gh.Token,
			Logger: logging.WithComponent(logger, "export"),
		})
		if err != nil {
			return nil, err
		}
		return target, nil
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return export.NewDirTarget(cfg.ExportDir(), logging.WithComponent(logger, "export")), nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
