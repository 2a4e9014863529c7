package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelworks/timeline/internal/config"
	"github.com/reelworks/timeline/internal/export"
)

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	for _, name := range []string{
		config.EnvConfigFile, config.EnvDataDir, config.EnvRemoteURL, config.EnvRemoteToken,
		config.EnvAutosaveInterval, config.EnvRemoteEvery, config.EnvSweepInterval,
		config.EnvMaxAttempts, config.EnvRemoteTimeout, config.EnvProbeInterval,
		config.EnvExportDir, config.EnvGitHubRepo, config.EnvGitHubBranch, config.EnvGitHubToken,
	} {
		t.Setenv(name, env[name])
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestOptionsFrom(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		config.EnvAutosaveInterval: "2s",
		config.EnvRemoteEvery:      "3",
		config.EnvRemoteTimeout:    "3s",
		config.EnvProbeInterval:    "20s",
	})

	opts := OptionsFrom(cfg)
	require.Equal(t, 2*time.Second, opts.Persist.AutosaveInterval)
	require.Equal(t, 3, opts.Persist.RemoteEvery)
	require.Equal(t, config.DefaultBackoffBase, opts.Persist.Backoff.Base)
	require.Equal(t, config.DefaultMaxAttempts, opts.Persist.MaxAttempts)
	require.Equal(t, 20*time.Second, opts.Probe.Interval)
	require.Equal(t, 3*time.Second, opts.Probe.Timeout)

	cfg = loadConfig(t, nil)
	require.Equal(t, 5*time.Second, OptionsFrom(cfg).Probe.Timeout)
}

func TestExportTarget_DirByDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	cfg := loadConfig(t, map[string]string{config.EnvExportDir: dir})

	target, err := ExportTarget(cfg, testLogger())
	require.NoError(t, err)
	require.IsType(t, &export.DirTarget{}, target)
	require.DirExists(t, dir)
}

func TestExportTarget_GitHub(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		config.EnvGitHubRepo:  "reelworks/cuts",
		config.EnvGitHubToken: "ghp_test",
	})
	target, err := ExportTarget(cfg, testLogger())
	require.NoError(t, err)
	require.IsType(t, &export.GitHubTarget{}, target)

	cfg = loadConfig(t, map[string]string{
		config.EnvGitHubRepo:  "cuts",
		config.EnvGitHubToken: "ghp_test",
	})
	_, err = ExportTarget(cfg, testLogger())
	require.Error(t, err)
}

func TestConnect_RequiresRemoteURL(t *testing.T) {
	cfg := loadConfig(t, map[string]string{config.EnvDataDir: t.TempDir()})
	_, _, err := Connect(cfg, testLogger())
	require.Error(t, err)
}

func TestConnect_OpensLocalStore(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := loadConfig(t, map[string]string{
		config.EnvDataDir:     dataDir,
		config.EnvRemoteURL:   "http://127.0.0.1:1",
		config.EnvRemoteToken: "secret",
	})

	deps, closeFn, err := Connect(cfg, testLogger())
	require.NoError(t, err)
	defer closeFn()
	require.NotNil(t, deps.Local)
	require.NotNil(t, deps.Remote)
	require.FileExists(t, cfg.LocalDBPath())
}
