// Package config provides configuration for the timeline engine and the
// sync daemon. Values come from defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8787
	DefaultBindAddr = "127.0.0.1"
	DefaultLogLevel = "info"
	DefaultDataDir  = ".timeline"

	DefaultAutosaveInterval = 5 * time.Second
	DefaultRemoteEvery      = 6
	DefaultSweepInterval    = 10 * time.Second
	DefaultBackoffBase      = 2 * time.Second
	DefaultBackoffMax       = time.Minute
	DefaultMaxAttempts      = 5
	DefaultRemoteTimeout    = 15 * time.Second
	DefaultProbeInterval    = 15 * time.Second

	// Environment variable names
	EnvConfigFile       = "TIMELINE_CONFIG"
	EnvPort             = "TIMELINE_PORT"
	EnvBindAddr         = "TIMELINE_BIND"
	EnvLogLevel         = "TIMELINE_LOG_LEVEL"
	EnvDataDir          = "TIMELINE_DATA_DIR"
	EnvRemoteURL        = "TIMELINE_REMOTE_URL"
	EnvRemoteToken      = "TIMELINE_REMOTE_TOKEN"
	EnvAutosaveInterval = "TIMELINE_AUTOSAVE_INTERVAL"
	EnvRemoteEvery      = "TIMELINE_REMOTE_EVERY"
	EnvSweepInterval    = "TIMELINE_SWEEP_INTERVAL"
	EnvMaxAttempts      = "TIMELINE_MAX_ATTEMPTS"
	EnvRemoteTimeout    = "TIMELINE_REMOTE_TIMEOUT"
	EnvProbeInterval    = "TIMELINE_PROBE_INTERVAL"
	EnvAllowedOrigins   = "TIMELINE_ALLOWED_ORIGINS"
	EnvExportDir        = "TIMELINE_EXPORT_DIR"
	EnvGitHubRepo       = "TIMELINE_GITHUB_REPO"
	EnvGitHubBranch     = "TIMELINE_GITHUB_BRANCH"
	EnvGitHubToken      = "TIMELINE_GITHUB_TOKEN"

	// Database filenames
	ServerDBFilename = "timelined.db"
	LocalDBFilename  = "local.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	Addr() string
	LogLevel() string
	DataDir() string
	ServerDBPath() string
	LocalDBPath() string
	RemoteURL() string
	RemoteToken() string
	AutosaveInterval() time.Duration
	RemoteEvery() int
	SweepInterval() time.Duration
	BackoffBase() time.Duration
	BackoffMax() time.Duration
	MaxAttempts() int
	RemoteTimeout() time.Duration
	ProbeInterval() time.Duration
	AllowedOrigins() []string
	ExportDir() string
	GitHub() GitHubExport
}

// GitHubExport configures manual exports to a repository the user owns.
type GitHubExport struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Token  string `yaml:"token"`
}

// Enabled reports whether a repository and token are configured.
func (g GitHubExport) Enabled() bool {
	return g.Repo != "" && g.Token != ""
}

// fileConfig mirrors the YAML document. Zero values keep the default.
type fileConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`

	Remote struct {
		URL     string        `yaml:"url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"remote"`

	Autosave struct {
		Interval    time.Duration `yaml:"interval"`
		RemoteEvery int           `yaml:"remote_every"`
	} `yaml:"autosave"`

	Retry struct {
		SweepInterval time.Duration `yaml:"sweep_interval"`
		BackoffBase   time.Duration `yaml:"backoff_base"`
		BackoffMax    time.Duration `yaml:"backoff_max"`
		MaxAttempts   int           `yaml:"max_attempts"`
	} `yaml:"retry"`

	ProbeInterval  time.Duration `yaml:"probe_interval"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	Export struct {
		Dir    string       `yaml:"dir"`
		GitHub GitHubExport `yaml:"github"`
	} `yaml:"export"`
}

// EnvConfig holds the resolved configuration.
type EnvConfig struct {
	port     int
	bindAddr string
	logLevel string
	dataDir  string

	remoteURL     string
	remoteToken   string
	remoteTimeout time.Duration

	autosaveInterval time.Duration
	remoteEvery      int
	sweepInterval    time.Duration
	backoffBase      time.Duration
	backoffMax       time.Duration
	maxAttempts      int
	probeInterval    time.Duration

	allowedOrigins []string
	exportDir      string
	github         GitHubExport

	file string
}

// New loads the file named by TIMELINE_CONFIG, if any, and applies
// environment overrides.
func New() (*EnvConfig, error) {
	return Load(os.Getenv(EnvConfigFile))
}

// Load reads an optional YAML file and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:             DefaultPort,
		bindAddr:         DefaultBindAddr,
		logLevel:         DefaultLogLevel,
		dataDir:          defaultDataDir(),
		remoteTimeout:    DefaultRemoteTimeout,
		autosaveInterval: DefaultAutosaveInterval,
		remoteEvery:      DefaultRemoteEvery,
		sweepInterval:    DefaultSweepInterval,
		backoffBase:      DefaultBackoffBase,
		backoffMax:       DefaultBackoffMax,
		maxAttempts:      DefaultMaxAttempts,
		probeInterval:    DefaultProbeInterval,
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.exportDir == "" {
		cfg.exportDir = filepath.Join(cfg.dataDir, "exports")
	}
	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.file = path

	setInt(&c.port, fc.Port)
	setString(&c.bindAddr, fc.Bind)
	setString(&c.logLevel, fc.LogLevel)
	setString(&c.dataDir, fc.DataDir)
	setString(&c.remoteURL, fc.Remote.URL)
	setString(&c.remoteToken, fc.Remote.Token)
	setDuration(&c.remoteTimeout, fc.Remote.Timeout)
	setDuration(&c.autosaveInterval, fc.Autosave.Interval)
	setInt(&c.remoteEvery, fc.Autosave.RemoteEvery)
	setDuration(&c.sweepInterval, fc.Retry.SweepInterval)
	setDuration(&c.backoffBase, fc.Retry.BackoffBase)
	setDuration(&c.backoffMax, fc.Retry.BackoffMax)
	setInt(&c.maxAttempts, fc.Retry.MaxAttempts)
	setDuration(&c.probeInterval, fc.ProbeInterval)
	if len(fc.AllowedOrigins) > 0 {
		c.allowedOrigins = fc.AllowedOrigins
	}
	setString(&c.exportDir, fc.Export.Dir)
	c.github = fc.Export.GitHub
	return nil
}

func (c *EnvConfig) applyEnv() error {
	var errs []error

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvPort, err))
		} else {
			c.port = port
		}
	}
	setString(&c.bindAddr, os.Getenv(EnvBindAddr))
	setString(&c.logLevel, os.Getenv(EnvLogLevel))
	setString(&c.dataDir, os.Getenv(EnvDataDir))
	setString(&c.remoteURL, os.Getenv(EnvRemoteURL))
	setString(&c.remoteToken, os.Getenv(EnvRemoteToken))

	for name, dst := range map[string]*time.Duration{
		EnvAutosaveInterval: &c.autosaveInterval,
		EnvSweepInterval:    &c.sweepInterval,
		EnvRemoteTimeout:    &c.remoteTimeout,
		EnvProbeInterval:    &c.probeInterval,
	} {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
				continue
			}
			*dst = d
		}
	}
	for name, dst := range map[string]*int{
		EnvRemoteEvery: &c.remoteEvery,
		EnvMaxAttempts: &c.maxAttempts,
	} {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
				continue
			}
			*dst = n
		}
	}

	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		c.allowedOrigins = splitList(v)
	}
	setString(&c.exportDir, os.Getenv(EnvExportDir))
	setString(&c.github.Repo, os.Getenv(EnvGitHubRepo))
	setString(&c.github.Branch, os.Getenv(EnvGitHubBranch))
	setString(&c.github.Token, os.Getenv(EnvGitHubToken))

	return errors.Join(errs...)
}

func (c *EnvConfig) validate() error {
	var errs []error
	if c.port < 1 || c.port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if c.autosaveInterval <= 0 || c.sweepInterval <= 0 || c.remoteTimeout <= 0 || c.probeInterval <= 0 {
		errs = append(errs, errors.New("intervals and timeouts must be positive"))
	}
	if c.remoteEvery < 1 {
		errs = append(errs, errors.New("remote_every must be at least 1"))
	}
	if c.maxAttempts < 1 {
		errs = append(errs, errors.New("max_attempts must be at least 1"))
	}
	if c.backoffBase <= 0 || c.backoffMax < c.backoffBase {
		errs = append(errs, errors.New("backoff_max must be at least backoff_base"))
	}
	if c.remoteURL != "" && !strings.HasPrefix(c.remoteURL, "http://") && !strings.HasPrefix(c.remoteURL, "https://") {
		errs = append(errs, fmt.Errorf("remote url %q must be http or https", c.remoteURL))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// Addr returns the listen address of the sync daemon
func (c *EnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.bindAddr, c.port)
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// ServerDBPath returns the sync daemon's SQLite database file
func (c *EnvConfig) ServerDBPath() string {
	return filepath.Join(c.dataDir, ServerDBFilename)
}

// LocalDBPath returns the editing session's local snapshot database
func (c *EnvConfig) LocalDBPath() string {
	return filepath.Join(c.dataDir, LocalDBFilename)
}

func (c *EnvConfig) RemoteURL() string {
	return c.remoteURL
}

func (c *EnvConfig) RemoteToken() string {
	return c.remoteToken
}

func (c *EnvConfig) AutosaveInterval() time.Duration {
	return c.autosaveInterval
}

func (c *EnvConfig) RemoteEvery() int {
	return c.remoteEvery
}

func (c *EnvConfig) SweepInterval() time.Duration {
	return c.sweepInterval
}

func (c *EnvConfig) BackoffBase() time.Duration {
	return c.backoffBase
}

func (c *EnvConfig) BackoffMax() time.Duration {
	return c.backoffMax
}

func (c *EnvConfig) MaxAttempts() int {
	return c.maxAttempts
}

func (c *EnvConfig) RemoteTimeout() time.Duration {
	return c.remoteTimeout
}

func (c *EnvConfig) ProbeInterval() time.Duration {
	return c.probeInterval
}

// AllowedOrigins lists browser origins allowed to call the daemon. Entries
// may use a leading "*." wildcard for one subdomain label.
func (c *EnvConfig) AllowedOrigins() []string {
	return append([]string(nil), c.allowedOrigins...)
}

func (c *EnvConfig) ExportDir() string {
	return c.exportDir
}

func (c *EnvConfig) GitHub() GitHubExport {
	return c.github
}

// File returns the YAML file the configuration was loaded from, if any.
func (c *EnvConfig) File() string {
	return c.file
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
