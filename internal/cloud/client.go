package cloud

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Client is the remote persistence endpoint. UpsertProject is idempotent
// per project id; GetProject returns nil data when the project is unknown.
type Client interface {
	UpsertProject(ctx context.Context, projectID string, data []byte) error
	GetProject(ctx context.Context, projectID string) ([]byte, error)
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
	Ping(ctx context.Context) error
}

// ProjectSummary is one row of the remote project listing.
type ProjectSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StubClient keeps projects in memory. It backs tests and offline demos.
type StubClient struct {
	mu       sync.Mutex
	projects map[string]stubProject
	now      func() time.Time
	logger   *slog.Logger
	err      error
}

type stubProject struct {
	data    []byte
	name    string
	version int64
	at      time.Time
}

func NewStubClient(logger *slog.Logger) *StubClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubClient{
		projects: make(map[string]stubProject),
		now:      time.Now,
		logger:   logger,
	}
}

func (c *StubClient) UpsertProject(ctx context.Context, projectID string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	var head struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(data, &head)

	prev := c.projects[projectID]
	c.projects[projectID] = stubProject{
		data:    append([]byte(nil), data...),
		name:    head.Name,
		version: prev.version + 1,
		at:      c.now(),
	}
	c.logger.Debug("cloud stub: project stored", "project_id", projectID, "bytes", len(data))
	return nil
}

func (c *StubClient) GetProject(ctx context.Context, projectID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.projects[projectID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), p.data...), nil
}

func (c *StubClient) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]ProjectSummary, 0, len(c.projects))
	for id, p := range c.projects {
		out = append(out, ProjectSummary{
			ID:        id,
			Name:      p.name,
			Version:   p.version,
			Size:      int64(len(p.data)),
			UpdatedAt: p.at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *StubClient) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetErr makes every subsequent call fail with err; nil restores service.
func (c *StubClient) SetErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
