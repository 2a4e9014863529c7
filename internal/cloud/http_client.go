package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// RequestIDHeader correlates client requests with daemon logs.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4096

// maxProjectBody bounds a project download.
const maxProjectBody = 64 << 20

// RemoteError represents a non-2xx response from the remote endpoint.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and throttling.
// Other client errors (4xx) are considered permanent.
func (e *RemoteError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// HTTPClient talks to the timelined sync daemon.
type HTTPClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, tokens TokenSource, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) projectURL(projectID string) string {
	return fmt.Sprintf("%s/api/projects/%s", c.baseURL, url.PathEscape(projectID))
}

func (c *HTTPClient) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	return resp, nil
}

func remoteError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

func (c *HTTPClient) UpsertProject(ctx context.Context, projectID string, data []byte) error {
	req, err := c.newRequest(ctx, http.MethodPut, c.projectURL(projectID), data)
	if err != nil {
		return err
	}

	c.logger.Info("uploading project",
		"project_id", projectID,
		"size", humanize.Bytes(uint64(len(data))),
		"request_id", req.Header.Get(RequestIDHeader),
	)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result ProjectSummary
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&result); err == nil {
			c.logger.Info("project upload succeeded", "project_id", result.ID, "version", result.Version)
		}
		return nil
	}
	return remoteError("project upload", resp)
}

func (c *HTTPClient) GetProject(ctx context.Context, projectID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.projectURL(projectID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, remoteError("project fetch", resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProjectBody))
	if err != nil {
		return nil, fmt.Errorf("read project body: %w", err)
	}
	return data, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/api/projects", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteError("project list", resp)
	}

	var result struct {
		Projects []ProjectSummary `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("unmarshal project list: %w", err)
	}
	return result.Projects, nil
}

// Ping checks that the endpoint is reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Op: "health check", StatusCode: resp.StatusCode}
	}
	return nil
}
