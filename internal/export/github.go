package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	githubAPIVersion = "2022-11-28"
	githubBaseURL    = "https://api.github.com"
)

// GitHubConfig configures a GitHubTarget.
type GitHubConfig struct {
	// BaseURL defaults to the public API. Must use HTTPS.
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GitHubTarget commits exports through the repository contents API.
type GitHubTarget struct {
	baseURL    string
	owner      string
	repo       string
	branch     string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is a non-2xx response from GitHub.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

func NewGitHubTarget(cfg GitHubConfig) (*GitHubTarget, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = githubBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: target requires HTTPS (got %q)", baseURL)
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubTarget{
		baseURL:    baseURL,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		branch:     cfg.Branch,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type contentsFile struct {
	SHA string `json:"sha"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// Commit creates or replaces the file at path in a single commit.
func (g *GitHubTarget) Commit(ctx context.Context, path string, content []byte, message string) error {
	if err := ValidateTargetPath(path); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(g.owner), url.PathEscape(g.repo), escapePath(path))

	sha, err := g.currentSHA(ctx, endpoint)
	if err != nil {
		return err
	}

	body := putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  g.branch,
	}
	if _, err := g.do(ctx, http.MethodPut, endpoint, body); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	g.logger.Info("export committed", "repo", g.owner+"/"+g.repo, "path", path, "replaced", sha != "")
	return nil
}

func (g *GitHubTarget) currentSHA(ctx context.Context, endpoint string) (string, error) {
	query := ""
	if g.branch != "" {
		query = "?ref=" + url.QueryEscape(g.branch)
	}
	data, err := g.do(ctx, http.MethodGet, endpoint+query, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up existing file: %w", err)
	}
	var file contentsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}
	return file.SHA, nil
}

func (g *GitHubTarget) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) != nil || msg.Message == "" {
			msg.Message = strings.TrimSpace(string(data))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}
	return data, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
