package api

import (
	"time"

	"github.com/reelworks/timeline/internal/projectstore"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ProjectResponse matches cloud.ProjectSummary on the client side.
type ProjectResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Version          int64  `json:"version"`
	Size             int64  `json:"size"`
	ProjectUpdatedAt string `json:"project_updated_at,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

func RecordToResponse(r *projectstore.Record) ProjectResponse {
	resp := ProjectResponse{
		ID:        r.ID,
		Name:      r.Name,
		Version:   r.Version,
		Size:      r.Size,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
	if !r.ProjectUpdatedAt.IsZero() {
		resp.ProjectUpdatedAt = r.ProjectUpdatedAt.Format(time.RFC3339)
	}
	return resp
}
