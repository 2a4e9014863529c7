package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelworks/timeline/internal/projectstore"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api/projects", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens, cfg.Logger))

		r.Get("/", listProjectsHandler(cfg))
		r.Get("/{id}", getProjectHandler(cfg))
		r.Put("/{id}", putProjectHandler(cfg))
		r.Get("/{id}/edl", projectEDLHandler(cfg))
		r.With(LoopbackGuard()).Delete("/{id}", deleteProjectHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.Repository.List(r.Context())
		if err != nil {
			cfg.Logger.Error("list projects failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(records))}
		for i, rec := range records {
			resp.Projects[i] = RecordToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := loadRecord(cfg, w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Project-Version", strconv.FormatInt(rec.Version, 10))
		w.WriteHeader(http.StatusOK)
		w.Write(rec.Payload)
	}
}

func putProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, "project exceeds upload limit", "TOO_LARGE")
				return
			}
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		rec, err := cfg.Repository.Upsert(r.Context(), id, body)
		switch {
		case errors.Is(err, projectstore.ErrInvalidPayload), errors.Is(err, projectstore.ErrIDMismatch):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		case err != nil:
			cfg.Logger.Error("store project failed", "project_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to store project", "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("project stored", "project_id", id, "version", rec.Version, "size", rec.Size)
		WriteJSON(w, http.StatusOK, RecordToResponse(rec))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Repository.Delete(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// loadRecord writes the error response itself and reports false when the
// record cannot be served.
func loadRecord(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*projectstore.Record, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "project id required", "BAD_REQUEST")
		return nil, false
	}

	rec, err := cfg.Repository.Get(r.Context(), id)
	if err != nil {
		cfg.Logger.Error("load project failed", "project_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to load project", "INTERNAL_ERROR")
		return nil, false
	}
	if rec == nil {
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
		return nil, false
	}
	return rec, true
}
