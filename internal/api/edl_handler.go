package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/reelworks/timeline/internal/export"
	"github.com/reelworks/timeline/internal/timeline"
)

// projectEDLHandler renders the stored project as a CMX3600 EDL download.
func projectEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := loadRecord(cfg, w, r)
		if !ok {
			return
		}

		var p timeline.Project
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			cfg.Logger.Warn("stored project is not decodable", "project_id", rec.ID, "error", err)
			WriteError(w, http.StatusUnprocessableEntity, "stored project cannot be decoded", "UNDECODABLE_PROJECT")
			return
		}
		if p.ID == "" {
			p.ID = rec.ID
		}
		if len(export.Events(&p)) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "project has no exportable media", "EMPTY_TIMELINE")
			return
		}

		name := strings.TrimSuffix(export.FileName(p.Name, p.ID), ".timeline.json") + ".edl"
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.GenerateEDL(&p)))
	}
}
