package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/reelcut/reelcut-agent/internal/export"
	"github.com/reelcut/reelcut-agent/internal/project"
	"github.com/reelcut/reelcut-agent/internal/timeline"
)

// exportTimelineHandler renders the project's video track to an EDL.
// The edit comes from the persisted timeline, not from the request, so
// the exported cut always matches what the editor shows.
func exportTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if strings.ToLower(req.Format) != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		tl, err := cfg.ProjectService.GetTimeline(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if tl == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		clips := tl.Clips[timeline.TrackVideo]
		if len(clips) == 0 {
			WriteError(w, http.StatusBadRequest, "project has no video clips", "BAD_REQUEST")
			return
		}

		recordings, err := cfg.ProjectService.GetRecordings(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		byID := make(map[string]*project.Recording, len(recordings))
		for _, rec := range recordings {
			byID[rec.ID] = rec
		}

		resolved, unresolved := export.Resolve(clips, byID)
		if len(resolved) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips could be resolved", "UNRESOLVABLE_CLIPS")
			return
		}

		projectName := export.SanitizeName(tl.Project.Name, 120)
		if projectName == "" {
			projectName = "reelcut_export"
		}

		edl := export.GenerateEDL(resolved, projectName, tl.Project.FrameRate)
		outputPath := filepath.Join(req.OutputDir, projectName+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:          "ok",
			Format:          "edl",
			OutputPath:      outputPath,
			ClipCount:       len(resolved),
			UnresolvedClips: unresolved,
		})
	}
}
