package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/reelcut/reelcut-agent/internal/config"
	"github.com/reelcut/reelcut-agent/internal/project"
	"github.com/reelcut/reelcut-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Media elements cannot send Authorization headers; playback is
	// guarded by peer address instead of the bearer token.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/playback/recording", playbackHandler(cfg))
		r.Head("/playback/recording", playbackHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}/timeline", timelineHandler(cfg))
		r.Post("/projects/{id}/placement", placementHandler(cfg))
		r.Post("/projects/{id}/clips", addClipHandler(cfg))
		r.Post("/projects/{id}/effects", addEffectHandler(cfg))
		r.Post("/projects/{id}/undo", undoHandler(cfg))
		r.Post("/projects/{id}/export", exportTimelineHandler(cfg))

		r.Post("/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/clips/{id}/trim", trimClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Post("/effects/{id}/move", moveEffectHandler(cfg))
		r.Delete("/effects/{id}", deleteEffectHandler(cfg))

		r.Get("/recordings", listRecordingsHandler(cfg))
		r.Post("/recordings", registerRecordingHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.ProjectService.GetProjects(ctx)
		recordingsCount, _ := cfg.ProjectService.CountRecordings(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "probing"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:           state,
			LastError:       lastError,
			ProjectsCount:   len(projects),
			RecordingsCount: recordingsCount,
			JobsRunning:     jobsRunning,
			ActiveJob:       activeJob,
		})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.ProjectService.GetProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.CreateProject(r.Context(), req.Name, req.FrameRate)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

// timelineHandler returns the project's full state: every track's
// intervals plus the vertical geometry the layout engine computes for
// the current set of visible tracks.
func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		tl, err := cfg.ProjectService.GetTimeline(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if tl == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		states := tl.TrackStates()
		heights := timeline.ComputeHeights(states)
		positions := timeline.ComputePositions(heights)

		resp := TimelineResponse{
			Project:     ProjectToResponse(tl.Project),
			DurationMS:  tl.DurationMS,
			TotalHeight: timeline.TotalHeight(states),
		}
		for i, st := range states {
			track := TrackResponse{
				Kind:    st.Kind,
				Visible: st.Visible,
				Y:       positions[i],
				Height:  heights[i],
			}
			for _, c := range tl.Clips[st.Kind] {
				track.Clips = append(track.Clips, ClipToResponse(c))
			}
			for _, e := range tl.Effects[st.Kind] {
				track.Effects = append(track.Effects, EffectToResponse(e))
			}
			resp.Tracks = append(resp.Tracks, track)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func placementHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req PlacementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TrackKind == "" {
			WriteError(w, http.StatusBadRequest, "track_kind is required", "BAD_REQUEST")
			return
		}

		proposal, err := cfg.ProjectService.PreviewPlacement(r.Context(),
			projectID, req.TrackKind, req.ProposedStart, req.DurationMS, req.ExcludeID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, PlacementToResponse(proposal))
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req AddClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.RecordingID == "" {
			WriteError(w, http.StatusBadRequest, "recording_id is required", "BAD_REQUEST")
			return
		}

		clip, err := cfg.ProjectService.AddClip(r.Context(), project.AddClipParams{
			ProjectID:     projectID,
			TrackKind:     req.TrackKind,
			RecordingID:   req.RecordingID,
			ProposedStart: req.ProposedStart,
			DurationMS:    req.DurationMS,
			SourceIn:      req.SourceIn,
			PlaybackRate:  req.PlaybackRate,
		})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, ClipToResponse(clip))
	}
}

func addEffectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		var req AddEffectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		effect, err := cfg.ProjectService.AddEffect(r.Context(), project.AddEffectParams{
			ProjectID:     projectID,
			Kind:          req.Kind,
			ProposedStart: req.ProposedStart,
			DurationMS:    req.DurationMS,
			Payload:       req.Payload,
		})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, EffectToResponse(effect))
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")

		cmd, err := cfg.ProjectService.Undo(r.Context(), projectID)
		if errors.Is(err, project.ErrNothingToUndo) {
			WriteError(w, http.StatusConflict, "nothing to undo", "EMPTY_UNDO_LOG")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, UndoResponse{CommandID: cmd.ID, CommandType: cmd.Type})
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, err := cfg.ProjectService.MoveClip(r.Context(), id, req.ProposedStart)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, ClipToResponse(clip))
	}
}

func trimClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var edge timeline.TrimEdge
		switch req.Edge {
		case "start":
			edge = timeline.TrimStart
		case "end":
			edge = timeline.TrimEnd
		default:
			WriteError(w, http.StatusBadRequest, "edge must be start or end", "BAD_REQUEST")
			return
		}

		clip, err := cfg.ProjectService.TrimClip(r.Context(), id, edge, req.NewTime)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, ClipToResponse(clip))
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := cfg.ProjectService.RemoveClip(r.Context(), id); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveEffectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		effect, err := cfg.ProjectService.MoveEffect(r.Context(), id, req.ProposedStart)
		if errors.Is(err, project.ErrOverlap) {
			WriteError(w, http.StatusConflict, err.Error(), "OVERLAP")
			return
		}
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, EffectToResponse(effect))
	}
}

func deleteEffectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := cfg.ProjectService.RemoveEffect(r.Context(), id); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listRecordingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordings, err := cfg.ProjectService.GetRecordings(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list recordings", "INTERNAL_ERROR")
			return
		}

		resp := RecordingsResponse{Recordings: make([]RecordingResponse, len(recordings))}
		for i, rec := range recordings {
			resp.Recordings[i] = RecordingToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func registerRecordingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRecordingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		rec, job, err := cfg.ProjectService.RegisterRecording(r.Context(), req.Path, req.DisplayName)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		resp := RegisterRecordingResponse{RecordingID: rec.ID}
		if job != nil {
			resp.JobID = job.ID
		}
		WriteJSON(w, http.StatusCreated, resp)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordingID := r.URL.Query().Get("recording_id")
		if recordingID == "" {
			WriteError(w, http.StatusBadRequest, "recording_id is required", "BAD_REQUEST")
			return
		}

		rec, err := cfg.ProjectService.GetRecording(r.Context(), recordingID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if rec == nil {
			WriteError(w, http.StatusNotFound, "recording not found", "NOT_FOUND")
			return
		}
		if !rec.Present {
			WriteError(w, http.StatusNotFound, "recording media is missing from disk", "MEDIA_MISSING")
			return
		}

		if err := cfg.PlaybackServer.ServeRecording(w, r, rec.Path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "recording_id", recordingID)
		}
	}
}
