package api

import (
	"time"

	"github.com/reelcut/reelcut-agent/internal/project"
	"github.com/reelcut/reelcut-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State           string       `json:"state"`
	LastError       string       `json:"last_error,omitempty"`
	ProjectsCount   int          `json:"projects_count"`
	RecordingsCount int          `json:"recordings_count"`
	JobsRunning     int          `json:"jobs_running"`
	ActiveJob       *JobResponse `json:"active_job,omitempty"`
}

type CreateProjectRequest struct {
	Name      string  `json:"name"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

type ProjectResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FrameRate float64 `json:"frame_rate"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ClipResponse struct {
	ID           string  `json:"id"`
	TrackKind    string  `json:"track_kind"`
	RecordingID  string  `json:"recording_id"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	SourceIn     float64 `json:"source_in"`
	SourceOut    float64 `json:"source_out"`
	PlaybackRate float64 `json:"playback_rate"`
	IntroFadeMS  float64 `json:"intro_fade_ms"`
	OutroFadeMS  float64 `json:"outro_fade_ms"`
}

type EffectResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Payload   []byte  `json:"payload,omitempty"`
}

// TrackResponse pairs one track's intervals with its layout geometry.
type TrackResponse struct {
	Kind    string           `json:"kind"`
	Visible bool             `json:"visible"`
	Y       float64          `json:"y"`
	Height  float64          `json:"height"`
	Clips   []ClipResponse   `json:"clips,omitempty"`
	Effects []EffectResponse `json:"effects,omitempty"`
}

type TimelineResponse struct {
	Project     ProjectResponse `json:"project"`
	Tracks      []TrackResponse `json:"tracks"`
	DurationMS  float64         `json:"duration_ms"`
	TotalHeight float64         `json:"total_height"`
}

// PlacementRequest previews where an interval would land on a track.
type PlacementRequest struct {
	TrackKind     string  `json:"track_kind"`
	ProposedStart float64 `json:"proposed_start"`
	DurationMS    float64 `json:"duration_ms"`
	ExcludeID     string  `json:"exclude_id,omitempty"`
}

type PlacementResponse struct {
	Valid         bool               `json:"valid"`
	TrackKind     string             `json:"track_kind"`
	ProposedStart float64            `json:"proposed_start"`
	DurationMS    float64            `json:"duration_ms"`
	RippleShifts  map[string]float64 `json:"ripple_shifts,omitempty"`
}

type AddClipRequest struct {
	TrackKind     string  `json:"track_kind"`
	RecordingID   string  `json:"recording_id"`
	ProposedStart float64 `json:"proposed_start"`
	DurationMS    float64 `json:"duration_ms,omitempty"`
	SourceIn      float64 `json:"source_in,omitempty"`
	PlaybackRate  float64 `json:"playback_rate,omitempty"`
}

type MoveRequest struct {
	ProposedStart float64 `json:"proposed_start"`
}

type TrimRequest struct {
	Edge    string  `json:"edge"`
	NewTime float64 `json:"new_time"`
}

type AddEffectRequest struct {
	Kind          string  `json:"kind"`
	ProposedStart float64 `json:"proposed_start"`
	DurationMS    float64 `json:"duration_ms"`
	Payload       []byte  `json:"payload,omitempty"`
}

type UndoResponse struct {
	CommandID   string `json:"command_id"`
	CommandType string `json:"command_type"`
}

type RegisterRecordingRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
}

type RegisterRecordingResponse struct {
	RecordingID string `json:"recording_id"`
	JobID       string `json:"job_id,omitempty"`
}

type RecordingResponse struct {
	ID          string  `json:"id"`
	Path        string  `json:"path"`
	DisplayName string  `json:"display_name"`
	DurationMS  float64 `json:"duration_ms"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Present     bool    `json:"present"`
	CreatedAt   string  `json:"created_at"`
}

type RecordingsResponse struct {
	Recordings []RecordingResponse `json:"recordings"`
}

type JobResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	RecordingID string `json:"recording_id,omitempty"`
	Progress    int    `json:"progress"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		FrameRate: p.FrameRate,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func ClipToResponse(c *project.Clip) ClipResponse {
	return ClipResponse{
		ID:           c.ID,
		TrackKind:    c.TrackKind,
		RecordingID:  c.RecordingID,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		SourceIn:     c.SourceIn,
		SourceOut:    c.SourceOut,
		PlaybackRate: c.PlaybackRate,
		IntroFadeMS:  c.IntroFadeMS,
		OutroFadeMS:  c.OutroFadeMS,
	}
}

func EffectToResponse(e *project.Effect) EffectResponse {
	return EffectResponse{
		ID:        e.ID,
		Kind:      e.Kind,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Payload:   e.Payload,
	}
}

func PlacementToResponse(p *timeline.DragProposal) PlacementResponse {
	return PlacementResponse{
		Valid:         p.Valid,
		TrackKind:     p.TrackKind,
		ProposedStart: p.ProposedStart,
		DurationMS:    p.Duration,
		RippleShifts:  p.RippleShifts,
	}
}

func RecordingToResponse(rec *project.Recording) RecordingResponse {
	return RecordingResponse{
		ID:          rec.ID,
		Path:        rec.Path,
		DisplayName: rec.DisplayName,
		DurationMS:  rec.DurationMS,
		Width:       rec.Width,
		Height:      rec.Height,
		Present:     rec.Present,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Type:        j.Type,
		Status:      j.Status,
		RecordingID: j.RecordingID,
		Progress:    j.Progress,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}
