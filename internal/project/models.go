// Package project is the persisted project store: the authoritative list
// of intervals per track, mutated only through discrete, undoable
// commands committed by the timeline engine's gesture layer.
package project

import (
	"time"

	"github.com/reelcut/reelcut-agent/internal/timeline"
)

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FrameRate float64   `json:"frame_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recording is a registered source screen recording clips reference.
// Present flips to false when the media file disappears from disk.
type Recording struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	DurationMS  float64   `json:"duration_ms"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clip is a persisted media interval on one of the fixed tracks.
type Clip struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	TrackKind    string    `json:"track_kind"`
	RecordingID  string    `json:"recording_id"`
	StartTime    float64   `json:"start_time"`
	EndTime      float64   `json:"end_time"`
	SourceIn     float64   `json:"source_in"`
	SourceOut    float64   `json:"source_out"`
	PlaybackRate float64   `json:"playback_rate"`
	IntroFadeMS  float64   `json:"intro_fade_ms"`
	OutroFadeMS  float64   `json:"outro_fade_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c *Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Interval reduces the clip to the shape the placement engine operates on.
func (c *Clip) Interval() timeline.Interval {
	return timeline.Interval{ID: c.ID, Start: c.StartTime, End: c.EndTime}
}

// Engine converts the persisted row into the engine's clip type.
func (c *Clip) Engine() *timeline.Clip {
	return &timeline.Clip{
		Interval:     c.Interval(),
		TrackKind:    c.TrackKind,
		RecordingID:  c.RecordingID,
		SourceIn:     c.SourceIn,
		SourceOut:    c.SourceOut,
		PlaybackRate: c.PlaybackRate,
		IntroFadeMS:  c.IntroFadeMS,
		OutroFadeMS:  c.OutroFadeMS,
	}
}

// Effect is a persisted interval on an effect track. Kind and Payload
// are opaque to the engine.
type Effect struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Kind      string    `json:"kind"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	Payload   []byte    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e *Effect) Interval() timeline.Interval {
	return timeline.Interval{ID: e.ID, Start: e.StartTime, End: e.EndTime}
}

// Command types recorded in the undo log.
const (
	CommandAddInterval    = "add_interval"
	CommandMoveInterval   = "move_interval"
	CommandTrimInterval   = "trim_interval"
	CommandRippleShift    = "ripple_shift"
	CommandRemoveInterval = "remove_interval"
	CommandUndo           = "undo"
)

// Command is one committed, undoable mutation. Inverse holds the
// serialized ops that restore the pre-command state.
type Command struct {
	Seq       int64     `json:"seq"`
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      string    `json:"type"`
	Inverse   string    `json:"inverse"`
	CreatedAt time.Time `json:"created_at"`
}

// Primitive mutation ops. Forward application and undo replay both run
// through the same op set so a command and its inverse stay symmetric.
const (
	OpInsertClip      = "insert_clip"
	OpDeleteClip      = "delete_clip"
	OpSetClipStart    = "set_clip_start"
	OpSetClipGeometry = "set_clip_geometry"
	OpInsertEffect    = "insert_effect"
	OpDeleteEffect    = "delete_effect"
	OpSetEffectStart  = "set_effect_start"
)

// ClipGeometry is the trim-affected subset of a clip's columns.
type ClipGeometry struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	SourceIn  float64 `json:"source_in"`
	SourceOut float64 `json:"source_out"`
}

// Op is a single primitive mutation inside a command.
type Op struct {
	Op       string        `json:"op"`
	ClipID   string        `json:"clip_id,omitempty"`
	EffectID string        `json:"effect_id,omitempty"`
	Start    float64       `json:"start,omitempty"`
	Geometry *ClipGeometry `json:"geometry,omitempty"`
	Clip     *Clip         `json:"clip,omitempty"`
	Effect   *Effect       `json:"effect,omitempty"`
}

// Job types and statuses for background work on recordings.
const (
	JobTypeProbe = "probe"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	RecordingID string    `json:"recording_id,omitempty"`
	Progress    int       `json:"progress"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClipTrackKinds are the media tracks a clip may sit on. One kind holds
// one track per project.
var ClipTrackKinds = map[string]bool{
	timeline.TrackVideo:  true,
	timeline.TrackAudio:  true,
	timeline.TrackWebcam: true,
}

func NewID() string {
	return timeline.NewID()
}
