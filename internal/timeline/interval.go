// Package timeline implements the editor's timeline interval engine:
// time/pixel conversion, track layout, collision-free interval placement,
// drag snapping, and trim constraint enforcement. The package is pure
// in-memory computation; persistence and rendering live elsewhere.
package timeline

import (
	"crypto/rand"
	"fmt"
)

// Track kinds for media clips. Each kind owns exactly one track.
const (
	TrackVideo  = "video"
	TrackAudio  = "audio"
	TrackWebcam = "webcam"
)

// Effect track kinds the layout engine knows height constants for. The
// engine never inspects effect payloads, only their intervals.
const (
	EffectCursor    = "cursor"
	EffectKeystroke = "keystroke"
	EffectZoom      = "zoom"
	EffectWatermark = "watermark"
)

// MinClipDurationMS is the floor every trim and resize clamps to.
const MinClipDurationMS = 100.0

// Interval is a half-open [Start, End) span in milliseconds with an
// identity. It is the unit every placement operation works on.
type Interval struct {
	ID    string
	Start float64
	End   float64
}

func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Clip is a media interval on one of the fixed tracks. SourceIn/SourceOut
// are offsets into the referenced recording; the visible span always maps
// onto a contiguous run of source material.
type Clip struct {
	Interval
	TrackKind    string
	RecordingID  string
	SourceIn     float64
	SourceOut    float64
	PlaybackRate float64
	IntroFadeMS  float64
	OutroFadeMS  float64
}

// EffectInterval is an interval on an effect track. Kind and Payload are
// opaque to the engine.
type EffectInterval struct {
	Interval
	Kind    string
	Payload []byte
}

// DragProposal is the transient candidate produced during a gesture. It
// lives only until pointer-up: committed through the command layer or
// discarded. RippleShifts is nil for exact-fit placements.
type DragProposal struct {
	IntervalID    string
	TrackKind     string
	ProposedStart float64
	Duration      float64
	Valid         bool
	RippleShifts  map[string]float64
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
