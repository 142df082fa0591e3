package timeline

import "math"

// Drag snapping: converts a raw pointer position into the nearest legal
// time anchor by round-tripping through the placement engine and the
// time scale. Used identically for clips and free-floating effect
// blocks; only the collision policy differs.

// SnapInput carries one pointer-move sample for an interval being
// dragged within its track.
type SnapInput struct {
	ProposedX    float64
	BlockWidthPx float64
	Blocks       []Interval
	PixelsPerMs  float64
	ExcludeID    string
}

// SnappedDragX resolves the nearest legal left edge, in pixels, for a
// clip dragged freely within a track. Free dragging only snaps into
// existing gaps; it never ripples neighbors (only a fresh drop does).
// Returns the input position unchanged for degenerate scale or width.
func SnappedDragX(in SnapInput) float64 {
	if in.PixelsPerMs <= 0 || in.BlockWidthPx <= 0 {
		return in.ProposedX
	}
	proposedTime := PixelsToMs(in.ProposedX, in.PixelsPerMs)
	duration := in.BlockWidthPx / in.PixelsPerMs

	preview := ContiguousPreview(in.Blocks, proposedTime, duration, in.ExcludeID)
	if preview == nil {
		return in.ProposedX
	}
	// A rippled preview still anchors the dragged block at the gap
	// start; the shift map is ignored here so neighbors stay put.
	return MsToPixels(preview.InsertTime, in.PixelsPerMs)
}

// NearestAvailableDragX is the same operation specialized for effect
// blocks, which must avoid overlap but never displace their neighbors:
// an overlapping position clamps flush against the blocking neighbor
// instead. Returns the proposal unchanged when it is already legal, and
// the nearest legal alternative otherwise. ok is false when the track is
// so packed that no legal position exists.
func NearestAvailableDragX(in SnapInput) (float64, bool) {
	if in.PixelsPerMs <= 0 || in.BlockWidthPx <= 0 {
		return in.ProposedX, true
	}
	proposedTime := PixelsToMs(in.ProposedX, in.PixelsPerMs)
	duration := in.BlockWidthPx / in.PixelsPerMs

	if check := ValidatePosition(proposedTime, duration, in.Blocks, in.ExcludeID, false); check.Valid {
		return MsToPixels(proposedTime, in.PixelsPerMs), true
	}

	best := math.Inf(1)
	bestStart := 0.0
	found := false
	for _, start := range candidateStarts(in.Blocks, duration, in.ExcludeID) {
		if check := ValidatePosition(start, duration, in.Blocks, in.ExcludeID, false); !check.Valid {
			continue
		}
		if d := math.Abs(start - proposedTime); d < best {
			best = d
			bestStart = start
			found = true
		}
	}
	if !found {
		return in.ProposedX, false
	}
	return MsToPixels(bestStart, in.PixelsPerMs), true
}

// candidateStarts enumerates the flush positions an effect block could
// clamp to: the track origin, flush after each block's end, and flush
// before each block's start.
func candidateStarts(blocks []Interval, duration float64, excludeID string) []float64 {
	starts := []float64{0}
	for _, b := range blocks {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		starts = append(starts, b.End)
		if before := b.Start - duration; before >= 0 {
			starts = append(starts, before)
		}
	}
	return starts
}
