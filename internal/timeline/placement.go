package timeline

import (
	"math"
	"sort"
)

// Collision-free interval placement. Dropping an interval into a track
// never silently overlaps existing content: it either slots into a gap
// that can hold it or makes room by rippling later blocks forward.

// PlacementPreview is the resolved placement for a proposed insert or
// move. StartTimes maps block ID to new start time for every block the
// placement shifts; it is nil when the interval fits without rippling.
type PlacementPreview struct {
	InsertTime  float64
	InsertIndex int
	StartTimes  map[string]float64
	Rippled     bool
}

// Rejection reasons returned by ValidatePosition.
const (
	ReasonNegativeStart   = "negative_start"
	ReasonInvalidDuration = "invalid_duration"
	ReasonOverlap         = "overlap"
)

// PositionCheck is the result of validating a candidate position.
type PositionCheck struct {
	Valid  bool
	Reason string
}

// gap is free time between adjacent blocks. The trailing gap is
// unbounded (end = +Inf). index is the block index an interval placed in
// this gap would take.
type gap struct {
	start float64
	end   float64
	index int
}

func (g gap) width() float64 {
	return g.end - g.start
}

// distanceTo is how far t sits from the gap: zero when t falls inside,
// otherwise the distance to the nearest edge.
func (g gap) distanceTo(t float64) float64 {
	clamped := t
	if clamped < g.start {
		clamped = g.start
	}
	if clamped > g.end {
		clamped = g.end
	}
	return math.Abs(t - clamped)
}

// ContiguousPreview resolves where an interval of the given duration may
// sit when the user targets proposedTime as its left edge. excludeID
// removes the interval's own entry from the collision set when an
// existing interval is being repositioned. Returns nil for a degenerate
// duration.
//
// Placement picks the gap nearest to proposedTime (earlier gap on ties).
// A gap wide enough yields an exact fit clamped inside it; otherwise the
// interval anchors at the gap's start and every block at or after the
// insertion index ripples later by the missing width, preserving order
// and durations. Zero-width boundaries between adjacent blocks still act
// as ripple anchors, but an empty span before a block starting at zero
// does not.
func ContiguousPreview(blocks []Interval, proposedTime, duration float64, excludeID string) *PlacementPreview {
	if duration <= 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(blocks))
	for _, b := range blocks {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	if len(sorted) == 0 {
		start := proposedTime
		if start < 0 {
			start = 0
		}
		return &PlacementPreview{InsertTime: start, InsertIndex: 0}
	}

	gaps := collectGaps(sorted)
	chosen := nearestGap(gaps, proposedTime)

	if chosen.width() >= duration {
		// Exact fit: clamp the left edge so the whole interval stays
		// inside the gap.
		start := proposedTime
		if start < chosen.start {
			start = chosen.start
		}
		if max := chosen.end - duration; start > max {
			start = max
		}
		return &PlacementPreview{InsertTime: start, InsertIndex: chosen.index}
	}

	// Ripple: anchor at the gap start and push everything at or after
	// the insertion index later by exactly the missing width.
	shift := duration - chosen.width()
	shifted := make(map[string]float64)
	for i := chosen.index; i < len(sorted); i++ {
		shifted[sorted[i].ID] = sorted[i].Start + shift
	}
	return &PlacementPreview{
		InsertTime:  chosen.start,
		InsertIndex: chosen.index,
		StartTimes:  shifted,
		Rippled:     true,
	}
}

// ValidatePosition is the inverse check used by resize and trim paths:
// the candidate [startTime, startTime+duration) must start at or after
// zero and, unless allowOverlap is set, intersect no other block.
func ValidatePosition(startTime, duration float64, blocks []Interval, excludeID string, allowOverlap bool) PositionCheck {
	if duration <= 0 {
		return PositionCheck{Reason: ReasonInvalidDuration}
	}
	if startTime < 0 {
		return PositionCheck{Reason: ReasonNegativeStart}
	}
	if !allowOverlap {
		candidate := Interval{Start: startTime, End: startTime + duration}
		for _, b := range blocks {
			if excludeID != "" && b.ID == excludeID {
				continue
			}
			if candidate.Overlaps(b) {
				return PositionCheck{Reason: ReasonOverlap}
			}
		}
	}
	return PositionCheck{Valid: true}
}

// collectGaps lists the free spans of a sorted track: before the first
// block (only when non-empty), between consecutive blocks (kept even at
// zero width), and the unbounded span after the last block.
func collectGaps(sorted []Interval) []gap {
	var gaps []gap
	if sorted[0].Start > 0 {
		gaps = append(gaps, gap{start: 0, end: sorted[0].Start, index: 0})
	}
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, gap{start: sorted[i-1].End, end: sorted[i].Start, index: i})
	}
	gaps = append(gaps, gap{start: sorted[len(sorted)-1].End, end: math.Inf(1), index: len(sorted)})
	return gaps
}

// nearestGap picks the gap closest to t, preferring the earlier gap when
// two are equidistant so previews stay deterministic.
func nearestGap(gaps []gap, t float64) gap {
	best := gaps[0]
	bestDist := best.distanceTo(t)
	for _, g := range gaps[1:] {
		d := g.distanceTo(t)
		if d < bestDist {
			best = g
			bestDist = d
		}
	}
	return best
}
