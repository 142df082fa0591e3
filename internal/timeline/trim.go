package timeline

import "math"

// Trim constraint enforcement. A trim adjusts one edge of an existing
// clip without stretching or resampling: the visible span always maps
// 1:1 onto a contiguous run of source material, so trimming the start
// consumes source head and trimming the end gives back source tail.

// TrimEdge identifies which edge of a clip a trim handle moves.
type TrimEdge int

const (
	TrimStart TrimEdge = iota
	TrimEnd
)

// TrimResult is the resolved geometry after a trim. Duration never falls
// below MinClipDurationMS and the moved edge never crosses a neighbor.
type TrimResult struct {
	StartTime float64
	Duration  float64
	SourceIn  float64
	SourceOut float64
}

// Trim moves one edge of clip to newTime, constrained by the adjacent
// intervals in the same track (nil when the clip has no neighbor on that
// side). A request that would violate the minimum duration clamps to the
// minimum instead of rejecting, so the interaction stays continuous.
// Returns nil only for degenerate input (zero-duration clip).
func Trim(clip *Clip, edge TrimEdge, newTime float64, prev, next *Interval) *TrimResult {
	if clip == nil || clip.Duration() <= 0 {
		return nil
	}

	switch edge {
	case TrimStart:
		return trimStart(clip, newTime, prev)
	case TrimEnd:
		return trimEnd(clip, newTime, next)
	default:
		return nil
	}
}

func trimStart(clip *Clip, newTime float64, prev *Interval) *TrimResult {
	floor := 0.0
	if prev != nil && prev.End > floor {
		floor = prev.End
	}
	// Extending left is also limited by the remaining source head:
	// sourceIn can never go negative.
	if sourceFloor := clip.Start - clip.SourceIn; sourceFloor > floor {
		floor = sourceFloor
	}
	ceiling := clip.End - MinClipDurationMS

	t := clamp(newTime, floor, ceiling)
	delta := t - clip.Start

	return &TrimResult{
		StartTime: t,
		Duration:  clip.End - t,
		SourceIn:  clip.SourceIn + delta,
		SourceOut: clip.SourceOut,
	}
}

func trimEnd(clip *Clip, newTime float64, next *Interval) *TrimResult {
	floor := clip.Start + MinClipDurationMS
	ceiling := math.Inf(1)
	if next != nil {
		ceiling = next.Start
	}
	if ceiling < floor {
		ceiling = floor
	}

	t := clamp(newTime, floor, ceiling)
	delta := clip.End - t

	return &TrimResult{
		StartTime: clip.Start,
		Duration:  t - clip.Start,
		SourceIn:  clip.SourceIn,
		SourceOut: clip.SourceOut - delta,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
