package timeline

import (
	"math"
	"testing"
)

func iv(id string, start, end float64) Interval {
	return Interval{ID: id, Start: start, End: end}
}

func TestContiguousPreview_EmptyTrack(t *testing.T) {
	p := ContiguousPreview(nil, 700, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 700 || p.InsertIndex != 0 || p.Rippled {
		t.Fatalf("preview = %+v, want insert at 700 index 0 without ripple", p)
	}

	p = ContiguousPreview(nil, -300, 500, "")
	if p.InsertTime != 0 {
		t.Errorf("negative proposal clamped to %v, want 0", p.InsertTime)
	}
}

func TestContiguousPreview_DegenerateDuration(t *testing.T) {
	if p := ContiguousPreview([]Interval{iv("a", 0, 1000)}, 100, 0, ""); p != nil {
		t.Errorf("zero duration preview = %+v, want nil", p)
	}
	if p := ContiguousPreview([]Interval{iv("a", 0, 1000)}, 100, -50, ""); p != nil {
		t.Errorf("negative duration preview = %+v, want nil", p)
	}
}

// Track has one block [0,1000); a 500ms insert proposed at 200 has no
// usable gap before the block, so it lands flush after it, no ripple.
func TestContiguousPreview_TrailingGapWins(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000)}

	p := ContiguousPreview(blocks, 200, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 1000 || p.InsertIndex != 1 {
		t.Errorf("insert = (%v, %d), want (1000, 1)", p.InsertTime, p.InsertIndex)
	}
	if p.Rippled || p.StartTimes != nil {
		t.Errorf("unexpected ripple: %+v", p)
	}
}

// Two contiguous blocks, insert on their shared boundary: no gap fits,
// so the tail ripples forward by the full duration.
func TestContiguousPreview_RippleAtBoundary(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000), iv("b", 1000, 2000)}

	p := ContiguousPreview(blocks, 1000, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 1000 || p.InsertIndex != 1 {
		t.Errorf("insert = (%v, %d), want (1000, 1)", p.InsertTime, p.InsertIndex)
	}
	if !p.Rippled {
		t.Fatal("expected ripple")
	}
	if got := p.StartTimes["b"]; got != 1500 {
		t.Errorf("b shifted to %v, want 1500", got)
	}
	if _, ok := p.StartTimes["a"]; ok {
		t.Error("block before the insertion point must not shift")
	}
}

// A wide-enough interior gap takes the proposal exactly.
func TestContiguousPreview_ExactFitInGap(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000), iv("b", 2000, 3000)}

	p := ContiguousPreview(blocks, 1400, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 1400 || p.InsertIndex != 1 || p.Rippled {
		t.Fatalf("preview = %+v, want exact fit at 1400 index 1", p)
	}
}

func TestContiguousPreview_ExactFitClampsIntoGap(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000), iv("b", 2000, 3000)}

	// Proposed so late the interval would poke into b: clamp left.
	p := ContiguousPreview(blocks, 1900, 500, "")
	if p.InsertTime != 1500 {
		t.Errorf("insert time = %v, want 1500", p.InsertTime)
	}

	// Proposed just before the gap: clamp right to the gap start.
	p = ContiguousPreview(blocks, 950, 500, "")
	if p.InsertTime != 1000 {
		t.Errorf("insert time = %v, want 1000", p.InsertTime)
	}
}

func TestContiguousPreview_NarrowGapRipples(t *testing.T) {
	// Gap [1000,1200) is 200 wide; a 500ms insert needs 300 more.
	blocks := []Interval{iv("a", 0, 1000), iv("b", 1200, 2000), iv("c", 2500, 3000)}

	p := ContiguousPreview(blocks, 1100, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 1000 || p.InsertIndex != 1 || !p.Rippled {
		t.Fatalf("preview = %+v, want ripple anchored at 1000 index 1", p)
	}
	if got := p.StartTimes["b"]; got != 1500 {
		t.Errorf("b shifted to %v, want 1500", got)
	}
	if got := p.StartTimes["c"]; got != 2800 {
		t.Errorf("c shifted to %v, want 2800", got)
	}
}

func TestContiguousPreview_RippleConservesDurationsAndOrder(t *testing.T) {
	blocks := []Interval{iv("a", 0, 800), iv("b", 800, 1700), iv("c", 1700, 2100)}

	p := ContiguousPreview(blocks, 800, 600, "")
	if p == nil || !p.Rippled {
		t.Fatalf("expected ripple, got %+v", p)
	}

	// Apply the shift map and confirm durations and relative order.
	prevEnd := math.Inf(-1)
	for _, b := range blocks {
		start := b.Start
		if s, ok := p.StartTimes[b.ID]; ok {
			start = s
		}
		end := start + b.Duration()
		if start < prevEnd {
			t.Errorf("block %s out of order after ripple: start %v < previous end %v", b.ID, start, prevEnd)
		}
		prevEnd = end
	}
	// The shift is uniform, so every shifted block keeps its duration.
	if got := p.StartTimes["b"]; got != 1400 {
		t.Errorf("b shifted to %v, want 1400", got)
	}
	if got := p.StartTimes["c"]; got != 2300 {
		t.Errorf("c shifted to %v, want 2300", got)
	}
}

func TestContiguousPreview_EarlierGapWinsTies(t *testing.T) {
	// Gaps [1000,1500) and [2500,3000); proposal 2000 is equidistant.
	blocks := []Interval{iv("a", 0, 1000), iv("b", 1500, 2500), iv("c", 3000, 4000)}

	p := ContiguousPreview(blocks, 2000, 400, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertIndex != 1 {
		t.Errorf("insert index = %d, want 1 (earlier gap)", p.InsertIndex)
	}
	if p.InsertTime != 1100 {
		t.Errorf("insert time = %v, want 1100", p.InsertTime)
	}
}

// Repositioning an existing block excludes it from its own collision
// set, so dropping it back where it was is an exact no-op.
func TestContiguousPreview_NoOpMove(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000), iv("b", 1000, 1600), iv("c", 1600, 2400)}

	p := ContiguousPreview(blocks, 1000, 600, "b")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.Rippled {
		t.Fatalf("no-op move rippled: %+v", p)
	}
	if p.InsertTime != 1000 {
		t.Errorf("insert time = %v, want 1000", p.InsertTime)
	}
}

func TestContiguousPreview_UnsortedInput(t *testing.T) {
	blocks := []Interval{iv("b", 2000, 3000), iv("a", 0, 1000)}

	p := ContiguousPreview(blocks, 1200, 500, "")
	if p == nil {
		t.Fatal("preview is nil")
	}
	if p.InsertTime != 1200 || p.InsertIndex != 1 || p.Rippled {
		t.Fatalf("preview = %+v, want exact fit at 1200 index 1", p)
	}
}

func TestValidatePosition(t *testing.T) {
	blocks := []Interval{iv("a", 0, 1000), iv("b", 2000, 3000)}

	tests := []struct {
		name       string
		start      float64
		duration   float64
		excludeID  string
		allow      bool
		wantValid  bool
		wantReason string
	}{
		{name: "fits in gap", start: 1200, duration: 500, wantValid: true},
		{name: "flush between blocks", start: 1000, duration: 1000, wantValid: true},
		{name: "overlaps first block", start: 500, duration: 600, wantReason: ReasonOverlap},
		{name: "overlap allowed", start: 500, duration: 600, allow: true, wantValid: true},
		{name: "negative start", start: -10, duration: 500, wantReason: ReasonNegativeStart},
		{name: "zero duration", start: 100, duration: 0, wantReason: ReasonInvalidDuration},
		{name: "self excluded", start: 100, duration: 500, excludeID: "a", wantValid: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePosition(tc.start, tc.duration, blocks, tc.excludeID, tc.allow)
			if got.Valid != tc.wantValid {
				t.Fatalf("ValidatePosition() valid = %v, want %v (reason %q)", got.Valid, tc.wantValid, got.Reason)
			}
			if got.Reason != tc.wantReason {
				t.Errorf("ValidatePosition() reason = %q, want %q", got.Reason, tc.wantReason)
			}
		})
	}
}
