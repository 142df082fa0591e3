package timeline

import "testing"

func defaultStates() []TrackLayoutState {
	return []TrackLayoutState{
		{Kind: TrackVideo, Visible: true, Exists: true, AlwaysShow: true},
		{Kind: TrackWebcam, Visible: true, Exists: true},
		{Kind: TrackAudio, Visible: true, Exists: true},
		{Kind: EffectCursor, Visible: true, Exists: true},
		{Kind: EffectKeystroke, Visible: true, Exists: false},
	}
}

func TestTrackHeight(t *testing.T) {
	tests := []struct {
		name  string
		state TrackLayoutState
		want  float64
	}{
		{
			name:  "visible collapsed video",
			state: TrackLayoutState{Kind: TrackVideo, Visible: true, Exists: true},
			want:  64,
		},
		{
			name:  "visible expanded video",
			state: TrackLayoutState{Kind: TrackVideo, Visible: true, Exists: true, Expanded: true},
			want:  96,
		},
		{
			name:  "hidden track contributes nothing",
			state: TrackLayoutState{Kind: TrackAudio, Visible: false, Exists: true},
			want:  0,
		},
		{
			name:  "empty track contributes nothing",
			state: TrackLayoutState{Kind: EffectCursor, Visible: true, Exists: false},
			want:  0,
		},
		{
			name:  "empty but always shown",
			state: TrackLayoutState{Kind: TrackVideo, Visible: true, Exists: false, AlwaysShow: true},
			want:  64,
		},
		{
			name:  "unknown effect kind falls back to default heights",
			state: TrackLayoutState{Kind: "confetti", Visible: true, Exists: true},
			want:  28,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrackHeight(tc.state); got != tc.want {
				t.Fatalf("TrackHeight() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestComputePositions_PrefixSums(t *testing.T) {
	heights := []float64{64, 48, 0, 28}
	offsets := ComputePositions(heights)

	want := []float64{0, 64, 112, 112}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offsets[%d] = %v, want %v", i, offsets[i], want[i])
		}
	}
}

func TestComputePositions_TogglingShiftsTracksBelow(t *testing.T) {
	states := defaultStates()
	before := ComputePositions(ComputeHeights(states))

	// Hide the webcam track; everything below must move up by exactly
	// its height, with no drift.
	webcamHeight := TrackHeight(states[1])
	states[1].Visible = false
	after := ComputePositions(ComputeHeights(states))

	for i := 2; i < len(states); i++ {
		if got, want := after[i], before[i]-webcamHeight; got != want {
			t.Errorf("track %d offset = %v, want %v", i, got, want)
		}
	}
}

func TestGetTrackBounds_ContentInset(t *testing.T) {
	states := defaultStates()

	bounds, ok := GetTrackBounds(states, 2)
	if !ok {
		t.Fatal("GetTrackBounds(2) not ok")
	}
	if bounds.ContentY != bounds.Y+trackPadding {
		t.Errorf("ContentY = %v, want %v", bounds.ContentY, bounds.Y+trackPadding)
	}
	if bounds.ContentHeight != bounds.Height-2*trackPadding {
		t.Errorf("ContentHeight = %v, want %v", bounds.ContentHeight, bounds.Height-2*trackPadding)
	}
}

func TestGetTrackBounds_HiddenOrMissing(t *testing.T) {
	states := defaultStates()

	if _, ok := GetTrackBounds(states, 4); ok {
		t.Error("expected no bounds for zero-height track")
	}
	if _, ok := GetTrackBounds(states, -1); ok {
		t.Error("expected no bounds for negative index")
	}
	if _, ok := GetTrackBounds(states, len(states)); ok {
		t.Error("expected no bounds for out-of-range index")
	}
}

func TestBoundsByKind(t *testing.T) {
	states := defaultStates()

	bounds, ok := BoundsByKind(states, TrackAudio)
	if !ok {
		t.Fatal("BoundsByKind(audio) not ok")
	}
	if bounds.Y != 64+48 {
		t.Errorf("audio track Y = %v, want %v", bounds.Y, 64+48)
	}

	if _, ok := BoundsByKind(states, "nonexistent"); ok {
		t.Error("expected no bounds for unknown kind")
	}
}

func TestHitTestTrack(t *testing.T) {
	states := defaultStates()
	// video 0..64, webcam 64..112, audio 112..152, cursor 152..180

	tests := []struct {
		name   string
		y      float64
		want   int
		wantOK bool
	}{
		{name: "top of video", y: 0, want: 0, wantOK: true},
		{name: "inside webcam", y: 80, want: 1, wantOK: true},
		{name: "first pixel of audio", y: 112, want: 2, wantOK: true},
		{name: "inside cursor", y: 160, want: 3, wantOK: true},
		{name: "below everything", y: 500, want: -1, wantOK: false},
		{name: "above everything", y: -1, want: -1, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := HitTestTrack(states, tc.y)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("HitTestTrack(%v) = %d, %v, want %d, %v", tc.y, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestHitTestTrack_SkipsHiddenTracks(t *testing.T) {
	states := defaultStates()
	states[0].Visible = false

	// With video hidden, y=10 lands in webcam.
	got, ok := HitTestTrack(states, 10)
	if !ok || got != 1 {
		t.Fatalf("HitTestTrack(10) = %d, %v, want 1, true", got, ok)
	}
}

func TestTotalHeight(t *testing.T) {
	states := defaultStates()
	if got := TotalHeight(states); got != 64+48+40+28 {
		t.Errorf("TotalHeight() = %v, want %v", got, 64+48+40+28)
	}
}
