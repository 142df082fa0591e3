package timeline

// Vertical track layout. Heights depend on visibility, expansion, and
// existence; positions are running totals, so toggling one track shifts
// everything below it. All computation here is pure and cheap enough to
// run on every render.

// trackPadding insets interval bodies from track separators, applied on
// both axes of the content box.
const trackPadding = 4.0

type heightSpec struct {
	collapsed float64
	expanded  float64
}

var trackHeights = map[string]heightSpec{
	TrackVideo:      {collapsed: 64, expanded: 96},
	TrackAudio:      {collapsed: 40, expanded: 64},
	TrackWebcam:     {collapsed: 48, expanded: 72},
	EffectCursor:    {collapsed: 28, expanded: 48},
	EffectKeystroke: {collapsed: 28, expanded: 48},
	EffectZoom:      {collapsed: 28, expanded: 48},
	EffectWatermark: {collapsed: 28, expanded: 48},
}

// defaultEffectHeights covers effect kinds registered at runtime that
// have no dedicated constants.
var defaultEffectHeights = heightSpec{collapsed: 28, expanded: 48}

// TrackLayoutState is the derived per-track input to the layout engine.
// Exists means the track has at least one interval; AlwaysShow keeps an
// empty track visible anyway.
type TrackLayoutState struct {
	Kind       string
	Visible    bool
	Expanded   bool
	Exists     bool
	AlwaysShow bool
}

// TrackBounds describes a track's vertical slot. ContentY/ContentHeight
// are inset by trackPadding so renderers can place interval bodies
// without touching separators.
type TrackBounds struct {
	Y             float64
	Height        float64
	ContentY      float64
	ContentHeight float64
}

// TrackHeight returns the height a single track contributes: zero when
// hidden or absent, otherwise the kind's collapsed or expanded constant.
func TrackHeight(state TrackLayoutState) float64 {
	if !state.Visible {
		return 0
	}
	if !state.Exists && !state.AlwaysShow {
		return 0
	}
	spec, ok := trackHeights[state.Kind]
	if !ok {
		spec = defaultEffectHeights
	}
	if state.Expanded {
		return spec.expanded
	}
	return spec.collapsed
}

// ComputeHeights returns one height per track, in input order.
func ComputeHeights(states []TrackLayoutState) []float64 {
	heights := make([]float64, len(states))
	for i, st := range states {
		heights[i] = TrackHeight(st)
	}
	return heights
}

// ComputePositions returns each track's vertical offset: the exact sum
// of all previous tracks' heights.
func ComputePositions(heights []float64) []float64 {
	offsets := make([]float64, len(heights))
	total := 0.0
	for i, h := range heights {
		offsets[i] = total
		total += h
	}
	return offsets
}

// GetTrackBounds returns the bounds of the track at index i given the
// full ordered state list. Returns false for an out-of-range index or a
// track contributing no height.
func GetTrackBounds(states []TrackLayoutState, i int) (TrackBounds, bool) {
	if i < 0 || i >= len(states) {
		return TrackBounds{}, false
	}
	heights := ComputeHeights(states)
	offsets := ComputePositions(heights)
	h := heights[i]
	if h <= 0 {
		return TrackBounds{}, false
	}
	contentH := h - 2*trackPadding
	if contentH < 0 {
		contentH = 0
	}
	return TrackBounds{
		Y:             offsets[i],
		Height:        h,
		ContentY:      offsets[i] + trackPadding,
		ContentHeight: contentH,
	}, true
}

// BoundsByKind looks a track up by kind instead of index.
func BoundsByKind(states []TrackLayoutState, kind string) (TrackBounds, bool) {
	for i, st := range states {
		if st.Kind == kind {
			return GetTrackBounds(states, i)
		}
	}
	return TrackBounds{}, false
}

// HitTestTrack maps a vertical pixel position to the track under it.
// Returns -1, false when y falls outside all visible tracks; callers
// must treat that as "no drop target" and not commit.
func HitTestTrack(states []TrackLayoutState, y float64) (int, bool) {
	if y < 0 {
		return -1, false
	}
	heights := ComputeHeights(states)
	top := 0.0
	for i, h := range heights {
		if h <= 0 {
			continue
		}
		if y >= top && y < top+h {
			return i, true
		}
		top += h
	}
	return -1, false
}

// TotalHeight is the stacked height of all visible tracks.
func TotalHeight(states []TrackLayoutState) float64 {
	total := 0.0
	for _, h := range ComputeHeights(states) {
		total += h
	}
	return total
}
