package timeline

// Time/pixel conversion under a variable zoom level. All inputs are
// clamped to non-negative; there are no error conditions.

const (
	MinZoom = 0.05
	MaxZoom = 20.0

	// referenceDurationMS is the span that fills the viewport at zoom 1.
	referenceDurationMS = 30000.0
)

// PixelsPerMs returns the scale factor for the given zoom level and
// viewport width. Monotonically increasing in zoom, always positive for
// positive inputs.
func PixelsPerMs(zoom, viewportWidth float64) float64 {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	if viewportWidth < 0 {
		viewportWidth = 0
	}
	return zoom * viewportWidth / referenceDurationMS
}

func MsToPixels(ms, pixelsPerMs float64) float64 {
	if ms < 0 {
		ms = 0
	}
	if pixelsPerMs <= 0 {
		return 0
	}
	return ms * pixelsPerMs
}

func PixelsToMs(px, pixelsPerMs float64) float64 {
	if px < 0 {
		px = 0
	}
	if pixelsPerMs <= 0 {
		return 0
	}
	return px / pixelsPerMs
}

// OptimalZoom returns the zoom level at which totalDurationMs lands at
// the right edge of the viewport, clamped to [MinZoom, MaxZoom].
func OptimalZoom(totalDurationMs, viewportWidth float64) float64 {
	if totalDurationMs <= 0 || viewportWidth <= 0 {
		return 1.0
	}
	// Solve MsToPixels(totalDurationMs, PixelsPerMs(z, w)) == w for z.
	zoom := referenceDurationMS / totalDurationMs
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}
