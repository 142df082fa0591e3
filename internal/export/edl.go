package export

import (
	"fmt"
	"math"
	"strings"
)

// GenerateEDL writes a CMX3600-style edit decision list. Source
// timecodes come from each clip's trimmed source span; record timecodes
// come from its timeline position, so the record track mirrors the
// timeline exactly including any gaps.
func GenerateEDL(clips []ResolvedClip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, clip := range clips {
		srcIn := msToTimecode(clip.SourceInMs, fps)
		srcOut := msToTimecode(clip.SourceOutMs, fps)
		recIn := msToTimecode(clip.RecordInMs, fps)
		recOut := msToTimecode(clip.RecordOutMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", clip.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms float64, fps int) string {
	totalFrames := int(math.Round(ms * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
