package export

import (
	"sort"

	"github.com/reelcut/reelcut-agent/internal/project"
)

// Resolve joins the video track's clips with their recordings. Clips
// whose recording is unknown or missing from disk are reported as
// unresolved and left out of the cut.
func Resolve(clips []*project.Clip, recordings map[string]*project.Recording) ([]ResolvedClip, []string) {
	sorted := make([]*project.Clip, len(clips))
	copy(sorted, clips)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	var resolved []ResolvedClip
	var unresolved []string
	for _, c := range sorted {
		rec := recordings[c.RecordingID]
		if rec == nil || !rec.Present {
			unresolved = append(unresolved, c.ID)
			continue
		}
		resolved = append(resolved, ResolvedClip{
			ClipName:    rec.DisplayName,
			MediaPath:   rec.Path,
			SourceInMs:  c.SourceIn,
			SourceOutMs: c.SourceOut,
			RecordInMs:  c.StartTime,
			RecordOutMs: c.EndTime,
		})
	}
	return resolved, unresolved
}
