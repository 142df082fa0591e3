// Package export renders a project's timeline to interchange formats
// an NLE can ingest. EDL is the only format today.
package export

// ExportRequest is the payload for exporting one project's timeline.
type ExportRequest struct {
	Format    string `json:"format"`
	OutputDir string `json:"output_dir"`
}

// ResolvedClip is a timeline clip joined with its recording's media
// path. Record times are the clip's actual timeline position, so gaps
// between clips survive the export as black.
type ResolvedClip struct {
	ClipName    string
	MediaPath   string
	SourceInMs  float64
	SourceOutMs float64
	RecordInMs  float64
	RecordOutMs float64
}

type ExportResponse struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"output_path"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}
