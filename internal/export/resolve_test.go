package export

import (
	"testing"

	"github.com/reelcut/reelcut-agent/internal/project"
)

func TestResolve_OrdersAndJoins(t *testing.T) {
	clips := []*project.Clip{
		{ID: "c2", RecordingID: "r1", StartTime: 2000, EndTime: 3000, SourceIn: 100, SourceOut: 1100},
		{ID: "c1", RecordingID: "r1", StartTime: 0, EndTime: 1000, SourceIn: 0, SourceOut: 1000},
	}
	recordings := map[string]*project.Recording{
		"r1": {ID: "r1", Path: "/media/capture.mp4", DisplayName: "Capture", Present: true},
	}

	resolved, unresolved := Resolve(clips, recordings)

	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v, want none", unresolved)
	}
	if len(resolved) != 2 {
		t.Fatalf("resolved %d clips, want 2", len(resolved))
	}
	if resolved[0].RecordInMs != 0 || resolved[1].RecordInMs != 2000 {
		t.Errorf("resolved clips not in timeline order: %v", resolved)
	}
	if resolved[1].SourceInMs != 100 {
		t.Errorf("resolved[1].SourceInMs = %v, want 100", resolved[1].SourceInMs)
	}
	if resolved[0].MediaPath != "/media/capture.mp4" {
		t.Errorf("resolved[0].MediaPath = %q", resolved[0].MediaPath)
	}
}

func TestResolve_MissingRecordings(t *testing.T) {
	clips := []*project.Clip{
		{ID: "c1", RecordingID: "gone", StartTime: 0, EndTime: 1000},
		{ID: "c2", RecordingID: "offline", StartTime: 1000, EndTime: 2000},
	}
	recordings := map[string]*project.Recording{
		"offline": {ID: "offline", Path: "/media/offline.mp4", Present: false},
	}

	resolved, unresolved := Resolve(clips, recordings)

	if len(resolved) != 0 {
		t.Errorf("resolved = %v, want none", resolved)
	}
	if len(unresolved) != 2 {
		t.Errorf("unresolved = %v, want both clip IDs", unresolved)
	}
}
