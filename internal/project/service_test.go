package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reelcut/reelcut-agent/internal/db"
	"github.com/reelcut/reelcut-agent/internal/probe"
	"github.com/reelcut/reelcut-agent/internal/timeline"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

type fakeProber struct {
	info *probe.MediaInfo
	err  error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*probe.MediaInfo, error) {
	return p.info, p.err
}

func newTestService(t *testing.T) (*Service, Repository) {
	database, repo := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	prober := &fakeProber{info: &probe.MediaInfo{DurationMS: 60000, Width: 1920, Height: 1080}}
	return NewService(repo, prober, 2, nil), repo
}

// newTestRecording registers a recording backed by a real temp file and
// gives it probed metadata so clips can reference it.
func newTestRecording(t *testing.T, svc *Service, repo Repository) *Recording {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "capture.mp4")
	if err := os.WriteFile(path, []byte("fake recording"), 0644); err != nil {
		t.Fatalf("failed to create recording file: %v", err)
	}

	rec, _, err := svc.RegisterRecording(ctx, path, "Capture")
	if err != nil {
		t.Fatalf("RegisterRecording() error = %v", err)
	}
	if err := repo.UpdateRecordingProbe(ctx, rec.ID, 60000, 1920, 1080); err != nil {
		t.Fatalf("UpdateRecordingProbe() error = %v", err)
	}
	rec.DurationMS = 60000
	return rec
}

func addClip(t *testing.T, svc *Service, projectID, recID string, start, duration float64) *Clip {
	t.Helper()
	clip, err := svc.AddClip(context.Background(), AddClipParams{
		ProjectID:     projectID,
		TrackKind:     timeline.TrackVideo,
		RecordingID:   recID,
		ProposedStart: start,
		DurationMS:    duration,
	})
	if err != nil {
		t.Fatalf("AddClip(start=%v) error = %v", start, err)
	}
	return clip
}

func TestService_CreateProject_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.CreateProject(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.Name != "Untitled project" {
		t.Errorf("p.Name = %q, want Untitled project", p.Name)
	}
	if p.FrameRate != 60 {
		t.Errorf("p.FrameRate = %v, want 60", p.FrameRate)
	}
}

func TestService_RegisterRecording(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "demo.mp4")
	os.WriteFile(path, []byte("content"), 0644)

	rec, job, err := svc.RegisterRecording(ctx, path, "")
	if err != nil {
		t.Fatalf("RegisterRecording() error = %v", err)
	}
	if rec.DisplayName != "demo.mp4" {
		t.Errorf("rec.DisplayName = %q, want demo.mp4", rec.DisplayName)
	}
	if !rec.Present {
		t.Error("rec.Present = false, want true")
	}
	if job == nil || job.Type != JobTypeProbe {
		t.Fatalf("expected a pending probe job, got %+v", job)
	}

	// Registering the same path again returns the existing recording
	// without a new job.
	again, job2, err := svc.RegisterRecording(ctx, path, "")
	if err != nil {
		t.Fatalf("RegisterRecording() second call error = %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("second registration returned %s, want %s", again.ID, rec.ID)
	}
	if job2 != nil {
		t.Errorf("second registration created job %+v, want nil", job2)
	}
}

func TestService_RegisterRecording_MissingFile(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.RegisterRecording(context.Background(), "/nonexistent/clip.mp4", "")
	if err == nil {
		t.Error("RegisterRecording() should fail for a missing file")
	}
}

func TestService_AddClip_ExactFit(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	a := addClip(t, svc, p.ID, rec.ID, 0, 1000)
	if a.StartTime != 0 || a.EndTime != 1000 {
		t.Errorf("clip a = [%v,%v), want [0,1000)", a.StartTime, a.EndTime)
	}

	// The track is occupied through 1000ms, so a drop targeting 500
	// lands flush after the existing clip.
	b := addClip(t, svc, p.ID, rec.ID, 500, 1000)
	if b.StartTime != 1000 {
		t.Errorf("clip b start = %v, want 1000", b.StartTime)
	}
}

func TestService_AddClip_RippleShiftsDownstream(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	addClip(t, svc, p.ID, rec.ID, 0, 1000)
	b := addClip(t, svc, p.ID, rec.ID, 1500, 1000)

	// The interior gap [1000,1500) is too narrow for 1000ms: the new
	// clip anchors at 1000 and b ripples forward by the missing 500.
	c := addClip(t, svc, p.ID, rec.ID, 1100, 1000)
	if c.StartTime != 1000 || c.EndTime != 2000 {
		t.Errorf("clip c = [%v,%v), want [1000,2000)", c.StartTime, c.EndTime)
	}

	shifted, err := repo.GetClip(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetClip() error = %v", err)
	}
	if shifted.StartTime != 2000 || shifted.EndTime != 3000 {
		t.Errorf("clip b after ripple = [%v,%v), want [2000,3000)", shifted.StartTime, shifted.EndTime)
	}
}

func TestService_Undo_RestoresRippledStarts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	addClip(t, svc, p.ID, rec.ID, 0, 1000)
	b := addClip(t, svc, p.ID, rec.ID, 1500, 1000)
	c := addClip(t, svc, p.ID, rec.ID, 1100, 1000)

	cmd, err := svc.Undo(ctx, p.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if cmd.Type != CommandAddInterval {
		t.Errorf("undone command type = %q, want %q", cmd.Type, CommandAddInterval)
	}

	if got, _ := repo.GetClip(ctx, c.ID); got != nil {
		t.Error("rippling insert still present after undo")
	}
	restored, _ := repo.GetClip(ctx, b.ID)
	if restored.StartTime != 1500 {
		t.Errorf("clip b start after undo = %v, want 1500", restored.StartTime)
	}
}

func TestService_Undo_EmptyLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)

	_, err := svc.Undo(ctx, p.ID)
	if !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
}

func TestService_MoveClip(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	a := addClip(t, svc, p.ID, rec.ID, 0, 1000)
	addClip(t, svc, p.ID, rec.ID, 1000, 1000)

	moved, err := svc.MoveClip(ctx, a.ID, 3000)
	if err != nil {
		t.Fatalf("MoveClip() error = %v", err)
	}
	if moved.StartTime != 3000 || moved.EndTime != 4000 {
		t.Errorf("moved clip = [%v,%v), want [3000,4000)", moved.StartTime, moved.EndTime)
	}

	// Moving back undoes cleanly.
	if _, err := svc.Undo(ctx, p.ID); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	restored, _ := repo.GetClip(ctx, a.ID)
	if restored.StartTime != 0 {
		t.Errorf("clip a start after undo = %v, want 0", restored.StartTime)
	}
}

func TestService_TrimClip_StartEdge(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	a := addClip(t, svc, p.ID, rec.ID, 1000, 1000)

	trimmed, err := svc.TrimClip(ctx, a.ID, timeline.TrimStart, 1200)
	if err != nil {
		t.Fatalf("TrimClip() error = %v", err)
	}
	if trimmed.StartTime != 1200 || trimmed.EndTime != 2000 {
		t.Errorf("trimmed clip = [%v,%v), want [1200,2000)", trimmed.StartTime, trimmed.EndTime)
	}
	if trimmed.SourceIn != 200 {
		t.Errorf("trimmed.SourceIn = %v, want 200", trimmed.SourceIn)
	}

	// Trim against the left neighbor never crosses it.
	b := addClip(t, svc, p.ID, rec.ID, 0, 1100)
	trimmed, err = svc.TrimClip(ctx, a.ID, timeline.TrimStart, 100)
	if err != nil {
		t.Fatalf("TrimClip() with neighbor error = %v", err)
	}
	if trimmed.StartTime != b.EndTime {
		t.Errorf("trim past neighbor: start = %v, want %v", trimmed.StartTime, b.EndTime)
	}
	if trimmed.SourceIn != 100 {
		t.Errorf("trimmed.SourceIn = %v, want 100", trimmed.SourceIn)
	}
}

func TestService_RemoveClip_Undoable(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)
	a := addClip(t, svc, p.ID, rec.ID, 0, 1000)

	if err := svc.RemoveClip(ctx, a.ID); err != nil {
		t.Fatalf("RemoveClip() error = %v", err)
	}
	if got, _ := repo.GetClip(ctx, a.ID); got != nil {
		t.Fatal("clip still present after removal")
	}

	if _, err := svc.Undo(ctx, p.ID); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	restored, _ := repo.GetClip(ctx, a.ID)
	if restored == nil {
		t.Fatal("clip not restored by undo")
	}
	if restored.StartTime != 0 || restored.EndTime != 1000 || restored.SourceOut != 1000 {
		t.Errorf("restored clip = %+v, want original geometry", restored)
	}
}

func TestService_MoveEffect_RejectsOverlap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)

	a, err := svc.AddEffect(ctx, AddEffectParams{
		ProjectID: p.ID, Kind: timeline.EffectZoom, ProposedStart: 0, DurationMS: 500,
	})
	if err != nil {
		t.Fatalf("AddEffect() error = %v", err)
	}
	if _, err := svc.AddEffect(ctx, AddEffectParams{
		ProjectID: p.ID, Kind: timeline.EffectZoom, ProposedStart: 1000, DurationMS: 500,
	}); err != nil {
		t.Fatalf("AddEffect() error = %v", err)
	}

	_, err = svc.MoveEffect(ctx, a.ID, 800)
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("MoveEffect() onto occupied span: error = %v, want ErrOverlap", err)
	}

	moved, err := svc.MoveEffect(ctx, a.ID, 400)
	if err != nil {
		t.Fatalf("MoveEffect() to free span error = %v", err)
	}
	if moved.StartTime != 400 || moved.EndTime != 900 {
		t.Errorf("moved effect = [%v,%v), want [400,900)", moved.StartTime, moved.EndTime)
	}
}

func TestService_PreviewPlacement_DoesNotMutate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)

	addClip(t, svc, p.ID, rec.ID, 0, 1000)
	b := addClip(t, svc, p.ID, rec.ID, 1500, 1000)

	proposal, err := svc.PreviewPlacement(ctx, p.ID, timeline.TrackVideo, 1100, 1000, "")
	if err != nil {
		t.Fatalf("PreviewPlacement() error = %v", err)
	}
	if !proposal.Valid {
		t.Fatal("proposal.Valid = false, want true")
	}
	if proposal.ProposedStart != 1000 {
		t.Errorf("proposal.ProposedStart = %v, want 1000", proposal.ProposedStart)
	}
	if got := proposal.RippleShifts[b.ID]; got != 2000 {
		t.Errorf("proposal shifts b to %v, want 2000", got)
	}

	// Preview is read-only: b stays where it was.
	unchanged, _ := repo.GetClip(ctx, b.ID)
	if unchanged.StartTime != 1500 {
		t.Errorf("clip b moved by preview: start = %v, want 1500", unchanged.StartTime)
	}
}

func TestService_MarkRecordingPresent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	rec := newTestRecording(t, svc, repo)

	if err := svc.MarkRecordingPresent(ctx, rec.Path, false); err != nil {
		t.Fatalf("MarkRecordingPresent() error = %v", err)
	}
	got, _ := repo.GetRecording(ctx, rec.ID)
	if got.Present {
		t.Error("recording still present after unmark")
	}

	// Unknown paths are ignored.
	if err := svc.MarkRecordingPresent(ctx, "/not/registered.mp4", false); err != nil {
		t.Errorf("MarkRecordingPresent() for unknown path error = %v", err)
	}
}

func TestService_RefreshRecordings(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	rec := newTestRecording(t, svc, repo)
	if err := repo.UpdateRecordingProbe(ctx, rec.ID, 1, 0, 0); err != nil {
		t.Fatalf("UpdateRecordingProbe() error = %v", err)
	}

	if err := svc.RefreshRecordings(ctx); err != nil {
		t.Fatalf("RefreshRecordings() error = %v", err)
	}
	got, _ := repo.GetRecording(ctx, rec.ID)
	if got.DurationMS != 60000 || got.Width != 1920 {
		t.Errorf("refreshed recording = %+v, want probed metadata", got)
	}
}

func TestTimeline_TrackStates(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, _ := svc.CreateProject(ctx, "demo", 60)
	rec := newTestRecording(t, svc, repo)
	addClip(t, svc, p.ID, rec.ID, 0, 1000)
	if _, err := svc.AddEffect(ctx, AddEffectParams{
		ProjectID: p.ID, Kind: timeline.EffectZoom, ProposedStart: 0, DurationMS: 500,
	}); err != nil {
		t.Fatalf("AddEffect() error = %v", err)
	}

	tl, err := svc.GetTimeline(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetTimeline() error = %v", err)
	}
	if tl.DurationMS != 1000 {
		t.Errorf("timeline duration = %v, want 1000", tl.DurationMS)
	}

	byKind := map[string]timeline.TrackLayoutState{}
	for _, s := range tl.TrackStates() {
		byKind[s.Kind] = s
	}
	if !byKind[timeline.TrackVideo].Visible {
		t.Error("video track not visible")
	}
	if byKind[timeline.TrackAudio].Visible {
		t.Error("empty audio track visible")
	}
	if !byKind[timeline.EffectZoom].Visible {
		t.Error("populated zoom track not visible")
	}
}
