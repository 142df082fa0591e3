package project

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reelcut/reelcut-agent/internal/db"
	"github.com/reelcut/reelcut-agent/internal/probe"
)

func setupRunnerTest(t *testing.T, prober probe.Prober) (*Runner, *Service, Repository) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	svc := NewService(repo, prober, 1, nil)
	runner := NewRunner(repo, prober, logger)
	return runner, svc, repo
}

func registerPendingProbe(t *testing.T, svc *Service) (*Recording, *Job) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.mp4")
	if err := os.WriteFile(path, []byte("fake recording"), 0644); err != nil {
		t.Fatalf("failed to create recording file: %v", err)
	}

	rec, job, err := svc.RegisterRecording(context.Background(), path, "")
	if err != nil {
		t.Fatalf("RegisterRecording() error = %v", err)
	}
	return rec, job
}

func TestRunner_ProcessProbeJob(t *testing.T) {
	prober := &fakeProber{info: &probe.MediaInfo{DurationMS: 5000, Width: 1280, Height: 720}}
	runner, svc, repo := setupRunnerTest(t, prober)
	ctx := context.Background()

	rec, job := registerPendingProbe(t, svc)

	runner.processNextJob(ctx)

	done, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if done.Status != JobStatusCompleted {
		t.Errorf("job status = %q, want %q (error: %s)", done.Status, JobStatusCompleted, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("job progress = %d, want 100", done.Progress)
	}

	probed, _ := repo.GetRecording(ctx, rec.ID)
	if probed.DurationMS != 5000 || probed.Width != 1280 || probed.Height != 720 {
		t.Errorf("recording metadata = %+v, want probed values", probed)
	}
}

func TestRunner_ProbeFailureMarksJobFailed(t *testing.T) {
	prober := &fakeProber{err: errors.New("no such stream")}
	runner, svc, repo := setupRunnerTest(t, prober)
	ctx := context.Background()

	_, job := registerPendingProbe(t, svc)

	runner.processNextJob(ctx)

	failed, _ := repo.GetJob(ctx, job.ID)
	if failed.Status != JobStatusFailed {
		t.Errorf("job status = %q, want %q", failed.Status, JobStatusFailed)
	}
	if failed.Error == "" {
		t.Error("failed job has no error message")
	}
}

func TestRunner_UnknownJobType(t *testing.T) {
	runner, _, repo := setupRunnerTest(t, &fakeProber{info: &probe.MediaInfo{}})
	ctx := context.Background()

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      "transcode",
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	runner.processNextJob(ctx)

	failed, _ := repo.GetJob(ctx, job.ID)
	if failed.Status != JobStatusFailed {
		t.Errorf("job status = %q, want %q", failed.Status, JobStatusFailed)
	}
}

func TestRunner_PauseResume(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, &fakeProber{info: &probe.MediaInfo{}})

	if runner.IsPaused() {
		t.Error("runner starts paused")
	}
	runner.Pause()
	if !runner.IsPaused() {
		t.Error("runner not paused after Pause()")
	}
	runner.Resume()
	if runner.IsPaused() {
		t.Error("runner still paused after Resume()")
	}
}

func TestRunner_StartStopsOnContextCancel(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, &fakeProber{info: &probe.MediaInfo{}})
	runner.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	// Give the loop a tick before stopping it.
	time.Sleep(30 * time.Millisecond)
	if !runner.IsRunning() {
		t.Error("runner not running after Start()")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on context cancel")
	}
	if runner.IsRunning() {
		t.Error("runner still marked running after stop")
	}
}
