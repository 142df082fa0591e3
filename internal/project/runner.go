package project

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/reelcut/reelcut-agent/internal/probe"
)

// Runner drains pending background jobs on a poll loop. Probe jobs are
// the only job type today; the loop and status handling are generic.
type Runner struct {
	repo         Repository
	prober       probe.Prober
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo Repository, prober probe.Prober, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		prober:       prober,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeProbe:
		r.processProbeJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processProbeJob(ctx context.Context, job *Job) {
	if r.prober == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "prober not configured")
		return
	}

	rec, err := r.repo.GetRecording(ctx, job.RecordingID)
	if err != nil || rec == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "recording not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	info, err := r.prober.Probe(ctx, rec.Path)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("probe error: %v", err))
		return
	}

	if err := r.repo.UpdateRecordingProbe(ctx, rec.ID, info.DurationMS, info.Width, info.Height); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot store probe result: %v", err))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("probe job completed", "job_id", job.ID, "recording_id", rec.ID,
		"duration_ms", info.DurationMS, "width", info.Width, "height", info.Height)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
