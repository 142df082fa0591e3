package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelcut/reelcut-agent/internal/probe"
	"github.com/reelcut/reelcut-agent/internal/timeline"
)

var (
	// ErrOverlap rejects a mutation that would leave two intervals on
	// the same track overlapping.
	ErrOverlap = errors.New("interval overlaps an existing block")
	// ErrNothingToUndo means the project's command log is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
)

type ProjectService interface {
	CreateProject(ctx context.Context, name string, frameRate float64) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjects(ctx context.Context) ([]*Project, error)
	GetTimeline(ctx context.Context, projectID string) (*Timeline, error)

	PreviewPlacement(ctx context.Context, projectID, trackKind string, proposedStart, duration float64, excludeID string) (*timeline.DragProposal, error)
	AddClip(ctx context.Context, params AddClipParams) (*Clip, error)
	MoveClip(ctx context.Context, clipID string, proposedStart float64) (*Clip, error)
	TrimClip(ctx context.Context, clipID string, edge timeline.TrimEdge, newTime float64) (*Clip, error)
	RemoveClip(ctx context.Context, clipID string) error
	AddEffect(ctx context.Context, params AddEffectParams) (*Effect, error)
	MoveEffect(ctx context.Context, effectID string, proposedStart float64) (*Effect, error)
	RemoveEffect(ctx context.Context, effectID string) error
	Undo(ctx context.Context, projectID string) (*Command, error)

	RegisterRecording(ctx context.Context, path, displayName string) (*Recording, *Job, error)
	GetRecording(ctx context.Context, id string) (*Recording, error)
	GetRecordings(ctx context.Context) ([]*Recording, error)
	CountRecordings(ctx context.Context) (int, error)
	MarkRecordingPresent(ctx context.Context, path string, present bool) error
	RefreshRecordings(ctx context.Context) error
}

// Timeline is the full persisted state of one project, grouped the way
// the layout engine consumes it: one slice per track, sorted by start.
type Timeline struct {
	Project    *Project             `json:"project"`
	Clips      map[string][]*Clip   `json:"clips"`
	Effects    map[string][]*Effect `json:"effects"`
	DurationMS float64              `json:"duration_ms"`
}

// TrackStates derives the layout inputs from the timeline's contents.
// The video track always shows; other tracks exist once they hold at
// least one interval.
func (t *Timeline) TrackStates() []timeline.TrackLayoutState {
	states := []timeline.TrackLayoutState{
		{Kind: timeline.TrackVideo, Visible: true, Exists: len(t.Clips[timeline.TrackVideo]) > 0, AlwaysShow: true},
		{Kind: timeline.TrackWebcam, Exists: len(t.Clips[timeline.TrackWebcam]) > 0},
		{Kind: timeline.TrackAudio, Exists: len(t.Clips[timeline.TrackAudio]) > 0},
	}
	for i := 1; i < len(states); i++ {
		states[i].Visible = states[i].Exists
	}
	for _, kind := range []string{timeline.EffectZoom, timeline.EffectCursor, timeline.EffectKeystroke, timeline.EffectWatermark} {
		exists := len(t.Effects[kind]) > 0
		states = append(states, timeline.TrackLayoutState{Kind: kind, Visible: exists, Exists: exists})
	}
	return states
}

type AddClipParams struct {
	ProjectID     string
	TrackKind     string
	RecordingID   string
	ProposedStart float64
	DurationMS    float64
	SourceIn      float64
	PlaybackRate  float64
}

type AddEffectParams struct {
	ProjectID     string
	Kind          string
	ProposedStart float64
	DurationMS    float64
	Payload       []byte
}

type Service struct {
	repo     Repository
	prober   probe.Prober
	parallel int
	logger   *slog.Logger
}

func NewService(repo Repository, prober probe.Prober, parallel int, logger *slog.Logger) *Service {
	if parallel <= 0 {
		parallel = 1
	}
	return &Service{repo: repo, prober: prober, parallel: parallel, logger: logger}
}

func (s *Service) CreateProject(ctx context.Context, name string, frameRate float64) (*Project, error) {
	if name == "" {
		name = "Untitled project"
	}
	if frameRate <= 0 {
		frameRate = 60
	}
	now := time.Now()
	p := &Project{
		ID:        NewID(),
		Name:      name,
		FrameRate: frameRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "name", name)
	}
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) GetProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) GetTimeline(ctx context.Context, projectID string) (*Timeline, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	clips, err := s.repo.ListAllClips(ctx, projectID)
	if err != nil {
		return nil, err
	}
	effects, err := s.repo.ListAllEffects(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{
		Project: p,
		Clips:   make(map[string][]*Clip),
		Effects: make(map[string][]*Effect),
	}
	for _, c := range clips {
		tl.Clips[c.TrackKind] = append(tl.Clips[c.TrackKind], c)
		if c.EndTime > tl.DurationMS {
			tl.DurationMS = c.EndTime
		}
	}
	for _, e := range effects {
		tl.Effects[e.Kind] = append(tl.Effects[e.Kind], e)
		if e.EndTime > tl.DurationMS {
			tl.DurationMS = e.EndTime
		}
	}
	return tl, nil
}

// trackBlocks loads the collision set for one track. Clip tracks and
// effect tracks live in different tables but reduce to the same
// interval slice for the engine.
func (s *Service) trackBlocks(ctx context.Context, projectID, trackKind string) ([]timeline.Interval, error) {
	if ClipTrackKinds[trackKind] {
		clips, err := s.repo.ListClips(ctx, projectID, trackKind)
		if err != nil {
			return nil, err
		}
		blocks := make([]timeline.Interval, len(clips))
		for i, c := range clips {
			blocks[i] = c.Interval()
		}
		return blocks, nil
	}

	effects, err := s.repo.ListEffects(ctx, projectID, trackKind)
	if err != nil {
		return nil, err
	}
	blocks := make([]timeline.Interval, len(effects))
	for i, e := range effects {
		blocks[i] = e.Interval()
	}
	return blocks, nil
}

// PreviewPlacement is the read-only half of a drag: it resolves where
// the interval would land without mutating anything.
func (s *Service) PreviewPlacement(ctx context.Context, projectID, trackKind string, proposedStart, duration float64, excludeID string) (*timeline.DragProposal, error) {
	blocks, err := s.trackBlocks(ctx, projectID, trackKind)
	if err != nil {
		return nil, err
	}

	proposal := &timeline.DragProposal{
		IntervalID: excludeID,
		TrackKind:  trackKind,
		Duration:   duration,
	}
	preview := timeline.ContiguousPreview(blocks, proposedStart, duration, excludeID)
	if preview == nil {
		return proposal, nil
	}
	proposal.ProposedStart = preview.InsertTime
	proposal.Valid = true
	proposal.RippleShifts = preview.StartTimes
	return proposal, nil
}

func (s *Service) AddClip(ctx context.Context, params AddClipParams) (*Clip, error) {
	if !ClipTrackKinds[params.TrackKind] {
		return nil, fmt.Errorf("unknown track kind %q", params.TrackKind)
	}

	rec, err := s.repo.GetRecording(ctx, params.RecordingID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("recording not found")
	}

	duration := params.DurationMS
	if duration <= 0 {
		duration = rec.DurationMS - params.SourceIn
	}
	if duration < timeline.MinClipDurationMS {
		return nil, fmt.Errorf("clip duration %.1fms below minimum", duration)
	}

	blocks, err := s.trackBlocks(ctx, params.ProjectID, params.TrackKind)
	if err != nil {
		return nil, err
	}
	preview := timeline.ContiguousPreview(blocks, params.ProposedStart, duration, "")
	if preview == nil {
		return nil, fmt.Errorf("degenerate clip duration")
	}

	rate := params.PlaybackRate
	if rate <= 0 {
		rate = 1.0
	}
	clip := &Clip{
		ID:           NewID(),
		ProjectID:    params.ProjectID,
		TrackKind:    params.TrackKind,
		RecordingID:  params.RecordingID,
		StartTime:    preview.InsertTime,
		EndTime:      preview.InsertTime + duration,
		SourceIn:     params.SourceIn,
		SourceOut:    params.SourceIn + duration,
		PlaybackRate: rate,
		CreatedAt:    time.Now(),
	}

	forward := []Op{{Op: OpInsertClip, Clip: clip}}
	inverse := []Op{{Op: OpDeleteClip, ClipID: clip.ID}}
	forward, inverse = appendShiftOps(forward, inverse, blocks, preview.StartTimes, OpSetClipStart)

	if err := s.commit(ctx, params.ProjectID, CommandAddInterval, forward, inverse); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("clip added", "project_id", params.ProjectID, "clip_id", clip.ID,
			"track", params.TrackKind, "start", clip.StartTime, "rippled", preview.Rippled)
	}
	return clip, nil
}

func (s *Service) MoveClip(ctx context.Context, clipID string, proposedStart float64) (*Clip, error) {
	clip, err := s.repo.GetClip(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, fmt.Errorf("clip not found")
	}

	blocks, err := s.trackBlocks(ctx, clip.ProjectID, clip.TrackKind)
	if err != nil {
		return nil, err
	}
	preview := timeline.ContiguousPreview(blocks, proposedStart, clip.Duration(), clip.ID)
	if preview == nil {
		return nil, fmt.Errorf("degenerate clip duration")
	}
	if preview.InsertTime == clip.StartTime && !preview.Rippled {
		return clip, nil
	}

	forward := []Op{{Op: OpSetClipStart, ClipID: clip.ID, Start: preview.InsertTime}}
	inverse := []Op{{Op: OpSetClipStart, ClipID: clip.ID, Start: clip.StartTime}}
	forward, inverse = appendShiftOps(forward, inverse, blocks, preview.StartTimes, OpSetClipStart)

	if err := s.commit(ctx, clip.ProjectID, CommandMoveInterval, forward, inverse); err != nil {
		return nil, err
	}

	clip.EndTime = preview.InsertTime + clip.Duration()
	clip.StartTime = preview.InsertTime
	return clip, nil
}

func (s *Service) TrimClip(ctx context.Context, clipID string, edge timeline.TrimEdge, newTime float64) (*Clip, error) {
	clip, err := s.repo.GetClip(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, fmt.Errorf("clip not found")
	}

	siblings, err := s.repo.ListClips(ctx, clip.ProjectID, clip.TrackKind)
	if err != nil {
		return nil, err
	}
	prev, next := neighbors(siblings, clip)

	result := timeline.Trim(clip.Engine(), edge, newTime, prev, next)
	if result == nil {
		return nil, fmt.Errorf("clip cannot be trimmed")
	}

	oldGeom := &ClipGeometry{StartTime: clip.StartTime, EndTime: clip.EndTime, SourceIn: clip.SourceIn, SourceOut: clip.SourceOut}
	newGeom := &ClipGeometry{
		StartTime: result.StartTime,
		EndTime:   result.StartTime + result.Duration,
		SourceIn:  result.SourceIn,
		SourceOut: result.SourceOut,
	}
	if *newGeom == *oldGeom {
		return clip, nil
	}

	forward := []Op{{Op: OpSetClipGeometry, ClipID: clip.ID, Geometry: newGeom}}
	inverse := []Op{{Op: OpSetClipGeometry, ClipID: clip.ID, Geometry: oldGeom}}
	if err := s.commit(ctx, clip.ProjectID, CommandTrimInterval, forward, inverse); err != nil {
		return nil, err
	}

	clip.StartTime = newGeom.StartTime
	clip.EndTime = newGeom.EndTime
	clip.SourceIn = newGeom.SourceIn
	clip.SourceOut = newGeom.SourceOut
	return clip, nil
}

func (s *Service) RemoveClip(ctx context.Context, clipID string) error {
	clip, err := s.repo.GetClip(ctx, clipID)
	if err != nil {
		return err
	}
	if clip == nil {
		return fmt.Errorf("clip not found")
	}

	forward := []Op{{Op: OpDeleteClip, ClipID: clip.ID}}
	inverse := []Op{{Op: OpInsertClip, Clip: clip}}
	return s.commit(ctx, clip.ProjectID, CommandRemoveInterval, forward, inverse)
}

func (s *Service) AddEffect(ctx context.Context, params AddEffectParams) (*Effect, error) {
	if params.Kind == "" || ClipTrackKinds[params.Kind] {
		return nil, fmt.Errorf("invalid effect kind %q", params.Kind)
	}
	if params.DurationMS <= 0 {
		return nil, fmt.Errorf("degenerate effect duration")
	}

	blocks, err := s.trackBlocks(ctx, params.ProjectID, params.Kind)
	if err != nil {
		return nil, err
	}
	preview := timeline.ContiguousPreview(blocks, params.ProposedStart, params.DurationMS, "")
	if preview == nil {
		return nil, fmt.Errorf("degenerate effect duration")
	}

	effect := &Effect{
		ID:        NewID(),
		ProjectID: params.ProjectID,
		Kind:      params.Kind,
		StartTime: preview.InsertTime,
		EndTime:   preview.InsertTime + params.DurationMS,
		Payload:   params.Payload,
		CreatedAt: time.Now(),
	}

	forward := []Op{{Op: OpInsertEffect, Effect: effect}}
	inverse := []Op{{Op: OpDeleteEffect, EffectID: effect.ID}}
	forward, inverse = appendShiftOps(forward, inverse, blocks, preview.StartTimes, OpSetEffectStart)

	if err := s.commit(ctx, params.ProjectID, CommandAddInterval, forward, inverse); err != nil {
		return nil, err
	}
	return effect, nil
}

// MoveEffect repositions an effect without rippling: the candidate
// position must be legal as-is or the move is rejected.
func (s *Service) MoveEffect(ctx context.Context, effectID string, proposedStart float64) (*Effect, error) {
	effect, err := s.repo.GetEffect(ctx, effectID)
	if err != nil {
		return nil, err
	}
	if effect == nil {
		return nil, fmt.Errorf("effect not found")
	}

	blocks, err := s.trackBlocks(ctx, effect.ProjectID, effect.Kind)
	if err != nil {
		return nil, err
	}
	duration := effect.EndTime - effect.StartTime
	check := timeline.ValidatePosition(proposedStart, duration, blocks, effect.ID, false)
	if !check.Valid {
		if check.Reason == timeline.ReasonOverlap {
			return nil, ErrOverlap
		}
		return nil, fmt.Errorf("invalid position: %s", check.Reason)
	}
	if proposedStart == effect.StartTime {
		return effect, nil
	}

	forward := []Op{{Op: OpSetEffectStart, EffectID: effect.ID, Start: proposedStart}}
	inverse := []Op{{Op: OpSetEffectStart, EffectID: effect.ID, Start: effect.StartTime}}
	if err := s.commit(ctx, effect.ProjectID, CommandMoveInterval, forward, inverse); err != nil {
		return nil, err
	}

	effect.EndTime = proposedStart + duration
	effect.StartTime = proposedStart
	return effect, nil
}

func (s *Service) RemoveEffect(ctx context.Context, effectID string) error {
	effect, err := s.repo.GetEffect(ctx, effectID)
	if err != nil {
		return err
	}
	if effect == nil {
		return fmt.Errorf("effect not found")
	}

	forward := []Op{{Op: OpDeleteEffect, EffectID: effect.ID}}
	inverse := []Op{{Op: OpInsertEffect, Effect: effect}}
	return s.commit(ctx, effect.ProjectID, CommandRemoveInterval, forward, inverse)
}

// Undo pops the latest command and replays its inverse ops atomically.
func (s *Service) Undo(ctx context.Context, projectID string) (*Command, error) {
	cmd, err := s.repo.LatestCommand(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, ErrNothingToUndo
	}

	var ops []Op
	if err := json.Unmarshal([]byte(cmd.Inverse), &ops); err != nil {
		return nil, fmt.Errorf("corrupt inverse for command %s: %w", cmd.ID, err)
	}
	if err := s.repo.ApplyUndo(ctx, projectID, ops, cmd.Seq); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("command undone", "project_id", projectID, "command_id", cmd.ID, "type", cmd.Type)
	}
	return cmd, nil
}

// commit serializes the inverse ops and hands forward+command to the
// repository as one transaction.
func (s *Service) commit(ctx context.Context, projectID, cmdType string, forward, inverse []Op) error {
	inverseJSON, err := json.Marshal(inverse)
	if err != nil {
		return err
	}
	cmd := &Command{
		ID:        NewID(),
		ProjectID: projectID,
		Type:      cmdType,
		Inverse:   string(inverseJSON),
		CreatedAt: time.Now(),
	}
	return s.repo.ApplyCommand(ctx, forward, cmd)
}

// appendShiftOps extends a forward/inverse op pair with the ripple
// shifts from a placement preview. The inverse records each shifted
// block's original start so undo restores it exactly.
func appendShiftOps(forward, inverse []Op, blocks []timeline.Interval, shifts map[string]float64, opName string) ([]Op, []Op) {
	if len(shifts) == 0 {
		return forward, inverse
	}
	original := make(map[string]float64, len(blocks))
	for _, b := range blocks {
		original[b.ID] = b.Start
	}
	for id, newStart := range shifts {
		op := Op{Op: opName, Start: newStart}
		inv := Op{Op: opName, Start: original[id]}
		if opName == OpSetEffectStart {
			op.EffectID, inv.EffectID = id, id
		} else {
			op.ClipID, inv.ClipID = id, id
		}
		forward = append(forward, op)
		inverse = append(inverse, inv)
	}
	return forward, inverse
}

// neighbors finds the intervals flanking c on its track. siblings must
// be sorted by start time.
func neighbors(siblings []*Clip, c *Clip) (prev, next *timeline.Interval) {
	for i, sib := range siblings {
		if sib.ID != c.ID {
			continue
		}
		if i > 0 {
			iv := siblings[i-1].Interval()
			prev = &iv
		}
		if i < len(siblings)-1 {
			iv := siblings[i+1].Interval()
			next = &iv
		}
		return prev, next
	}
	return nil, nil
}

func (s *Service) RegisterRecording(ctx context.Context, path, displayName string) (*Recording, *Job, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, nil, fmt.Errorf("recording does not exist: %w", err)
	}

	existing, err := s.repo.GetRecordingByPath(ctx, absPath)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return existing, nil, nil
	}

	if displayName == "" {
		displayName = filepath.Base(absPath)
	}

	rec := &Recording{
		ID:          NewID(),
		Path:        absPath,
		DisplayName: displayName,
		Present:     true,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateRecording(ctx, rec); err != nil {
		return nil, nil, err
	}

	job, err := s.createProbeJob(ctx, rec.ID)
	if err != nil {
		return nil, nil, err
	}

	if s.logger != nil {
		s.logger.Info("recording registered", "recording_id", rec.ID, "path", absPath, "job_id", job.ID)
	}
	return rec, job, nil
}

func (s *Service) createProbeJob(ctx context.Context, recordingID string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:          NewID(),
		Type:        JobTypeProbe,
		Status:      JobStatusPending,
		RecordingID: recordingID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) GetRecording(ctx context.Context, id string) (*Recording, error) {
	return s.repo.GetRecording(ctx, id)
}

func (s *Service) GetRecordings(ctx context.Context) ([]*Recording, error) {
	return s.repo.ListRecordings(ctx)
}

func (s *Service) CountRecordings(ctx context.Context) (int, error) {
	return s.repo.CountRecordings(ctx)
}

// MarkRecordingPresent flips the present flag for the recording at
// path. Called by the watcher when media appears or disappears.
func (s *Service) MarkRecordingPresent(ctx context.Context, path string, present bool) error {
	rec, err := s.repo.GetRecordingByPath(ctx, path)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if rec.Present == present {
		return nil
	}
	if err := s.repo.UpdateRecordingPresent(ctx, rec.ID, present); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("recording presence changed", "recording_id", rec.ID, "present", present)
	}
	return nil
}

// RefreshRecordings re-probes every present recording concurrently,
// bounded by the configured parallelism.
func (s *Service) RefreshRecordings(ctx context.Context) error {
	recordings, err := s.repo.ListRecordings(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for _, rec := range recordings {
		if !rec.Present {
			continue
		}
		rec := rec
		g.Go(func() error {
			info, err := s.prober.Probe(gctx, rec.Path)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("re-probe failed", "recording_id", rec.ID, "error", err)
				}
				return nil
			}
			return s.repo.UpdateRecordingProbe(gctx, rec.ID, info.DurationMS, info.Width, info.Height)
		})
	}
	return g.Wait()
}
