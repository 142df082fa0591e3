package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateRecording(ctx context.Context, rec *Recording) error
	GetRecording(ctx context.Context, id string) (*Recording, error)
	GetRecordingByPath(ctx context.Context, path string) (*Recording, error)
	ListRecordings(ctx context.Context) ([]*Recording, error)
	UpdateRecordingPresent(ctx context.Context, id string, present bool) error
	UpdateRecordingProbe(ctx context.Context, id string, durationMS float64, width, height int) error
	CountRecordings(ctx context.Context) (int, error)

	GetClip(ctx context.Context, id string) (*Clip, error)
	ListClips(ctx context.Context, projectID, trackKind string) ([]*Clip, error)
	ListAllClips(ctx context.Context, projectID string) ([]*Clip, error)
	GetEffect(ctx context.Context, id string) (*Effect, error)
	ListEffects(ctx context.Context, projectID, kind string) ([]*Effect, error)
	ListAllEffects(ctx context.Context, projectID string) ([]*Effect, error)

	ApplyCommand(ctx context.Context, forward []Op, cmd *Command) error
	LatestCommand(ctx context.Context, projectID string) (*Command, error)
	ApplyUndo(ctx context.Context, projectID string, ops []Op, seq int64) error

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, frame_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.FrameRate, p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, frame_rate, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	var p Project
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.FrameRate, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, frame_rate, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.FrameRate, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateRecording(ctx context.Context, rec *Recording) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recordings (id, path, display_name, duration_ms, width, height, present, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Path, rec.DisplayName, rec.DurationMS, rec.Width, rec.Height,
		boolToInt(rec.Present), rec.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetRecording(ctx context.Context, id string) (*Recording, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, path, display_name, duration_ms, width, height, present, created_at
		FROM recordings WHERE id = ?
	`, id)
	return r.scanRecording(row)
}

func (r *SQLiteRepository) GetRecordingByPath(ctx context.Context, path string) (*Recording, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, path, display_name, duration_ms, width, height, present, created_at
		FROM recordings WHERE path = ?
	`, path)
	return r.scanRecording(row)
}

func (r *SQLiteRepository) scanRecording(row *sql.Row) (*Recording, error) {
	var rec Recording
	var present int
	var createdAt string

	err := row.Scan(&rec.ID, &rec.Path, &rec.DisplayName, &rec.DurationMS, &rec.Width, &rec.Height, &present, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Present = present == 1
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func (r *SQLiteRepository) ListRecordings(ctx context.Context) ([]*Recording, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, path, display_name, duration_ms, width, height, present, created_at
		FROM recordings ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		var rec Recording
		var present int
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.DisplayName, &rec.DurationMS, &rec.Width, &rec.Height, &present, &createdAt); err != nil {
			return nil, err
		}
		rec.Present = present == 1
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		recordings = append(recordings, &rec)
	}
	return recordings, rows.Err()
}

func (r *SQLiteRepository) UpdateRecordingPresent(ctx context.Context, id string, present bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE recordings SET present = ? WHERE id = ?", boolToInt(present), id)
	return err
}

func (r *SQLiteRepository) UpdateRecordingProbe(ctx context.Context, id string, durationMS float64, width, height int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE recordings SET duration_ms = ?, width = ?, height = ? WHERE id = ?
	`, durationMS, width, height, id)
	return err
}

func (r *SQLiteRepository) CountRecordings(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recordings").Scan(&count)
	return count, err
}

const clipColumns = `id, project_id, track_kind, recording_id, start_time, end_time,
	source_in, source_out, playback_rate, intro_fade_ms, outro_fade_ms, created_at`

func (r *SQLiteRepository) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE id = ?", id)

	var c Clip
	var createdAt string
	err := row.Scan(&c.ID, &c.ProjectID, &c.TrackKind, &c.RecordingID, &c.StartTime, &c.EndTime,
		&c.SourceIn, &c.SourceOut, &c.PlaybackRate, &c.IntroFadeMS, &c.OutroFadeMS, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// ListClips returns the clips on one track ordered by start time, the
// order the placement engine expects its block slices in.
func (r *SQLiteRepository) ListClips(ctx context.Context, projectID, trackKind string) ([]*Clip, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE project_id = ? AND track_kind = ? ORDER BY start_time ASC",
		projectID, trackKind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanClips(rows)
}

func (r *SQLiteRepository) ListAllClips(ctx context.Context, projectID string) ([]*Clip, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+clipColumns+" FROM clips WHERE project_id = ? ORDER BY track_kind, start_time ASC",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanClips(rows)
}

func (r *SQLiteRepository) scanClips(rows *sql.Rows) ([]*Clip, error) {
	var clips []*Clip
	for rows.Next() {
		var c Clip
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.TrackKind, &c.RecordingID, &c.StartTime, &c.EndTime,
			&c.SourceIn, &c.SourceOut, &c.PlaybackRate, &c.IntroFadeMS, &c.OutroFadeMS, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		clips = append(clips, &c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) GetEffect(ctx context.Context, id string) (*Effect, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, kind, start_time, end_time, payload, created_at
		FROM effects WHERE id = ?
	`, id)

	var e Effect
	var createdAt string
	err := row.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.StartTime, &e.EndTime, &e.Payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func (r *SQLiteRepository) ListEffects(ctx context.Context, projectID, kind string) ([]*Effect, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, kind, start_time, end_time, payload, created_at
		FROM effects WHERE project_id = ? AND kind = ? ORDER BY start_time ASC
	`, projectID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanEffects(rows)
}

func (r *SQLiteRepository) ListAllEffects(ctx context.Context, projectID string) ([]*Effect, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, kind, start_time, end_time, payload, created_at
		FROM effects WHERE project_id = ? ORDER BY kind, start_time ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanEffects(rows)
}

func (r *SQLiteRepository) scanEffects(rows *sql.Rows) ([]*Effect, error) {
	var effects []*Effect
	for rows.Next() {
		var e Effect
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.StartTime, &e.EndTime, &e.Payload, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		effects = append(effects, &e)
	}
	return effects, rows.Err()
}

// ApplyCommand applies the forward ops and records the command in one
// transaction. A ripple insert moves every downstream clip together
// with the insert itself; either all of it lands or none of it does.
func (r *SQLiteRepository) ApplyCommand(ctx context.Context, forward []Op, cmd *Command) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, op := range forward {
		if err := applyOp(ctx, tx, op); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commands (id, project_id, type, inverse, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, cmd.ID, cmd.ProjectID, cmd.Type, cmd.Inverse, cmd.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	if err := touchProject(ctx, tx, cmd.ProjectID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) LatestCommand(ctx context.Context, projectID string) (*Command, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT seq, id, project_id, type, inverse, created_at
		FROM commands WHERE project_id = ? ORDER BY seq DESC LIMIT 1
	`, projectID)

	var c Command
	var createdAt string
	err := row.Scan(&c.Seq, &c.ID, &c.ProjectID, &c.Type, &c.Inverse, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// ApplyUndo replays inverse ops and pops the undone command, atomically.
func (r *SQLiteRepository) ApplyUndo(ctx context.Context, projectID string, ops []Op, seq int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, op := range ops {
		if err := applyOp(ctx, tx, op); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM commands WHERE seq = ?", seq); err != nil {
		return err
	}
	if err := touchProject(ctx, tx, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

func applyOp(ctx context.Context, tx *sql.Tx, op Op) error {
	switch op.Op {
	case OpInsertClip:
		c := op.Clip
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clips (`+clipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.ProjectID, c.TrackKind, c.RecordingID, c.StartTime, c.EndTime,
			c.SourceIn, c.SourceOut, c.PlaybackRate, c.IntroFadeMS, c.OutroFadeMS,
			c.CreatedAt.Format(time.RFC3339))
		return err
	case OpDeleteClip:
		_, err := tx.ExecContext(ctx, "DELETE FROM clips WHERE id = ?", op.ClipID)
		return err
	case OpSetClipStart:
		// Both right-hand sides read the pre-update row, so end_time
		// shifts by the same delta as start_time.
		_, err := tx.ExecContext(ctx, `
			UPDATE clips SET end_time = end_time - start_time + ?1, start_time = ?1 WHERE id = ?2
		`, op.Start, op.ClipID)
		return err
	case OpSetClipGeometry:
		g := op.Geometry
		_, err := tx.ExecContext(ctx, `
			UPDATE clips SET start_time = ?, end_time = ?, source_in = ?, source_out = ? WHERE id = ?
		`, g.StartTime, g.EndTime, g.SourceIn, g.SourceOut, op.ClipID)
		return err
	case OpInsertEffect:
		e := op.Effect
		_, err := tx.ExecContext(ctx, `
			INSERT INTO effects (id, project_id, kind, start_time, end_time, payload, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.ProjectID, e.Kind, e.StartTime, e.EndTime, e.Payload, e.CreatedAt.Format(time.RFC3339))
		return err
	case OpDeleteEffect:
		_, err := tx.ExecContext(ctx, "DELETE FROM effects WHERE id = ?", op.EffectID)
		return err
	case OpSetEffectStart:
		_, err := tx.ExecContext(ctx, `
			UPDATE effects SET end_time = end_time - start_time + ?1, start_time = ?1 WHERE id = ?2
		`, op.Start, op.EffectID)
		return err
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
}

func touchProject(ctx context.Context, tx *sql.Tx, projectID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE projects SET updated_at = ? WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), projectID)
	return err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, recording_id, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.RecordingID),
		j.Progress, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, recording_id, progress, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var recordingID, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &recordingID, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.RecordingID = recordingID.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, recording_id, progress, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, recording_id, progress, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var recordingID, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &recordingID, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.RecordingID = recordingID.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
