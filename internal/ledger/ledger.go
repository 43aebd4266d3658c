// Package ledger records runs and produced segments in SQLite so unchanged
// segments can be reused by later runs.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"video-maker/internal/logger"
	"video-maker/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Ledger is the SQLite-backed run history.
type Ledger struct {
	conn *sql.DB
	log  *logger.Logger
}

// RunEntry is one row of the runs table.
type RunEntry struct {
	ID         string
	InputDir   string
	Status     models.RunStatus
	Segments   int
	Reused     int
	BaseVideo  string
	FinalVideo string
	Subtitles  string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration is the wall time of a finished run.
func (r RunEntry) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SegmentEntry is one produced (or reused) segment clip.
type SegmentEntry struct {
	RunID       string
	Key         models.SegmentKey
	Role        models.Role
	Fingerprint string
	Clip        string
	Frames      int
	Duration    time.Duration
	Skipped     bool
	ClipSize    int64 // stat of Clip when recorded
	ClipModTime int64 // unix nanoseconds
}

// Matches reports whether info is the clip file this entry recorded.
func (e SegmentEntry) Matches(info os.FileInfo) bool {
	return !info.IsDir() && info.Size() == e.ClipSize && info.ModTime().UnixNano() == e.ClipModTime
}

// Open creates or opens the ledger at path and applies pending migrations.
func Open(path string, log *logger.Logger) (*Ledger, error) {
	if log == nil {
		log = logger.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	l := &Ledger{conn: conn, log: log}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return l, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if l.isApplied(name) {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := l.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := l.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		l.log.Debug("applied ledger migration %s", name)
	}
	return nil
}

func (l *Ledger) isApplied(name string) bool {
	var exists int
	if err := l.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists); err != nil {
		return false
	}
	var applied int
	err := l.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// MarkInterrupted fails runs left unfinished by a crashed process. Call it
// only while holding the workspace lock.
func (l *Ledger) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := l.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = 'interrupted', finished_at = ? WHERE status NOT IN (?, ?)`,
		models.StatusFailed, time.Now().UTC().Format(timeLayout), models.StatusCompleted, models.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// StartRun inserts run.
func (l *Ledger) StartRun(ctx context.Context, run *models.Run) error {
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO runs (id, input_dir, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.InputDir, run.Status, run.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun stores the final state of run.
func (l *Ledger) FinishRun(ctx context.Context, run *models.Run) error {
	finished := time.Now()
	if run.CompletedAt != nil {
		finished = *run.CompletedAt
	}
	msg := ""
	if run.Error != nil {
		msg = run.Error.Error()
	}
	_, err := l.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, segments = ?, reused = ?, base_video = ?, final_video = ?,
		 subtitles = ?, error = ?, finished_at = ? WHERE id = ?`,
		run.Status, len(run.Segments), run.Reused(), run.BaseVideo, run.Final,
		run.Subtitles, msg, finished.UTC().Format(timeLayout), run.ID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecordSegment upserts the segment entry of a run.
func (l *Ledger) RecordSegment(ctx context.Context, e SegmentEntry) error {
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO segments (run_id, seq, role, fingerprint, clip, frames, duration_ms, skipped, clip_size, clip_mtime)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, seq) DO UPDATE SET role = excluded.role, fingerprint = excluded.fingerprint,
		 clip = excluded.clip, frames = excluded.frames, duration_ms = excluded.duration_ms,
		 skipped = excluded.skipped, clip_size = excluded.clip_size, clip_mtime = excluded.clip_mtime`,
		e.RunID, int(e.Key), e.Role, e.Fingerprint, e.Clip, e.Frames, e.Duration.Milliseconds(), boolInt(e.Skipped),
		e.ClipSize, e.ClipModTime)
	if err != nil {
		return fmt.Errorf("record segment %d: %w", e.Key, err)
	}
	return nil
}

// LastSegment returns the most recent entry that produced or reused clip,
// excluding the run excludeRun. Runs over any input directory count, since
// they share the clip file when they share the work directory.
func (l *Ledger) LastSegment(ctx context.Context, clip string, excludeRun string) (SegmentEntry, bool, error) {
	row := l.conn.QueryRowContext(ctx,
		`SELECT run_id, seq, role, fingerprint, frames, duration_ms, skipped, clip_size, clip_mtime
		 FROM segments WHERE clip = ? AND run_id <> ?
		 ORDER BY rowid DESC LIMIT 1`,
		clip, excludeRun)

	e := SegmentEntry{Clip: clip}
	var key int
	var role string
	var durationMS int64
	var skipped int
	if err := row.Scan(&e.RunID, &key, &role, &e.Fingerprint, &e.Frames, &durationMS, &skipped, &e.ClipSize, &e.ClipModTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SegmentEntry{}, false, nil
		}
		return SegmentEntry{}, false, fmt.Errorf("lookup segment %s: %w", clip, err)
	}
	e.Key = models.SegmentKey(key)
	e.Role = models.Role(role)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.Skipped = skipped == 1
	return e, true, nil
}

// Runs lists the most recent runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.conn.QueryContext(ctx,
		`SELECT id, input_dir, status, segments, reused, base_video, final_video, subtitles, error,
		 started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunEntry
	for rows.Next() {
		var e RunEntry
		var status, started string
		var finished sql.NullString
		if err := rows.Scan(&e.ID, &e.InputDir, &status, &e.Segments, &e.Reused, &e.BaseVideo,
			&e.FinalVideo, &e.Subtitles, &e.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Status = models.RunStatus(status)
		if t, err := time.Parse(timeLayout, started); err == nil {
			e.StartedAt = t
		}
		if finished.Valid {
			if t, err := time.Parse(timeLayout, finished.String); err == nil {
				e.FinishedAt = &t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Segments lists the segment entries of a run in key order.
func (l *Ledger) Segments(ctx context.Context, runID string) ([]SegmentEntry, error) {
	rows, err := l.conn.QueryContext(ctx,
		`SELECT seq, role, fingerprint, clip, frames, duration_ms, skipped, clip_size, clip_mtime
		 FROM segments WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []SegmentEntry
	for rows.Next() {
		e := SegmentEntry{RunID: runID}
		var key int
		var role string
		var durationMS int64
		var skipped int
		if err := rows.Scan(&key, &role, &e.Fingerprint, &e.Clip, &e.Frames, &durationMS, &skipped, &e.ClipSize, &e.ClipModTime); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		e.Key = models.SegmentKey(key)
		e.Role = models.Role(role)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Skipped = skipped == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
