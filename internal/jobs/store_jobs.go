package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribe/internal/services"
)

const jobColumns = "id, filename, bytes, status, backend, language_hint, diarization, language, audio_seconds, chunks, failed_chunks, segments, error_kind, error_message, created_at, updated_at, finished_at"

// Create records a new running job and returns it.
func (s *Store) Create(ctx context.Context, job NewJob) (*Job, error) {
	id := uuid.NewString()
	timestamp := formatTime(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            id, filename, bytes, status, backend, language_hint, diarization, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		nullableString(job.Filename),
		job.Bytes,
		StatusRunning,
		nullableString(job.Backend),
		nullableString(job.LanguageHint),
		nullableString(job.Diarization),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Complete marks a running job as completed with the pipeline outcome.
func (s *Store) Complete(ctx context.Context, id string, outcome Outcome) error {
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, language = ?, audio_seconds = ?, chunks = ?, failed_chunks = ?,
             segments = ?, updated_at = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted,
		nullableString(outcome.Language),
		outcome.AudioSeconds,
		outcome.Chunks,
		outcome.FailedChunks,
		outcome.Segments,
		now,
		now,
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return requireAffected(res, id)
}

// Fail marks a running job as failed, recording the error and its kind.
func (s *Store) Fail(ctx context.Context, id string, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed,
		nullableString(services.Kind(cause)),
		message,
		now,
		now,
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return requireAffected(res, id)
}

// ErrNotRunning is returned when finishing a job that is missing or already finished.
var ErrNotRunning = errors.New("job is not running")

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	}
	return nil
}

// Get fetches a job by id. It returns nil, nil when no job matches.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, strings.TrimSpace(id))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the newest jobs first, filtered by status when any are given.
// A limit of zero or less returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Summary returns job counts grouped by status.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("job summary: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// FailInterrupted marks jobs left running by a previous process as failed.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE status = ?`,
		StatusFailed, "interrupted", InterruptedReason, now, now, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished jobs created before the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status != ? AND created_at < ?`,
		StatusRunning, formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}
