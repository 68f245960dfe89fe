package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/google/uuid"
)

const importRunColumns = `id, source, filename, started_at, completed_at,
	rows_parsed, rows_skipped, rows_inserted, status, error`

// StartImportRun records the start of an import and returns the run
func (s *Storage) StartImportRun(ctx context.Context, source reconcile.Source, filename string) (*ImportRun, error) {
	run := &ImportRun{
		ID:        uuid.NewString(),
		Source:    source,
		Filename:  filename,
		StartedAt: s.timestamp(),
		Status:    ImportRunning,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, source, filename, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, string(run.Source), run.Filename, run.StartedAt, string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to start import run: %w", err)
	}
	return run, nil
}

// CompleteImportRun records a successful import
func (s *Storage) CompleteImportRun(ctx context.Context, id string, counts ImportCounts) error {
	return s.finishImportRun(ctx, id, ImportCompleted, counts, "")
}

// FailImportRun records a failed import
func (s *Storage) FailImportRun(ctx context.Context, id string, counts ImportCounts, reason string) error {
	return s.finishImportRun(ctx, id, ImportFailed, counts, reason)
}

func (s *Storage) finishImportRun(ctx context.Context, id string, status ImportRunStatus, counts ImportCounts, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_runs
		SET completed_at = ?, rows_parsed = ?, rows_skipped = ?, rows_inserted = ?, status = ?, error = ?
		WHERE id = ?
	`, s.timestamp(), counts.Parsed, counts.Skipped, counts.Inserted, string(status), reason, id)
	if err != nil {
		return fmt.Errorf("failed to finish import run %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("import run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetImportRun retrieves an import run by ID
func (s *Storage) GetImportRun(ctx context.Context, id string) (*ImportRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+importRunColumns+` FROM import_runs WHERE id = ?`, id)
	run, err := scanImportRun(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("import run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import run %s: %w", id, err)
	}
	return run, nil
}

// ListImportRuns returns recent import runs, newest first
func (s *Storage) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+importRunColumns+` FROM import_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}
	defer rows.Close()

	runs := []ImportRun{}
	for rows.Next() {
		run, err := scanImportRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanImportRun(row scanner) (*ImportRun, error) {
	var (
		run            ImportRun
		source, status string
		completedAt    sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&source,
		&run.Filename,
		&run.StartedAt,
		&completedAt,
		&run.RowsParsed,
		&run.RowsSkipped,
		&run.RowsInserted,
		&status,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Source = reconcile.Source(source)
	run.Status = ImportRunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
