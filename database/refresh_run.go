package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type RefreshRunRow struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Succeeded   bool
	RecordCount int
	SkippedRows int
	Error       sql.NullString
}

func (d *Database) SaveRefreshRun(ctx context.Context, r RefreshRunRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO refresh_run (started_at, finished_at, succeeded, record_count, skipped_rows, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.Succeeded,
		r.RecordCount,
		r.SkippedRows,
		r.Error)
	if err != nil {
		return fmt.Errorf("saving refresh run: %w", err)
	}
	return nil
}

func (d *Database) GetRefreshRuns(ctx context.Context, limit int) ([]RefreshRunRow, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, record_count, skipped_rows, error
		FROM refresh_run
		ORDER BY id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("fetching refresh runs: %w", err)
	}
	defer rows.Close()

	var runs []RefreshRunRow
	for rows.Next() {
		var r RefreshRunRow
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Succeeded, &r.RecordCount, &r.SkippedRows, &r.Error); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetLastSuccessfulRefresh returns the most recent succeeded run, or a zero
// row and sql.ErrNoRows when no refresh has succeeded yet.
func (d *Database) GetLastSuccessfulRefresh(ctx context.Context) (RefreshRunRow, error) {
	row := d.read.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, record_count, skipped_rows, error
		FROM refresh_run
		WHERE succeeded = 1
		ORDER BY id DESC
		LIMIT 1`)

	var r RefreshRunRow
	var started, finished string
	err := row.Scan(&r.ID, &started, &finished, &r.Succeeded, &r.RecordCount, &r.SkippedRows, &r.Error)
	if err != nil {
		return RefreshRunRow{}, err
	}
	if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
		return RefreshRunRow{}, fmt.Errorf("parsing started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
		return RefreshRunRow{}, fmt.Errorf("parsing finished_at: %w", err)
	}

	return r, nil
}

func (d *Database) PurgeRefreshRuns(ctx context.Context, maxEntries int) error {
	d.logger.Debug("purging refresh_run")
	_, err := d.write.ExecContext(ctx, `
		DELETE FROM refresh_run WHERE id <= (SELECT id FROM refresh_run ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		maxEntries)
	if err != nil {
		return fmt.Errorf("purging refresh_run: %w", err)
	}
	return nil
}
