package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	readings "eiep3-loader/internal/readings/domain"
)

const defaultRunsTable = "eiep3_load_runs"

// RunRepository persists load-run history.
type RunRepository struct {
	db    *sql.DB
	table string
}

// NewRunRepository constructs a run repository with the default table name.
func NewRunRepository(db *sql.DB, opts ...RunOption) *RunRepository {
	repo := &RunRepository{db: db, table: defaultRunsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RunOption configures the run repository.
type RunOption func(*RunRepository)

// WithRunsTable overrides the default table name.
func WithRunsTable(table string) RunOption {
	return func(repo *RunRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// InsertRun records the outcome of one load run.
func (r *RunRepository) InsertRun(ctx context.Context, run readings.LoadRun) error {
	if r == nil || r.db == nil {
		return errors.New("run repo: nil db")
	}
	if run.Status == "" || run.StartedAt.IsZero() {
		return errors.New("run repo: invalid run")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	file_identifier,
	records,
	rows_written,
	status,
	detail,
	started_at,
	finished_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.FileID,
		run.Records,
		run.RowsWritten,
		run.Status,
		run.Detail,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// LatestForFile returns the most recent run recorded for one file.
func (r *RunRepository) LatestForFile(ctx context.Context, fileID string) (readings.LoadRun, error) {
	if r == nil || r.db == nil {
		return readings.LoadRun{}, errors.New("run repo: nil db")
	}
	if fileID == "" {
		return readings.LoadRun{}, errors.New("run repo: file id required")
	}

	query := fmt.Sprintf(`
SELECT file_identifier,
	records,
	rows_written,
	status,
	detail,
	started_at,
	finished_at
FROM %s
WHERE file_identifier = $1
ORDER BY started_at DESC
LIMIT 1`, r.table)

	var run readings.LoadRun
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(
		&run.FileID,
		&run.Records,
		&run.RowsWritten,
		&run.Status,
		&run.Detail,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return readings.LoadRun{}, err
	}
	return run, nil
}

// ListRecent returns the most recent load runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]readings.LoadRun, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("run repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
SELECT file_identifier,
	records,
	rows_written,
	status,
	detail,
	started_at,
	finished_at
FROM %s
ORDER BY started_at DESC
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []readings.LoadRun
	for rows.Next() {
		var run readings.LoadRun
		if err := rows.Scan(
			&run.FileID,
			&run.Records,
			&run.RowsWritten,
			&run.Status,
			&run.Detail,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
