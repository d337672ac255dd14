package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	readings "eiep3-loader/internal/readings/domain"
)

const defaultReadingsTable = "raw_eiep3_meter_readings"

const clockLayout = "15:04:05"

// ReadingRepository is a Postgres implementation of the reading sink.
type ReadingRepository struct {
	db    *sql.DB
	table string
}

// NewReadingRepository constructs a repository with the default table name.
func NewReadingRepository(db *sql.DB, opts ...RepositoryOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReadingRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// BulkInsert writes all readings in one transaction and returns the
// number of rows written.
func (r *ReadingRepository) BulkInsert(ctx context.Context, items []readings.MeterReading) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("readings repo: nil db")
	}
	if len(items) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	file_identifier,
	creation_date,
	creation_time,
	sender_participant_code,
	receiver_participant_code,
	consumption_month,
	icp_identifier,
	meter_serial_number,
	reading_status_flag,
	reading_datetime,
	kwh_consumption,
	kvarh_consumption,
	flow_direction
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var written int64
	for _, item := range items {
		kwh := sql.NullFloat64{}
		if item.KWh != nil {
			kwh = sql.NullFloat64{Float64: *item.KWh, Valid: true}
		}
		kvarh := sql.NullFloat64{}
		if item.KVarh != nil {
			kvarh = sql.NullFloat64{Float64: *item.KVarh, Valid: true}
		}

		if _, err := stmt.ExecContext(
			ctx,
			item.FileID,
			item.CreationDate,
			item.CreationTime.Format(clockLayout),
			item.SenderCode,
			item.ReceiverCode,
			item.ConsumptionMonth,
			item.ICP,
			item.MeterSerial,
			item.StatusFlag,
			item.ReadAt,
			kwh,
			kvarh,
			item.FlowDirection,
		); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}
