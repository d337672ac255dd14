package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	readings "eiep3-loader/internal/readings/domain"
)

// ReadingQuery reads stored meter readings.
type ReadingQuery struct {
	db    *sql.DB
	table string
}

// NewReadingQuery constructs a query with the default table name.
func NewReadingQuery(db *sql.DB, opts ...QueryOption) *ReadingQuery {
	query := &ReadingQuery{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// QueryOption configures the query.
type QueryOption func(*ReadingQuery)

// WithQueryTable overrides the default table name.
func WithQueryTable(table string) QueryOption {
	return func(query *ReadingQuery) {
		if table != "" {
			query.table = table
		}
	}
}

// QueryICP returns readings for one ICP within [from, to), ordered by
// reading time.
func (q *ReadingQuery) QueryICP(ctx context.Context, icp string, from, to time.Time) ([]readings.MeterReading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("readings query: nil db")
	}
	if icp == "" || from.IsZero() || to.IsZero() {
		return nil, errors.New("readings query: invalid arguments")
	}

	query := fmt.Sprintf(selectColumns+`
FROM %s
WHERE icp_identifier = $1
	AND reading_datetime >= $2
	AND reading_datetime < $3
ORDER BY reading_datetime ASC`, q.table)

	rows, err := q.db.QueryContext(ctx, query, icp, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

// ListFile returns every reading loaded from one file, ordered by ICP
// and reading time.
func (q *ReadingQuery) ListFile(ctx context.Context, fileID string) ([]readings.MeterReading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("readings query: nil db")
	}
	if fileID == "" {
		return nil, errors.New("readings query: file id required")
	}

	query := fmt.Sprintf(selectColumns+`
FROM %s
WHERE file_identifier = $1
ORDER BY icp_identifier ASC, reading_datetime ASC`, q.table)

	rows, err := q.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

const selectColumns = `
SELECT file_identifier,
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
	flow_direction`

func scanReadings(rows *sql.Rows) ([]readings.MeterReading, error) {
	var result []readings.MeterReading
	for rows.Next() {
		var item readings.MeterReading
		var creationTime string
		var kwh, kvarh sql.NullFloat64

		if err := rows.Scan(
			&item.FileID,
			&item.CreationDate,
			&creationTime,
			&item.SenderCode,
			&item.ReceiverCode,
			&item.ConsumptionMonth,
			&item.ICP,
			&item.MeterSerial,
			&item.StatusFlag,
			&item.ReadAt,
			&kwh,
			&kvarh,
			&item.FlowDirection,
		); err != nil {
			return nil, err
		}

		parsed, err := parseStoredClock(creationTime)
		if err != nil {
			return nil, err
		}
		item.CreationTime = parsed
		if kwh.Valid {
			value := kwh.Float64
			item.KWh = &value
		}
		if kvarh.Valid {
			value := kvarh.Float64
			item.KVarh = &value
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// parseStoredClock decodes a stored creation_time back into a clock
// value. A row that does not parse is an error, not a zero time.
func parseStoredClock(value string) (time.Time, error) {
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("scan creation_time %q: %w", value, err)
	}
	return parsed, nil
}
