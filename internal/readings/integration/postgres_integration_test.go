package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	readings "eiep3-loader/internal/readings/domain"
	readingspostgres "eiep3-loader/internal/readings/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestReadingRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "raw_eiep3_meter_readings") {
		t.Skip("raw_eiep3_meter_readings missing; run migrations")
	}

	ctx := context.Background()
	fileID := "FILE-IT-001"

	_, _ = db.ExecContext(ctx, "DELETE FROM raw_eiep3_meter_readings WHERE file_identifier = $1", fileID)

	repo := readingspostgres.NewReadingRepository(db)
	query := readingspostgres.NewReadingQuery(db)

	kwh := 12.5
	items := []readings.MeterReading{
		{
			Header: readings.Header{
				FileID:           fileID,
				CreationDate:     time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
				CreationTime:     time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC),
				SenderCode:       "SND",
				ReceiverCode:     "RCV",
				ConsumptionMonth: "202405",
			},
			ICP:           "ICP-IT-1",
			MeterSerial:   "MTR1",
			StatusFlag:    "OK",
			ReadAt:        time.Date(2024, time.May, 1, 1, 0, 0, 0, time.UTC),
			KWh:           &kwh,
			FlowDirection: "G",
		},
		{
			Header: readings.Header{
				FileID:           fileID,
				CreationDate:     time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
				CreationTime:     time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC),
				SenderCode:       "SND",
				ReceiverCode:     "RCV",
				ConsumptionMonth: "202405",
			},
			ICP:           "ICP-IT-1",
			MeterSerial:   "MTR1",
			StatusFlag:    "OK",
			ReadAt:        time.Date(2024, time.May, 1, 1, 30, 0, 0, time.UTC),
			FlowDirection: "G",
		},
	}

	written, err := repo.BulkInsert(ctx, items)
	if err != nil {
		t.Fatalf("bulk insert: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 rows written, got %d", written)
	}

	from := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
	stored, err := query.QueryICP(ctx, "ICP-IT-1", from, to)
	if err != nil {
		t.Fatalf("query icp: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(stored))
	}
	if stored[0].KWh == nil || *stored[0].KWh != 12.5 {
		t.Fatalf("expected kwh 12.5, got %v", stored[0].KWh)
	}
	if stored[1].KWh != nil {
		t.Fatalf("expected nil kwh for second reading, got %v", *stored[1].KWh)
	}

	byFile, err := query.ListFile(ctx, fileID)
	if err != nil {
		t.Fatalf("list file: %v", err)
	}
	if len(byFile) != 2 {
		t.Fatalf("expected 2 readings by file, got %d", len(byFile))
	}
}

func TestRunRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "eiep3_load_runs") {
		t.Skip("eiep3_load_runs missing; run migrations")
	}

	ctx := context.Background()
	fileID := "FILE-IT-RUN"

	_, _ = db.ExecContext(ctx, "DELETE FROM eiep3_load_runs WHERE file_identifier = $1", fileID)

	repo := readingspostgres.NewRunRepository(db)
	run := readings.LoadRun{
		FileID:      fileID,
		Records:     2,
		RowsWritten: 2,
		Status:      readings.RunStatusLoaded,
		StartedAt:   time.Now().UTC().Truncate(time.Second),
		FinishedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.InsertRun(ctx, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	latest, err := repo.LatestForFile(ctx, fileID)
	if err != nil {
		t.Fatalf("latest for file: %v", err)
	}
	if latest.Status != readings.RunStatusLoaded || latest.RowsWritten != 2 {
		t.Fatalf("unexpected run: %+v", latest)
	}
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)
	return err == nil && exists
}
