package interfaces

import (
	"bytes"
	"testing"
	"time"

	readings "eiep3-loader/internal/readings/domain"
)

func sampleReadings() []readings.MeterReading {
	kwh := 12.5
	return []readings.MeterReading{
		{
			Header: readings.Header{
				FileID:           "FILE1",
				SenderCode:       "SND",
				ReceiverCode:     "RCV",
				ConsumptionMonth: "202405",
			},
			ICP:           "ICP1",
			MeterSerial:   "MTR1",
			StatusFlag:    "OK",
			ReadAt:        time.Date(2024, time.May, 1, 1, 0, 0, 0, time.UTC),
			KWh:           &kwh,
			FlowDirection: "G",
		},
	}
}

func TestBuildReadingsXLSX(t *testing.T) {
	data, err := BuildReadingsXLSX("FILE1", sampleReadings())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected xlsx bytes")
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("unexpected xlsx prefix: %v", data[:2])
	}
}

func TestBuildLoadRunPDF(t *testing.T) {
	run := readings.LoadRun{
		FileID:      "FILE1",
		Records:     1,
		RowsWritten: 1,
		Status:      readings.RunStatusLoaded,
		StartedAt:   time.Date(2024, time.May, 1, 2, 0, 0, 0, time.UTC),
		FinishedAt:  time.Date(2024, time.May, 1, 2, 0, 1, 0, time.UTC),
	}

	data, err := BuildLoadRunPDF(run, sampleReadings())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected pdf bytes")
	}
}
