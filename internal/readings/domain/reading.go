package readings

import (
	"context"
	"time"
)

// Header carries the HDR fields stamped onto every reading in a file.
type Header struct {
	FileID           string
	CreationDate     time.Time
	CreationTime     time.Time
	SenderCode       string
	ReceiverCode     string
	ConsumptionMonth string
}

// MeterReading is one decoded DET line joined with its header snapshot.
type MeterReading struct {
	Header

	ICP           string
	MeterSerial   string
	StatusFlag    string
	ReadAt        time.Time
	KWh           *float64
	KVarh         *float64
	FlowDirection string
}

// LineSource supplies the complete ordered line sequence for one file.
type LineSource interface {
	Lines(ctx context.Context) ([]string, error)
}

// ReadingSink persists decoded readings as a single bulk write and
// reports the number of rows written.
type ReadingSink interface {
	BulkInsert(ctx context.Context, items []MeterReading) (int64, error)
}
