package readings

import "time"

// Load-run outcomes.
const (
	RunStatusLoaded = "loaded"
	RunStatusEmpty  = "empty"
	RunStatusFailed = "failed"
)

// LoadRun records the outcome of one load run.
type LoadRun struct {
	FileID      string
	Records     int
	RowsWritten int64
	Status      string
	Detail      string
	StartedAt   time.Time
	FinishedAt  time.Time
}
