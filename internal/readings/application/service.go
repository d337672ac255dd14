package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"eiep3-loader/internal/observability/metrics"
	readings "eiep3-loader/internal/readings/domain"
	"eiep3-loader/internal/readings/eiep3"
)

// RunRecorder persists load-run history.
type RunRecorder interface {
	InsertRun(ctx context.Context, run readings.LoadRun) error
}

// LoadService runs the extract, decode and bulk-load pipeline for one
// EIEP3 file per invocation. It holds no state between runs.
type LoadService struct {
	sink   readings.ReadingSink
	runs   RunRecorder
	logger *log.Logger
}

// NewLoadService constructs a load service.
func NewLoadService(sink readings.ReadingSink, opts ...ServiceOption) (*LoadService, error) {
	if sink == nil {
		return nil, errors.New("load service: nil sink")
	}
	svc := &LoadService{sink: sink, logger: log.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ServiceOption configures the load service.
type ServiceOption func(*LoadService)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(svc *LoadService) {
		if logger != nil {
			svc.logger = logger
		}
	}
}

// WithRunRecorder enables load-run history.
func WithRunRecorder(runs RunRecorder) ServiceOption {
	return func(svc *LoadService) {
		svc.runs = runs
	}
}

// Result summarizes one load run.
type Result struct {
	FileID      string
	Records     int
	RowsWritten int64
	HeadersSeen int
	Empty       bool
}

// Run pulls the full line sequence from the source, then decodes and
// bulk-loads it.
func (s *LoadService) Run(ctx context.Context, src readings.LineSource) (Result, error) {
	if src == nil {
		return Result{}, errors.New("load service: nil source")
	}

	started := time.Now()
	lines, err := src.Lines(ctx)
	if err != nil {
		metrics.ObserveLoadRun(metrics.ResultError, time.Since(started))
		s.record(ctx, readings.LoadRun{
			Status:     readings.RunStatusFailed,
			Detail:     fmt.Sprintf("extract: %v", err),
			StartedAt:  started,
			FinishedAt: time.Now(),
		})
		return Result{}, fmt.Errorf("extract: %w", err)
	}

	return s.runLines(ctx, lines, started)
}

// RunLines decodes and bulk-loads an already-acquired line sequence.
func (s *LoadService) RunLines(ctx context.Context, lines []string) (Result, error) {
	return s.runLines(ctx, lines, time.Now())
}

func (s *LoadService) runLines(ctx context.Context, lines []string, started time.Time) (Result, error) {
	decoded, err := eiep3.DecodeLines(lines)
	if err != nil {
		metrics.ObserveLoadRun(metrics.ResultError, time.Since(started))
		metrics.IncDecodeFailure(failureKind(err))
		s.record(ctx, readings.LoadRun{
			Status:     readings.RunStatusFailed,
			Detail:     err.Error(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		})
		return Result{}, err
	}

	if decoded.HeadersSeen > 1 {
		s.logger.Printf("load: %d header records in one file; detail records carry the most recent header", decoded.HeadersSeen)
	}

	var fileID string
	if decoded.Header != nil {
		fileID = decoded.Header.FileID
	}

	if decoded.Empty() {
		s.logger.Printf("load: no detail records found, nothing to load")
		metrics.ObserveLoadRun(metrics.ResultEmpty, time.Since(started))
		s.record(ctx, readings.LoadRun{
			FileID:     fileID,
			Status:     readings.RunStatusEmpty,
			StartedAt:  started,
			FinishedAt: time.Now(),
		})
		return Result{FileID: fileID, HeadersSeen: decoded.HeadersSeen, Empty: true}, nil
	}

	rows, err := s.sink.BulkInsert(ctx, decoded.Readings)
	if err != nil {
		metrics.ObserveLoadRun(metrics.ResultError, time.Since(started))
		s.record(ctx, readings.LoadRun{
			FileID:     fileID,
			Records:    len(decoded.Readings),
			Status:     readings.RunStatusFailed,
			Detail:     fmt.Sprintf("bulk load: %v", err),
			StartedAt:  started,
			FinishedAt: time.Now(),
		})
		return Result{}, fmt.Errorf("bulk load: %w", err)
	}

	s.logger.Printf("load: wrote %d rows for file %s", rows, fileID)
	metrics.ObserveLoadRun(metrics.ResultSuccess, time.Since(started))
	metrics.AddRecordsDecoded(len(decoded.Readings))
	s.record(ctx, readings.LoadRun{
		FileID:      fileID,
		Records:     len(decoded.Readings),
		RowsWritten: rows,
		Status:      readings.RunStatusLoaded,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	})

	return Result{
		FileID:      fileID,
		Records:     len(decoded.Readings),
		RowsWritten: rows,
		HeadersSeen: decoded.HeadersSeen,
	}, nil
}

func (s *LoadService) record(ctx context.Context, run readings.LoadRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.InsertRun(ctx, run); err != nil {
		s.logger.Printf("load: record run: %v", err)
	}
}

func failureKind(err error) string {
	var parseErr *readings.ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	var seqErr *readings.SequenceError
	if errors.As(err, &seqErr) {
		return "sequence"
	}
	return "unknown"
}
