package application

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	readings "eiep3-loader/internal/readings/domain"
)

type fakeSource struct {
	lines []string
	err   error
}

func (s *fakeSource) Lines(ctx context.Context) ([]string, error) {
	return s.lines, s.err
}

type fakeSink struct {
	calls    int
	received []readings.MeterReading
	err      error
}

func (s *fakeSink) BulkInsert(ctx context.Context, items []readings.MeterReading) (int64, error) {
	s.calls++
	s.received = items
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(items)), nil
}

type fakeRecorder struct {
	runs []readings.LoadRun
}

func (r *fakeRecorder) InsertRun(ctx context.Context, run readings.LoadRun) error {
	r.runs = append(r.runs, run)
	return nil
}

func newTestService(t *testing.T, sink readings.ReadingSink, opts ...ServiceOption) *LoadService {
	t.Helper()
	opts = append(opts, WithLogger(log.New(os.Stderr, "", 0)))
	svc, err := NewLoadService(sink, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoadService_Run(t *testing.T) {
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	svc := newTestService(t, sink, WithRunRecorder(recorder))

	src := &fakeSource{lines: []string{
		"HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405",
		"DET,ICP1,MTR1,OK,01/05/2024,3,12.5,,G",
		"DET,ICP2,MTR2,OK,01/05/2024,4,8.0,1.5,X",
	}}

	result, err := svc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.RowsWritten != 2 || result.Records != 2 {
		t.Fatalf("expected 2 rows, got %+v", result)
	}
	if result.FileID != "FILE1" {
		t.Fatalf("expected FILE1, got %s", result.FileID)
	}
	if sink.calls != 1 {
		t.Fatalf("expected 1 sink call, got %d", sink.calls)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Status != readings.RunStatusLoaded {
		t.Fatalf("expected loaded run recorded, got %+v", recorder.runs)
	}
}

func TestLoadService_EmptyFileSkipsSink(t *testing.T) {
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	svc := newTestService(t, sink, WithRunRecorder(recorder))

	src := &fakeSource{lines: []string{
		"HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405",
		"",
		"   ",
	}}

	result, err := svc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Empty {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be invoked for an empty file, got %d calls", sink.calls)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Status != readings.RunStatusEmpty {
		t.Fatalf("expected empty run recorded, got %+v", recorder.runs)
	}
}

func TestLoadService_DecodeErrorAbortsRun(t *testing.T) {
	sink := &fakeSink{}
	recorder := &fakeRecorder{}
	svc := newTestService(t, sink, WithRunRecorder(recorder))

	src := &fakeSource{lines: []string{"DET,ICP1,MTR1,OK,01/05/2024,1,1.0,,G"}}

	_, err := svc.Run(context.Background(), src)
	var seqErr *readings.SequenceError
	if !errors.As(err, &seqErr) {
		t.Fatalf("expected SequenceError, got %v", err)
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be invoked on decode failure, got %d calls", sink.calls)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Status != readings.RunStatusFailed {
		t.Fatalf("expected failed run recorded, got %+v", recorder.runs)
	}
}

func TestLoadService_SinkErrorPropagates(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	svc := newTestService(t, sink)

	src := &fakeSource{lines: []string{
		"HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405",
		"DET,ICP1,MTR1,OK,01/05/2024,1,1.0,,G",
	}}

	if _, err := svc.Run(context.Background(), src); err == nil {
		t.Fatal("expected sink error")
	}
}

func TestLoadService_ExtractErrorPropagates(t *testing.T) {
	sink := &fakeSink{}
	svc := newTestService(t, sink)

	src := &fakeSource{err: errors.New("connection refused")}
	if _, err := svc.Run(context.Background(), src); err == nil {
		t.Fatal("expected extract error")
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be invoked on extract failure, got %d calls", sink.calls)
	}
}

func TestSourceConfig_UnknownMethod(t *testing.T) {
	cfg := SourceConfig{Method: "ftp"}
	_, err := cfg.BuildSource()
	if !errors.Is(err, readings.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSourceConfig_LocalMethod(t *testing.T) {
	cfg := SourceConfig{Method: MethodLocal, Local: LocalConfig{Path: "eiep3_data.csv"}}
	src, err := cfg.BuildSource()
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	if src == nil {
		t.Fatal("expected a source")
	}
}

func TestSourceConfig_LocalWithoutPath(t *testing.T) {
	cfg := SourceConfig{Method: MethodLocal}
	_, err := cfg.BuildSource()
	if !errors.Is(err, readings.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadSourceConfig_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiep3.yaml")
	content := "method: sftp\nsftp:\n  host: feed.example.com\n  username: reader\n  password: secret\n  path: /outbound/eiep3.csv\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EIEP3_CONFIG", path)

	cfg, err := LoadSourceConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Method != MethodSFTP {
		t.Fatalf("expected sftp method, got %s", cfg.Method)
	}
	if cfg.SFTP.Host != "feed.example.com" || cfg.SFTP.Path != "/outbound/eiep3.csv" {
		t.Fatalf("unexpected sftp config: %+v", cfg.SFTP)
	}
}
