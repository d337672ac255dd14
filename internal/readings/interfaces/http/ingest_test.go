package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"eiep3-loader/internal/readings/application"
	readings "eiep3-loader/internal/readings/domain"
)

type fakeSink struct {
	calls int
}

func (s *fakeSink) BulkInsert(ctx context.Context, items []readings.MeterReading) (int64, error) {
	s.calls++
	return int64(len(items)), nil
}

func newIngest(t *testing.T, sink readings.ReadingSink) *IngestHandler {
	t.Helper()
	logger := log.New(os.Stderr, "", 0)
	svc, err := application.NewLoadService(sink, application.WithLogger(logger))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewIngestHandler(svc, logger)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestIngestHandler_LoadsFile(t *testing.T) {
	sink := &fakeSink{}
	handler := newIngest(t, sink)

	body := "HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405\n" +
		"DET,ICP1,MTR1,OK,01/05/2024,3,12.5,,G\n"
	req := httptest.NewRequest(http.MethodPost, "/ingest/eiep3/file", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["file_id"] != "FILE1" || decoded["rows"].(float64) != 1 {
		t.Fatalf("unexpected response: %v", decoded)
	}
	if sink.calls != 1 {
		t.Fatalf("expected 1 sink call, got %d", sink.calls)
	}
}

func TestIngestHandler_DetailBeforeHeaderIsBadRequest(t *testing.T) {
	sink := &fakeSink{}
	handler := newIngest(t, sink)

	body := "DET,ICP1,MTR1,OK,01/05/2024,3,12.5,,G\n"
	req := httptest.NewRequest(http.MethodPost, "/ingest/eiep3/file", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be invoked, got %d calls", sink.calls)
	}
}

func TestIngestHandler_EmptyFileIsOK(t *testing.T) {
	sink := &fakeSink{}
	handler := newIngest(t, sink)

	body := "HDR,X,Y,SND,RCV,Z,01/05/2024,00:00:00,FILE1,W,202405\n"
	req := httptest.NewRequest(http.MethodPost, "/ingest/eiep3/file", strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var decoded map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["empty"] != true {
		t.Fatalf("expected empty response, got %v", decoded)
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be invoked for an empty file, got %d calls", sink.calls)
	}
}

func TestIngestHandler_RejectsGet(t *testing.T) {
	handler := newIngest(t, &fakeSink{})

	req := httptest.NewRequest(http.MethodGet, "/ingest/eiep3/file", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
