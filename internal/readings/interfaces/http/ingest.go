package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"eiep3-loader/internal/readings/application"
	readings "eiep3-loader/internal/readings/domain"
)

// Loader runs the decode and bulk-load pipeline for one file.
type Loader interface {
	RunLines(ctx context.Context, lines []string) (application.Result, error)
}

// IngestHandler accepts a raw EIEP3 file body and loads it.
type IngestHandler struct {
	loader Loader
	logger *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(loader Loader, logger *log.Logger) (*IngestHandler, error) {
	if loader == nil {
		return nil, errors.New("eiep3 ingest: nil loader")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{loader: loader, logger: logger}, nil
}

// ServeHTTP ingests one EIEP3 file.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("eiep3 ingest: read body error: %v", err)
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	lines, err := splitLines(body)
	if err != nil {
		h.logger.Printf("eiep3 ingest: split error: %v", err)
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := h.loader.RunLines(r.Context(), lines)
	if err != nil {
		var parseErr *readings.ParseError
		var seqErr *readings.SequenceError
		if errors.As(err, &parseErr) || errors.As(err, &seqErr) {
			h.logger.Printf("eiep3 ingest: decode error: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Printf("eiep3 ingest: load error: %v", err)
		http.Error(w, "load error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"file_id": result.FileID,
		"records": result.Records,
		"rows":    result.RowsWritten,
		"empty":   result.Empty,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func splitLines(body []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
