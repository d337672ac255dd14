package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	readings "eiep3-loader/internal/readings/domain"
)

const timeLayout = time.RFC3339

// ReadingFinder reads stored meter readings.
type ReadingFinder interface {
	QueryICP(ctx context.Context, icp string, from, to time.Time) ([]readings.MeterReading, error)
}

// RunLister lists recorded load runs.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]readings.LoadRun, error)
}

// ReadingsHandler serves meter reading queries.
type ReadingsHandler struct {
	finder ReadingFinder
}

// NewReadingsHandler constructs a ReadingsHandler.
func NewReadingsHandler(finder ReadingFinder) *ReadingsHandler {
	return &ReadingsHandler{finder: finder}
}

// ServeHTTP handles GET /api/v1/readings.
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.finder == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	icp := r.URL.Query().Get("icp")
	if icp == "" {
		http.Error(w, "icp is required", http.StatusBadRequest)
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	items, err := h.finder.QueryICP(r.Context(), icp, from, to)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}

	rows := make([]readingRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, toReadingRow(item))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

// LoadsHandler serves load-run history.
type LoadsHandler struct {
	runs RunLister
}

// NewLoadsHandler constructs a LoadsHandler.
func NewLoadsHandler(runs RunLister) *LoadsHandler {
	return &LoadsHandler{runs: runs}
}

// ServeHTTP handles GET /api/v1/loads.
func (h *LoadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runs == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "query loads error", http.StatusInternalServerError)
		return
	}

	rows := make([]loadRunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, toLoadRunRow(run))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

type loadRunRow struct {
	FileID      string `json:"file_identifier"`
	Records     int    `json:"records"`
	RowsWritten int64  `json:"rows_written"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
}

func toLoadRunRow(run readings.LoadRun) loadRunRow {
	return loadRunRow{
		FileID:      run.FileID,
		Records:     run.Records,
		RowsWritten: run.RowsWritten,
		Status:      run.Status,
		Detail:      run.Detail,
		StartedAt:   run.StartedAt.UTC().Format(timeLayout),
		FinishedAt:  run.FinishedAt.UTC().Format(timeLayout),
	}
}

type readingRow struct {
	FileID           string   `json:"file_identifier"`
	CreationDate     string   `json:"creation_date"`
	CreationTime     string   `json:"creation_time"`
	SenderCode       string   `json:"sender_participant_code"`
	ReceiverCode     string   `json:"receiver_participant_code"`
	ConsumptionMonth string   `json:"consumption_month"`
	ICP              string   `json:"icp_identifier"`
	MeterSerial      string   `json:"meter_serial_number"`
	StatusFlag       string   `json:"reading_status_flag"`
	ReadingDatetime  string   `json:"reading_datetime"`
	KWh              *float64 `json:"kwh_consumption"`
	KVarh            *float64 `json:"kvarh_consumption"`
	FlowDirection    string   `json:"flow_direction"`
}

func toReadingRow(item readings.MeterReading) readingRow {
	return readingRow{
		FileID:           item.FileID,
		CreationDate:     item.CreationDate.Format("2006-01-02"),
		CreationTime:     item.CreationTime.Format("15:04:05"),
		SenderCode:       item.SenderCode,
		ReceiverCode:     item.ReceiverCode,
		ConsumptionMonth: item.ConsumptionMonth,
		ICP:              item.ICP,
		MeterSerial:      item.MeterSerial,
		StatusFlag:       item.StatusFlag,
		ReadingDatetime:  item.ReadAt.Format(timeLayout),
		KWh:              item.KWh,
		KVarh:            item.KVarh,
		FlowDirection:    item.FlowDirection,
	}
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	parsed, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}
