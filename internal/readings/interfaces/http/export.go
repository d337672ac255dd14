package http

import (
	"context"
	"net/http"

	readings "eiep3-loader/internal/readings/domain"
	"eiep3-loader/internal/readings/interfaces"
)

// FileLister returns every reading loaded from one file.
type FileLister interface {
	ListFile(ctx context.Context, fileID string) ([]readings.MeterReading, error)
}

// RunFinder resolves the latest run for one file.
type RunFinder interface {
	LatestForFile(ctx context.Context, fileID string) (readings.LoadRun, error)
}

// ExportReadingsXLSXHandler serves XLSX exports of loaded readings.
type ExportReadingsXLSXHandler struct {
	files FileLister
}

// NewExportReadingsXLSXHandler constructs an ExportReadingsXLSXHandler.
func NewExportReadingsXLSXHandler(files FileLister) *ExportReadingsXLSXHandler {
	return &ExportReadingsXLSXHandler{files: files}
}

// ServeHTTP handles GET /api/v1/exports/readings.xlsx.
func (h *ExportReadingsXLSXHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.files == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return
	}

	items, err := h.files.ListFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}
	if len(items) == 0 {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	data, err := interfaces.BuildReadingsXLSX(fileID, items)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="readings-`+fileID+`.xlsx"`)
	_, _ = w.Write(data)
}

// ExportLoadRunPDFHandler serves PDF load-run reports.
type ExportLoadRunPDFHandler struct {
	runs  RunFinder
	files FileLister
}

// NewExportLoadRunPDFHandler constructs an ExportLoadRunPDFHandler.
func NewExportLoadRunPDFHandler(runs RunFinder, files FileLister) *ExportLoadRunPDFHandler {
	return &ExportLoadRunPDFHandler{runs: runs, files: files}
}

// ServeHTTP handles GET /api/v1/exports/loadrun.pdf.
func (h *ExportLoadRunPDFHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runs == nil || h.files == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		http.Error(w, "file_id is required", http.StatusBadRequest)
		return
	}

	run, err := h.runs.LatestForFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	items, err := h.files.ListFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, "query readings error", http.StatusInternalServerError)
		return
	}

	data, err := interfaces.BuildLoadRunPDF(run, items)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="loadrun-`+fileID+`.pdf"`)
	_, _ = w.Write(data)
}
