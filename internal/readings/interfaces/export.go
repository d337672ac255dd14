package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	readings "eiep3-loader/internal/readings/domain"
)

// BuildReadingsXLSX renders the readings loaded from one file.
func BuildReadingsXLSX(fileID string, items []readings.MeterReading) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	readingsSheet := "readings"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(readingsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "EIEP3 Meter Readings")
	_ = f.SetCellValue(summarySheet, "A3", "File")
	_ = f.SetCellValue(summarySheet, "B3", fileID)
	_ = f.SetCellValue(summarySheet, "A4", "Readings")
	_ = f.SetCellValue(summarySheet, "B4", len(items))
	if len(items) > 0 {
		_ = f.SetCellValue(summarySheet, "A5", "Sender")
		_ = f.SetCellValue(summarySheet, "B5", items[0].SenderCode)
		_ = f.SetCellValue(summarySheet, "A6", "Receiver")
		_ = f.SetCellValue(summarySheet, "B6", items[0].ReceiverCode)
		_ = f.SetCellValue(summarySheet, "A7", "Consumption Month")
		_ = f.SetCellValue(summarySheet, "B7", items[0].ConsumptionMonth)
	}

	_ = f.SetCellValue(readingsSheet, "A1", "ICP")
	_ = f.SetCellValue(readingsSheet, "B1", "Meter Serial")
	_ = f.SetCellValue(readingsSheet, "C1", "Status")
	_ = f.SetCellValue(readingsSheet, "D1", "Reading Time")
	_ = f.SetCellValue(readingsSheet, "E1", "kWh")
	_ = f.SetCellValue(readingsSheet, "F1", "kVarh")
	_ = f.SetCellValue(readingsSheet, "G1", "Flow")
	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", row), item.ICP)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", row), item.MeterSerial)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("C%d", row), item.StatusFlag)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("D%d", row), item.ReadAt.Format("2006-01-02 15:04"))
		if item.KWh != nil {
			_ = f.SetCellValue(readingsSheet, fmt.Sprintf("E%d", row), *item.KWh)
		}
		if item.KVarh != nil {
			_ = f.SetCellValue(readingsSheet, fmt.Sprintf("F%d", row), *item.KVarh)
		}
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("G%d", row), item.FlowDirection)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLoadRunPDF renders a load-run report for one file.
func BuildLoadRunPDF(run readings.LoadRun, items []readings.MeterReading) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "EIEP3 Load Run Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("File: %s", run.FileID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", run.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Records: %d", run.Records))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows Written: %d", run.RowsWritten))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", run.StartedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Finished: %s", run.FinishedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "ICP", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Reading Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "kWh", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "kVarh", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Flow", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range items {
		pdf.CellFormat(45, 6, item.ICP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, item.ReadAt.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, formatEnergy(item.KWh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatEnergy(item.KVarh), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, item.FlowDirection, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatEnergy(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *value)
}
