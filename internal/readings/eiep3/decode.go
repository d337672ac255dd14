// Package eiep3 decodes EIEP3 interchange files into meter readings.
//
// An EIEP3 file is comma-delimited text with one record per line. The
// leading field tags the record type: HDR lines establish file-level
// header fields, DET lines carry one half-hourly reading each, and any
// other tag is ignored. There is no quoting; a comma inside a field
// value is not representable in this format.
package eiep3

import (
	"strconv"
	"strings"
	"time"

	readings "eiep3-loader/internal/readings/domain"
)

const (
	tagHeader = "HDR"
	tagDetail = "DET"

	dateLayout  = "02/01/2006"
	clockLayout = "15:04:05"
)

// HDR and DET field positions, 0-indexed from the record tag.
const (
	hdrSender    = 3
	hdrReceiver  = 4
	hdrCreatedOn = 6
	hdrCreatedAt = 7
	hdrFileID    = 8
	hdrMonth     = 10

	detICP    = 1
	detSerial = 2
	detStatus = 3
	detDate   = 4
	detPeriod = 5
	detKWh    = 6
	detKVarh  = 7
	detFlow   = 9
)

type recordKind int

const (
	recordIgnored recordKind = iota
	recordHeader
	recordDetail
)

// Result is the outcome of decoding one file.
type Result struct {
	Readings []readings.MeterReading

	// Header is the last header seen, nil when the file had none.
	Header      *readings.Header
	HeadersSeen int
}

// Empty reports whether the file produced no detail records.
func (r Result) Empty() bool { return len(r.Readings) == 0 }

// DecodeLines decodes one EIEP3 file. Each detail record snapshots the
// most recently seen header; a detail record before any header is a
// SequenceError. Any malformed field aborts the whole file.
func DecodeLines(lines []string) (Result, error) {
	var result Result
	var header *readings.Header

	for _, line := range lines {
		fields, kind := classify(line)
		switch kind {
		case recordHeader:
			parsed, err := parseHeader(line, fields)
			if err != nil {
				return Result{}, err
			}
			header = &parsed
			result.HeadersSeen++
		case recordDetail:
			if header == nil {
				return Result{}, &readings.SequenceError{Line: strings.TrimSpace(line)}
			}
			reading, err := parseDetail(line, fields, *header)
			if err != nil {
				return Result{}, err
			}
			result.Readings = append(result.Readings, reading)
		}
	}

	result.Header = header
	return result, nil
}

// classify splits a line into trimmed fields and resolves its record kind.
// Blank lines and unrecognized tags are ignored.
func classify(line string) ([]string, recordKind) {
	if strings.TrimSpace(line) == "" {
		return nil, recordIgnored
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	switch fields[0] {
	case tagHeader:
		return fields, recordHeader
	case tagDetail:
		return fields, recordDetail
	default:
		return nil, recordIgnored
	}
}

func parseHeader(line string, fields []string) (readings.Header, error) {
	sender, err := field(line, fields, hdrSender)
	if err != nil {
		return readings.Header{}, err
	}
	receiver, err := field(line, fields, hdrReceiver)
	if err != nil {
		return readings.Header{}, err
	}
	createdOn, err := parseDate(line, fields, hdrCreatedOn)
	if err != nil {
		return readings.Header{}, err
	}
	createdAt, err := parseClock(line, fields, hdrCreatedAt)
	if err != nil {
		return readings.Header{}, err
	}
	fileID, err := field(line, fields, hdrFileID)
	if err != nil {
		return readings.Header{}, err
	}
	month, err := field(line, fields, hdrMonth)
	if err != nil {
		return readings.Header{}, err
	}

	return readings.Header{
		FileID:           fileID,
		CreationDate:     createdOn,
		CreationTime:     createdAt,
		SenderCode:       sender,
		ReceiverCode:     receiver,
		ConsumptionMonth: month,
	}, nil
}

func parseDetail(line string, fields []string, header readings.Header) (readings.MeterReading, error) {
	icp, err := field(line, fields, detICP)
	if err != nil {
		return readings.MeterReading{}, err
	}
	serial, err := field(line, fields, detSerial)
	if err != nil {
		return readings.MeterReading{}, err
	}
	status, err := field(line, fields, detStatus)
	if err != nil {
		return readings.MeterReading{}, err
	}
	readDate, err := parseDate(line, fields, detDate)
	if err != nil {
		return readings.MeterReading{}, err
	}
	period, err := parseInt(line, fields, detPeriod)
	if err != nil {
		return readings.MeterReading{}, err
	}
	kwh, err := parseOptionalFloat(line, fields, detKWh)
	if err != nil {
		return readings.MeterReading{}, err
	}
	kvarh, err := parseOptionalFloat(line, fields, detKVarh)
	if err != nil {
		return readings.MeterReading{}, err
	}
	flow, err := field(line, fields, detFlow)
	if err != nil {
		return readings.MeterReading{}, err
	}

	return readings.MeterReading{
		Header:        header,
		ICP:           icp,
		MeterSerial:   serial,
		StatusFlag:    status,
		ReadAt:        periodStart(readDate, period),
		KWh:           kwh,
		KVarh:         kvarh,
		FlowDirection: flow,
	}, nil
}

// periodStart maps a 1-indexed half-hour trading period onto its day:
// period 1 starts at 00:00, period 2 at 00:30, period 48 at 23:30.
// Out-of-range periods are not rejected; time.Date normalizes them onto
// adjacent days.
func periodStart(day time.Time, period int) time.Time {
	hour := (period - 1) / 2
	minute := 30 * ((period - 1) % 2)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func field(line string, fields []string, index int) (string, error) {
	if index >= len(fields) {
		return "", &readings.ParseError{Line: strings.TrimSpace(line), Field: index, Reason: "missing"}
	}
	return fields[index], nil
}

func parseDate(line string, fields []string, index int) (time.Time, error) {
	raw, err := field(line, fields, index)
	if err != nil {
		return time.Time{}, err
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, &readings.ParseError{Line: strings.TrimSpace(line), Field: index, Reason: "invalid date", Err: err}
	}
	return parsed, nil
}

func parseClock(line string, fields []string, index int) (time.Time, error) {
	raw, err := field(line, fields, index)
	if err != nil {
		return time.Time{}, err
	}
	parsed, err := time.Parse(clockLayout, raw)
	if err != nil {
		return time.Time{}, &readings.ParseError{Line: strings.TrimSpace(line), Field: index, Reason: "invalid time", Err: err}
	}
	return parsed, nil
}

func parseInt(line string, fields []string, index int) (int, error) {
	raw, err := field(line, fields, index)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &readings.ParseError{Line: strings.TrimSpace(line), Field: index, Reason: "invalid integer", Err: err}
	}
	return parsed, nil
}

// parseOptionalFloat decodes a decimal field where blank means absent,
// never zero.
func parseOptionalFloat(line string, fields []string, index int) (*float64, error) {
	raw, err := field(line, fields, index)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &readings.ParseError{Line: strings.TrimSpace(line), Field: index, Reason: "invalid decimal", Err: err}
	}
	return &parsed, nil
}
