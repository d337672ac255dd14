package readings

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks an unrecognized extraction mode or invalid
// collaborator configuration.
var ErrConfiguration = errors.New("readings: invalid configuration")

// ParseError reports a line whose required field is missing or does not
// match its expected pattern. It aborts the whole file.
type ParseError struct {
	Line   string
	Field  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("readings: field %d %s: %v in %q", e.Field, e.Reason, e.Err, e.Line)
	}
	return fmt.Sprintf("readings: field %d %s in %q", e.Field, e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SequenceError reports a detail record seen before any header record.
// It aborts the whole file.
type SequenceError struct {
	Line string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("readings: detail record before header record: %q", e.Line)
}
