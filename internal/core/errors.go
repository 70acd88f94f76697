package core

import (
	"errors"
	"fmt"
)

// Stage names reported to the caller when a load fails.
const (
	StageShape      = "ShapeMismatch"
	StageIndex      = "IndexComputationError"
	StageEncoding   = "EncodingError"
	StageCount      = "CountMismatch"
	StageSubmission = "SubmissionFailure"
	StageCancelled  = "Cancelled"
	StageInput      = "InputError"
)

// ErrCancelled is returned when the load context is done before submission starts.
var ErrCancelled = errors.New("load cancelled before submission")

// StageError is implemented by every error that belongs to a pipeline stage.
type StageError interface {
	error
	Stage() string
}

// StageOf returns the pipeline stage of err, or "" if err carries none.
func StageOf(err error) string {
	if err == nil {
		return ""
	}
	var se StageError
	if errors.As(err, &se) {
		return se.Stage()
	}
	if errors.Is(err, ErrCancelled) {
		return StageCancelled
	}
	return ""
}

// ShapeMismatch reports the first shape violation found in a table.
// Row is -1 for table-level checks (row count, header width).
type ShapeMismatch struct {
	Field    string // "rows", "headers", "columns" or "label"
	Row      int
	Line     int
	Expected int64
	Actual   int64
	Detail   string
}

func (e *ShapeMismatch) Error() string {
	var msg string
	switch {
	case e.Row < 0:
		msg = fmt.Sprintf("shape mismatch: %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
	case e.Line > 0:
		msg = fmt.Sprintf("shape mismatch: row %d (line %d): %s: expected %d, got %d",
			e.Row, e.Line, e.Field, e.Expected, e.Actual)
	default:
		msg = fmt.Sprintf("shape mismatch: row %d: %s: expected %d, got %d",
			e.Row, e.Field, e.Expected, e.Actual)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ShapeMismatch) Stage() string { return StageShape }

// IndexComputationError reports a column header that is not a decimal.
type IndexComputationError struct {
	Row    int
	Header string
	Err    error
}

func (e *IndexComputationError) Error() string {
	return fmt.Sprintf("index computation: row %d: header %q: %v", e.Row, e.Header, e.Err)
}

func (e *IndexComputationError) Unwrap() error { return e.Err }

func (e *IndexComputationError) Stage() string { return StageIndex }

// EncodingError reports a coefficient that cannot be stored as fixed point.
type EncodingError struct {
	Row    int
	Header string
	Value  string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: row %d: column %q: value %q: %v", e.Row, e.Header, e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Stage() string { return StageEncoding }

// CountMismatch reports a flattened sequence of the wrong length.
type CountMismatch struct {
	Expected int
	Actual   int
}

func (e *CountMismatch) Error() string {
	return fmt.Sprintf("count mismatch: expected %d cells, got %d", e.Expected, e.Actual)
}

func (e *CountMismatch) Stage() string { return StageCount }

// SubmissionFailure reports the first batch the ledger rejected.
// Batches before BatchIndex stay applied.
type SubmissionFailure struct {
	BatchIndex int
	Batches    int
	Err        error
}

func (e *SubmissionFailure) Error() string {
	return fmt.Sprintf("submission failure: batch %d of %d: %v", e.BatchIndex, e.Batches, e.Err)
}

func (e *SubmissionFailure) Unwrap() error { return e.Err }

func (e *SubmissionFailure) Stage() string { return StageSubmission }

// InputError reports a table file that could not be opened or parsed.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read table: %v", e.Err)
	}
	return fmt.Sprintf("read table %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Stage() string { return StageInput }
