package core

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// ----------------------------------------------------------------------------
// Table fixtures
// ----------------------------------------------------------------------------

// sigmaHeader returns the j-th (0-based) canonical column header: 0.0001, 0.0002, ...
func sigmaHeader(j int) string {
	return fmt.Sprintf("0.%04d", j+1)
}

// coefficient returns a distinct, exactly representable test coefficient for cell (i, j).
func coefficient(i, j int) string {
	return fmt.Sprintf("0.%03d%03d", i, j+1)
}

// tableRecords builds the canonical 91x31 table as CSV records.
func tableRecords(dims Dimensions) [][]string {
	header := []string{""}
	for j := 0; j < dims.Sigma; j++ {
		header = append(header, sigmaHeader(j))
	}
	records := [][]string{header}
	for i := 0; i < dims.T; i++ {
		rec := []string{fmt.Sprint(LabelStep * i)}
		for j := 0; j < dims.Sigma; j++ {
			rec = append(rec, coefficient(i, j))
		}
		records = append(records, rec)
	}
	return records
}

func encodeCSV(records [][]string) string {
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(strings.Join(rec, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// writeTable writes records to a temp CSV file and returns its path.
func writeTable(t *testing.T, records [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k-table.csv")
	if err := os.WriteFile(path, []byte(encodeCSV(records)), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

// mustReadTable parses records and fails the test on error.
func mustReadTable(t *testing.T, records [][]string) *RawTable {
	t.Helper()
	table, err := ReadTable(strings.NewReader(encodeCSV(records)))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	return table
}

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer literal %q", s)
	}
	return v
}

// ----------------------------------------------------------------------------
// Recording ledger
// ----------------------------------------------------------------------------

// batchCall is one SetBatch invocation seen by recordingWriter.
type batchCall struct {
	tIdx     []int64
	sigmaIdx []string
	values   []*big.Int
}

// recordingWriter records every SetBatch call and fails the call whose
// 0-based number is failAt (if failAt >= 0).
type recordingWriter struct {
	mu       sync.Mutex
	calls    []batchCall
	failAt   int
	failWith error
	inFlight int
	maxSeen  int
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{failAt: -1}
}

var errLedgerRejected = errors.New("ledger rejected batch")

func (w *recordingWriter) SetBatch(ctx context.Context, tIdx []int64, sigmaIdx []string, values []*big.Int) error {
	w.mu.Lock()
	w.inFlight++
	if w.inFlight > w.maxSeen {
		w.maxSeen = w.inFlight
	}
	n := len(w.calls)
	w.calls = append(w.calls, batchCall{tIdx: tIdx, sigmaIdx: sigmaIdx, values: values})
	w.inFlight--
	w.mu.Unlock()

	if n == w.failAt {
		if w.failWith != nil {
			return w.failWith
		}
		return errLedgerRejected
	}
	return nil
}

func (w *recordingWriter) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

// recordingRecorder keeps LoadRecords.
type recordingRecorder struct {
	records []LoadRecord
}

func (r *recordingRecorder) RecordLoad(_ context.Context, rec LoadRecord) error {
	r.records = append(r.records, rec)
	return nil
}
