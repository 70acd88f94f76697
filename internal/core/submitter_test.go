package core

import (
	"context"
	"errors"
	"testing"
)

func plannedBatches(t *testing.T) []Batch {
	t.Helper()
	batches, _, err := PlanBatches(mustReadTable(t, tableRecords(KTableDimensions)), KTableDimensions)
	if err != nil {
		t.Fatalf("PlanBatches() error = %v", err)
	}
	return batches
}

func TestSubmit_AllConfirmed(t *testing.T) {
	batches := plannedBatches(t)
	w := newRecordingWriter()

	confirmed, err := Submit(context.Background(), w, batches)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if confirmed != 10 {
		t.Errorf("confirmed = %d, want 10", confirmed)
	}
	if w.callCount() != 10 {
		t.Fatalf("SetBatch calls = %d, want 10", w.callCount())
	}
	if w.maxSeen != 1 {
		t.Errorf("max in-flight SetBatch calls = %d, want 1", w.maxSeen)
	}

	for i, call := range w.calls {
		if len(call.tIdx) != len(call.sigmaIdx) || len(call.tIdx) != len(call.values) {
			t.Errorf("call %d: column lengths %d/%d/%d differ",
				i, len(call.tIdx), len(call.sigmaIdx), len(call.values))
		}
		if len(call.tIdx) != batches[i].Len() {
			t.Errorf("call %d: %d cells, want %d", i, len(call.tIdx), batches[i].Len())
		}
		// Batches arrive in order: batch i starts at row 10*i.
		if call.tIdx[0] != int64(i*RowsPerBatch) {
			t.Errorf("call %d: first t index = %d, want %d", i, call.tIdx[0], i*RowsPerBatch)
		}
	}
}

func TestSubmit_StopsAtFirstRejection(t *testing.T) {
	tests := []struct {
		name   string
		failAt int
	}{
		{name: "first batch", failAt: 0},
		{name: "middle batch", failAt: 3},
		{name: "last batch", failAt: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newRecordingWriter()
			w.failAt = tt.failAt

			confirmed, err := Submit(context.Background(), w, plannedBatches(t))

			var sf *SubmissionFailure
			if !errors.As(err, &sf) {
				t.Fatalf("Submit() error = %v, want *SubmissionFailure", err)
			}
			if sf.BatchIndex != tt.failAt {
				t.Errorf("BatchIndex = %d, want %d", sf.BatchIndex, tt.failAt)
			}
			if sf.Batches != 10 {
				t.Errorf("Batches = %d, want 10", sf.Batches)
			}
			if !errors.Is(err, errLedgerRejected) {
				t.Errorf("error = %v, want it to wrap the ledger error", err)
			}
			if confirmed != tt.failAt {
				t.Errorf("confirmed = %d, want %d", confirmed, tt.failAt)
			}
			if w.callCount() != tt.failAt+1 {
				t.Errorf("SetBatch calls = %d, want %d", w.callCount(), tt.failAt+1)
			}
		})
	}
}

func TestSubmit_Timeout(t *testing.T) {
	w := newRecordingWriter()
	w.failAt = 2
	w.failWith = context.DeadlineExceeded

	_, err := Submit(context.Background(), w, plannedBatches(t))
	if StageOf(err) != StageSubmission {
		t.Errorf("StageOf() = %q, want %q", StageOf(err), StageSubmission)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}

func TestSubmit_NoBatches(t *testing.T) {
	w := newRecordingWriter()
	confirmed, err := Submit(context.Background(), w, nil)
	if err != nil || confirmed != 0 || w.callCount() != 0 {
		t.Errorf("Submit(nil) = (%d, %v) with %d calls, want (0, nil) with none", confirmed, err, w.callCount())
	}
}
