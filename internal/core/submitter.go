package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/ktable/internal/logging"
)

// Submit sends batches to the ledger one at a time, in order. Batch N+1 is
// not sent until the ledger has confirmed batch N. The first rejected or
// timed-out batch stops the run and is reported as a *SubmissionFailure;
// batches confirmed before it stay applied.
//
// It returns the number of confirmed batches.
func Submit(ctx context.Context, w BatchWriter, batches []Batch) (int, error) {
	logger := logging.FromContext(ctx)

	for i, b := range batches {
		tIdx, sigmaIdx, values := b.Columns()

		logger.Debug("submitting batch",
			"batch", i,
			"start", b.Start,
			"cells", b.Len(),
		)

		start := time.Now()
		if err := w.SetBatch(ctx, tIdx, sigmaIdx, values); err != nil {
			logger.Error("batch rejected",
				"batch", i,
				"batches", len(batches),
				"error", err,
			)
			return i, &SubmissionFailure{BatchIndex: i, Batches: len(batches), Err: err}
		}

		logger.Info("batch confirmed",
			"batch", i,
			"batches", len(batches),
			"cells", b.Len(),
			"duration", time.Since(start),
		)
	}
	return len(batches), nil
}
