package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/ktable/internal/logging"
	"github.com/google/uuid"
)

// Service runs K-table loads against one ledger.
type Service struct {
	writer   BatchWriter
	recorder LoadRecorder // optional
	guard    *LoadGuard
	dims     Dimensions
	now      func() time.Time
}

// NewService creates a Service writing to w. recorder may be nil, in which
// case runs are not recorded.
func NewService(w BatchWriter, recorder LoadRecorder) *Service {
	return &Service{
		writer:   w,
		recorder: recorder,
		guard:    NewLoadGuard(DefaultLoadWait),
		dims:     KTableDimensions,
		now:      time.Now,
	}
}

// Load reads the table at path, validates it, and submits it to the ledger.
// Only one Load runs at a time on a Service.
//
// Every check (shape, index, encoding, count) runs before the first batch is
// sent, so bad input never causes a partial write. ctx is honoured only up to
// that point: once submission starts the run continues until it completes or
// the ledger rejects a batch. Per-call timeouts are the ledger's concern.
func (s *Service) Load(ctx context.Context, path string) (*LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	if err := s.guard.Acquire(ctx); err != nil {
		if errors.Is(err, ErrLoadInProgress) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	defer s.guard.Release()

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithFields(ctx, "file", path)
	startedAt := s.now()

	result := &LoadResult{
		RunID:    runID,
		FileName: filepath.Base(path),
	}
	logger.Info("load started")

	table, err := LoadTable(path, s.dims)
	if err != nil {
		return nil, s.fail(ctx, result, startedAt, err)
	}

	batches, cells, err := PlanBatches(table, s.dims)
	if err != nil {
		return nil, s.fail(ctx, result, startedAt, err)
	}
	result.Cells = cells
	result.BatchesTotal = len(batches)

	logger.Info("table planned",
		"cells", cells,
		"batches", len(batches),
		"chunk_size", s.dims.ChunkSize(),
	)

	// Last point at which cancellation is honoured.
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, result, startedAt, fmt.Errorf("%w: %v", ErrCancelled, err))
	}
	submitCtx := context.WithoutCancel(ctx)

	confirmed, err := Submit(submitCtx, s.writer, batches)
	result.BatchesConfirmed = confirmed
	if err != nil {
		return nil, s.fail(submitCtx, result, startedAt, err)
	}

	result.Duration = s.now().Sub(startedAt)
	s.record(submitCtx, result, startedAt, nil)

	logger.Info("load completed",
		"cells", result.Cells,
		"batches", result.BatchesConfirmed,
		"duration", result.Duration,
	)
	return result, nil
}

// fail logs and records a failed run and returns err unchanged.
func (s *Service) fail(ctx context.Context, result *LoadResult, startedAt time.Time, err error) error {
	logging.FromContext(ctx).Error("load failed",
		"stage", StageOf(err),
		"batches_confirmed", result.BatchesConfirmed,
		"batches_total", result.BatchesTotal,
		"error", err,
	)
	s.record(context.WithoutCancel(ctx), result, startedAt, err)
	return err
}

// record hands the run to the recorder. Recording problems are logged, not
// returned: the ledger state is already decided by then.
func (s *Service) record(ctx context.Context, result *LoadResult, startedAt time.Time, loadErr error) {
	if s.recorder == nil {
		return
	}

	rec := LoadRecord{
		RunID:            result.RunID,
		FileName:         result.FileName,
		Cells:            result.Cells,
		BatchesTotal:     result.BatchesTotal,
		BatchesConfirmed: result.BatchesConfirmed,
		Status:           StatusSucceeded,
		StartedAt:        startedAt,
		FinishedAt:       s.now(),
	}
	if loadErr != nil {
		rec.Status = StatusFailed
		rec.Stage = StageOf(loadErr)
		rec.Error = loadErr.Error()
	}

	if err := s.recorder.RecordLoad(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("failed to record load", "error", err)
	}
}
