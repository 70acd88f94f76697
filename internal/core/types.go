// Package core provides the business logic for loading the K-table.
// This package has no storage dependencies beyond the BatchWriter interface
// and can be driven by the CLI, tests, or any other frontend.
package core

import (
	"context"
	"math/big"
	"time"
)

// Dimensions is the expected shape of the K-table.
type Dimensions struct {
	T     int // Number of data rows (tau buckets)
	Sigma int // Number of data columns (volatility buckets)
}

// KTableDimensions is the canonical 91x30 shape.
var KTableDimensions = Dimensions{T: 91, Sigma: 30}

// RowsPerBatch is how many table rows go into one ledger batch.
const RowsPerBatch = 10

// LabelStep is the distance between consecutive row labels.
const LabelStep = 10

// Cells returns the total number of data cells, T x Sigma.
func (d Dimensions) Cells() int {
	return d.T * d.Sigma
}

// ChunkSize returns the maximum number of cells per batch.
func (d Dimensions) ChunkSize() int {
	return d.Sigma * RowsPerBatch
}

// Cell is one data column of a row, in file order.
type Cell struct {
	Header string // Column header, a decimal string like "0.0003"
	Value  string // Coefficient, a decimal string
}

// Row is one record of the table: its label and its data cells.
type Row struct {
	Label    int64 // -1 when RawLabel is not an integer
	RawLabel string
	Cells    []Cell
	Line     int // 1-indexed line in the source file
}

// RawTable is the table as read from the source file.
// Once it passes ValidateShape it is treated as immutable.
type RawTable struct {
	LabelHeader string
	Headers     []string
	Rows        []Row
}

// TableCell is the coordinate form of a single cell.
type TableCell struct {
	TIndex      int64
	SigmaIndex  string
	Coefficient string
}

// EncodedCell is a cell ready for the ledger.
type EncodedCell struct {
	TIndex     int64
	SigmaIndex string
	Value      *big.Int // floor(coefficient * 2^64)
}

// Batch is a contiguous slice of the flattened cell sequence.
type Batch struct {
	Index int // Position among all batches, 0-based
	Start int // Offset of the first cell in the flattened sequence
	Cells []EncodedCell
}

// Len returns the number of cells in the batch.
func (b Batch) Len() int {
	return len(b.Cells)
}

// Columns decomposes the batch into the three parallel sequences the ledger
// expects. All three slices have length b.Len().
func (b Batch) Columns() (tIdx []int64, sigmaIdx []string, values []*big.Int) {
	tIdx = make([]int64, len(b.Cells))
	sigmaIdx = make([]string, len(b.Cells))
	values = make([]*big.Int, len(b.Cells))
	for i, c := range b.Cells {
		tIdx[i] = c.TIndex
		sigmaIdx[i] = c.SigmaIndex
		values[i] = c.Value
	}
	return tIdx, sigmaIdx, values
}

// BatchWriter is the ledger's batch-write capability.
// Implementations must reject slices of unequal length and must not return
// until the batch is confirmed or rejected.
type BatchWriter interface {
	SetBatch(ctx context.Context, tIdx []int64, sigmaIdx []string, values []*big.Int) error
}

// LoadStatus is the final state of a load run.
type LoadStatus string

const (
	StatusSucceeded LoadStatus = "succeeded"
	StatusFailed    LoadStatus = "failed"
)

// LoadRecord summarizes one load run for the ledger's history.
type LoadRecord struct {
	RunID            string
	FileName         string
	Cells            int
	BatchesTotal     int
	BatchesConfirmed int
	Status           LoadStatus
	Stage            string // Failing stage, empty on success
	Error            string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// LoadRecorder persists LoadRecords.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, rec LoadRecord) error
}

// LoadResult is returned by Service.Load.
type LoadResult struct {
	RunID            string
	FileName         string
	Cells            int
	BatchesTotal     int
	BatchesConfirmed int
	Duration         time.Duration
}
