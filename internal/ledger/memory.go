package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/JonMunkholm/ktable/internal/core"
)

// Memory is an in-process ledger. It backs dry runs, where the pipeline runs
// end to end without touching the database.
type Memory struct {
	mu      sync.Mutex
	cells   map[cellKey]*big.Int
	batches int
	loads   []core.LoadRecord
}

type cellKey struct {
	t     int64
	sigma string
}

var (
	_ core.BatchWriter  = (*Memory)(nil)
	_ core.LoadRecorder = (*Memory)(nil)
)

// NewMemory returns an empty memory ledger.
func NewMemory() *Memory {
	return &Memory{cells: make(map[cellKey]*big.Int)}
}

// SetBatch stores every cell of the batch, overwriting existing ones.
// sigma indices are normalized so "2" and "2.0" address the same cell.
func (m *Memory) SetBatch(ctx context.Context, tIdx []int64, sigmaIdx []string, values []*big.Int) error {
	if len(tIdx) != len(sigmaIdx) || len(tIdx) != len(values) {
		return fmt.Errorf("%w: t=%d sigma=%d values=%d", ErrLengthMismatch, len(tIdx), len(sigmaIdx), len(values))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	keys := make([]cellKey, len(tIdx))
	for i := range tIdx {
		sigma, err := core.ParseDecimal(sigmaIdx[i])
		if err != nil {
			return fmt.Errorf("cell %d: sigma index: %w", i, err)
		}
		if values[i] == nil || values[i].Sign() < 0 {
			return fmt.Errorf("cell %d: value must be a non-negative integer", i)
		}
		keys[i] = cellKey{t: tIdx[i], sigma: core.NumericString(sigma)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range keys {
		m.cells[k] = new(big.Int).Set(values[i])
	}
	m.batches++
	return nil
}

// Get returns the stored value of one cell.
func (m *Memory) Get(tIdx int64, sigmaIdx string) (*big.Int, error) {
	sigma, err := core.ParseDecimal(sigmaIdx)
	if err != nil {
		return nil, fmt.Errorf("sigma index: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cells[cellKey{t: tIdx, sigma: core.NumericString(sigma)}]
	if !ok {
		return nil, ErrNotFound
	}
	return new(big.Int).Set(v), nil
}

// Len returns the number of stored cells.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cells)
}

// Batches returns the number of confirmed SetBatch calls.
func (m *Memory) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// RecordLoad keeps the run summary in memory.
func (m *Memory) RecordLoad(_ context.Context, rec core.LoadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, rec)
	return nil
}

// Loads returns the recorded runs, oldest first.
func (m *Memory) Loads() []core.LoadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.LoadRecord, len(m.loads))
	copy(out, m.loads)
	return out
}

// ResetCells drops every stored cell and returns how many there were.
func (m *Memory) ResetCells(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.cells))
	m.cells = make(map[cellKey]*big.Int)
	return n, nil
}

// ResetLoads drops the recorded runs and returns how many there were.
func (m *Memory) ResetLoads(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.loads))
	m.loads = nil
	return n, nil
}
