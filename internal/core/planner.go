package core

import "fmt"

// Flatten turns a validated table into the ordered cell sequence the ledger
// receives: rows in table order, and within a row, columns in table order.
// Index and encoding failures carry the offending row.
func Flatten(t *RawTable, dims Dimensions) ([]EncodedCell, error) {
	cells := make([]EncodedCell, 0, dims.Cells())

	for i, row := range t.Rows {
		for _, c := range row.Cells {
			tIdx, sigmaIdx, err := ExpandIndex(i, c.Header, row.Label)
			if err != nil {
				return nil, err
			}
			v, err := EncodeFixedPoint(c.Value)
			if err != nil {
				return nil, &EncodingError{Row: i, Header: c.Header, Value: c.Value, Err: err}
			}
			cells = append(cells, EncodedCell{TIndex: tIdx, SigmaIndex: sigmaIdx, Value: v})
		}
	}

	if len(cells) != dims.Cells() {
		return nil, &CountMismatch{Expected: dims.Cells(), Actual: len(cells)}
	}
	return cells, nil
}

// Chunk splits cells into contiguous batches of size cells each. The last
// batch may be shorter but is never empty. Batches share the backing array
// of cells and preserve its order.
func Chunk(cells []EncodedCell, size int) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	batches := make([]Batch, 0, (len(cells)+size-1)/size)
	for start := 0; start < len(cells); start += size {
		end := min(start+size, len(cells))
		batches = append(batches, Batch{
			Index: len(batches),
			Start: start,
			Cells: cells[start:end:end],
		})
	}
	return batches, nil
}

// PlanBatches flattens a validated table and chunks it with dims.ChunkSize().
func PlanBatches(t *RawTable, dims Dimensions) ([]Batch, int, error) {
	cells, err := Flatten(t, dims)
	if err != nil {
		return nil, 0, err
	}
	batches, err := Chunk(cells, dims.ChunkSize())
	if err != nil {
		return nil, 0, err
	}
	return batches, len(cells), nil
}
