package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyTable is returned when the file has no header record.
var ErrEmptyTable = errors.New("empty file")

// ReadTable parses a K-table CSV.
//
// The first record is the header: the label column header (usually empty)
// followed by the sigma headers. Every following record is a row label and
// its coefficients. Fully empty records are skipped. Empty cells are dropped,
// so a row with a blank coefficient comes out short and fails ValidateShape.
func ReadTable(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(WrapTableReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	table := &RawTable{LabelHeader: CleanCell(header[0])}
	for _, h := range header[1:] {
		table.Headers = append(table.Headers, CleanCell(h))
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row %d: %w", len(table.Rows), err)
		}
		if isEmptyRow(record) {
			continue
		}

		line, _ := cr.FieldPos(0)
		row := Row{Line: line, Label: -1, RawLabel: CleanCell(record[0])}
		if label, err := strconv.ParseInt(row.RawLabel, 10, 64); err == nil {
			row.Label = label
		}
		for i, v := range record[1:] {
			v = CleanCell(v)
			if v == "" {
				continue
			}
			h := ""
			if i < len(table.Headers) {
				h = table.Headers[i]
			}
			row.Cells = append(row.Cells, Cell{Header: h, Value: v})
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ValidateShape checks, in order: row count, header width, then for every row
// its data column count and its label. It returns a *ShapeMismatch for the
// first violation.
func ValidateShape(t *RawTable, dims Dimensions) error {
	if len(t.Rows) != dims.T {
		return &ShapeMismatch{Field: "rows", Row: -1, Expected: int64(dims.T), Actual: int64(len(t.Rows))}
	}
	if n := countNonEmpty(t.Headers); n != dims.Sigma {
		return &ShapeMismatch{Field: "headers", Row: -1, Expected: int64(dims.Sigma), Actual: int64(n)}
	}

	for i, row := range t.Rows {
		if len(row.Cells) != dims.Sigma {
			return &ShapeMismatch{
				Field:    "columns",
				Row:      i,
				Line:     row.Line,
				Expected: int64(dims.Sigma),
				Actual:   int64(len(row.Cells)),
			}
		}
		for _, c := range row.Cells {
			if c.Header == "" {
				return &ShapeMismatch{
					Field:    "columns",
					Row:      i,
					Line:     row.Line,
					Expected: int64(dims.Sigma),
					Actual:   int64(len(row.Cells)),
					Detail:   "value under an empty header",
				}
			}
		}
		want := int64(LabelStep * i)
		if row.Label != want {
			sm := &ShapeMismatch{Field: "label", Row: i, Line: row.Line, Expected: want, Actual: row.Label}
			if row.Label < 0 {
				sm.Detail = fmt.Sprintf("label %q is not a non-negative integer", row.RawLabel)
			}
			return sm
		}
	}
	return nil
}

// LoadTable opens, reads and validates the table at path.
func LoadTable(path string, dims Dimensions) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	if err := ValidateShape(t, dims); err != nil {
		return nil, err
	}
	return t, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func countNonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
