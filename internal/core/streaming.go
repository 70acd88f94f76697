package core

// streaming.go wraps the table file reader:
//
//   - BOM skipping: spreadsheet programs on Windows prefix CSV exports with
//     the UTF-8 BOM (0xEF 0xBB 0xBF), which would otherwise end up in the
//     label column header.
//   - Size limiting: the K-table is a few kilobytes; anything much larger is
//     the wrong file.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxTableFileSize is the largest table file accepted (4MB).
var MaxTableFileSize int64 = 4 * 1024 * 1024

// ErrFileTooLarge is returned when a table file exceeds MaxTableFileSize.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// limitedReader fails with ErrFileTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, MaxTableFileSize)
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, MaxTableFileSize)
	}
	return n, err
}

// WrapTableReader applies BOM skipping and the size limit.
// The limit wraps the raw reader so the BOM counts toward it.
func WrapTableReader(r io.Reader) io.Reader {
	return NewBOMSkippingReader(&limitedReader{r: r, remaining: MaxTableFileSize})
}
