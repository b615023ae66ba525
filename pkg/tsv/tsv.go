// Package tsv reads and writes header-first tab-separated files, addressing
// columns by header name.
package tsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

type Reader struct {
	r       *csv.Reader
	columns map[string]int
}

// NewReader consumes the header line and checks that every required column
// is present. Extra columns are allowed and ignored by Get.
func NewReader(r io.Reader, required ...string) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header line")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("header is missing column %q", name)
		}
	}

	return &Reader{r: cr, columns: columns}, nil
}

// Row is one data line keyed by header name.
type Row struct {
	Line   int
	fields []string
	cols   map[string]int
}

func (r Row) Get(column string) string {
	i, ok := r.cols[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Read returns the next row or io.EOF. A row whose field count differs from
// the header is an error.
func (r *Reader) Read() (Row, error) {
	fields, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("read row: %w", err)
	}

	line, _ := r.r.FieldPos(0)
	return Row{Line: line, fields: fields, cols: r.columns}, nil
}

type Writer struct {
	w       *csv.Writer
	columns []string
}

func NewWriter(w io.Writer, columns ...string) (*Writer, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: cw, columns: columns}, nil
}

// Write emits one row; values must be in header order.
func (w *Writer) Write(values ...string) error {
	if len(values) != len(w.columns) {
		return fmt.Errorf("row has %d values, header has %d columns", len(values), len(w.columns))
	}
	return w.w.Write(values)
}

func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
