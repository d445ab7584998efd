// Package dataset holds the tabular frame passed between ingestion,
// transformation and inference, together with its CSV codec.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Frame is an ordered set of named columns with string cells.
// Rows[i][j] is the value of Columns[j] in row i.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// CellError reports a cell that could not be interpreted.
type CellError struct {
	Column string
	Row    int // 0-based data row, header excluded
	Value  string
	Reason string
}

func (e *CellError) Error() string {
	return "column " + strconv.Quote(e.Column) + " row " + strconv.Itoa(e.Row) + ": " + e.Reason + " (got: " + strconv.Quote(e.Value) + ")"
}

// IsMissing reports whether a cell holds one of the missing-value markers:
// the empty string, NA, NaN or null (case-insensitive, surrounding space ignored).
func IsMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}

// New builds a frame and checks that every row has one cell per column.
func New(columns []string, rows [][]string) (*Frame, error) {
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDimensionError("dataset.New", len(columns), len(row), 1)
		}
	}
	return &Frame{Columns: columns, Rows: rows}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the position of the named column or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Missing returns the names from want that the frame does not have, in the order given.
func (f *Frame) Missing(want []string) []string {
	var out []string
	for _, w := range want {
		if f.Index(w) < 0 {
			out = append(out, w)
		}
	}
	return out
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	j := f.Index(name)
	if j < 0 {
		return nil, errors.NewValidationError("column", "not present in frame", name)
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out, nil
}

// Floats parses the named column as float64. Missing cells become NaN;
// any other unparsable cell is a CellError.
func (f *Frame) Floats(name string) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(col))
	for i, cell := range col {
		if IsMissing(cell) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, errors.WithStack(&CellError{Column: name, Row: i, Value: cell, Reason: "not a number"})
		}
		out[i] = v
	}
	return out, nil
}

// Select returns a frame with only the named columns, in the order given.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		idx[k] = f.Index(n)
		if idx[k] < 0 {
			return nil, errors.NewValidationError("column", "not present in frame", n)
		}
	}
	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		out := make([]string, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return &Frame{Columns: append([]string(nil), names...), Rows: rows}, nil
}

// Drop returns a frame without the named column. Dropping an absent column is a no-op.
func (f *Frame) Drop(name string) *Frame {
	j := f.Index(name)
	if j < 0 {
		return f
	}
	cols := make([]string, 0, len(f.Columns)-1)
	cols = append(cols, f.Columns[:j]...)
	cols = append(cols, f.Columns[j+1:]...)
	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		out := make([]string, 0, len(row)-1)
		out = append(out, row[:j]...)
		rows[i] = append(out, row[j+1:]...)
	}
	return &Frame{Columns: cols, Rows: rows}
}

// Take returns the rows at idx, in that order.
func (f *Frame) Take(idx []int) *Frame {
	rows := make([][]string, len(idx))
	for k, i := range idx {
		rows[k] = f.Rows[i]
	}
	return &Frame{Columns: f.Columns, Rows: rows}
}
