package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// ErrNoHeader is returned for an input without a header row.
var ErrNoHeader = errors.New("csv input has no header row")

// ReadCSV loads a frame from a CSV file with a header row.
// Malformed input surfaces as a *csv.ParseError carrying the line number.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(bufio.NewReader(file))
}

// Read decodes a frame from r. Every record must have as many fields as the header.
func Read(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return &Frame{Columns: columns, Rows: rows}, nil
}

// WriteCSV writes the frame with its header to path, creating parent directories.
func WriteCSV(path string, f *Frame) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Write encodes the frame to w.
func Write(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(f.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// ParseLine returns the line number carried by a CSV parse error, or 0.
func ParseLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}
