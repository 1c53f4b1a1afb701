// Package csvio reads and writes the flat CSV formats the distribution
// tooling exchanges with operators: the address,amount input list and the
// per-run output artifacts.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one header-keyed input record with trimmed cells.
type Row map[string]string

// ReadRows parses header-keyed CSV records. Cells are trimmed, the literal
// string "null" (any case) reads as empty, and blank lines are skipped.
// Short rows are tolerated; missing cells read as empty strings.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty, expected a header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			var cell string
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			if strings.EqualFold(cell, "null") {
				cell = ""
			}
			row[name] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// RowWriter writes CSV records one at a time, flushing after every record.
// Output uses CRLF line endings to match the artifacts the original tooling
// produced.
type RowWriter struct {
	w *csv.Writer
}

// NewRowWriter wraps w in a per-record flushing CSV writer.
func NewRowWriter(w io.Writer) *RowWriter {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return &RowWriter{w: cw}
}

// Write writes one record and flushes it.
func (rw *RowWriter) Write(record []string) error {
	if err := rw.w.Write(record); err != nil {
		return err
	}
	rw.w.Flush()
	return rw.w.Error()
}
