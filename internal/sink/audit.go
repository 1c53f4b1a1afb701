// Package sink holds the run's append-only artifacts: the audit CSV of
// confirmed payments and the failure log. Rows are written once and never
// read back; after every run both files are rotated with a timestamp suffix
// so each run stays individually inspectable.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xrpdist/xrpdist/internal/csvio"
)

// auditHeader matches the original distribution tooling's output columns.
var auditHeader = []string{
	"address", "amount",
	"engine_result", "engine_result_code",
	"accepted", "applied", "broadcast", "kept", "queued",
	"txblob",
}

// AuditRow is one confirmed-success entry: the original request fields plus
// the node's engine result fields.
type AuditRow struct {
	Address          string
	Amount           string
	EngineResult     string
	EngineResultCode int
	Accepted         bool
	Applied          bool
	Broadcast        bool
	Kept             bool
	Queued           bool
	TxBlob           string
}

// Audit is the success CSV sink.
type Audit struct {
	path   string
	file   *os.File
	writer *csvio.RowWriter
}

// OpenAudit creates (or truncates) the audit CSV and writes its header.
func OpenAudit(path string) (*Audit, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create audit sink: %w", err)
	}
	w := csvio.NewRowWriter(f)
	if err := w.Write(auditHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write audit header: %w", err)
	}
	return &Audit{path: path, file: f, writer: w}, nil
}

// Write appends one row and flushes it to the OS immediately; audit rows
// must not sit in a buffer while the engine moves on.
func (a *Audit) Write(row AuditRow) error {
	record := []string{
		row.Address,
		row.Amount,
		row.EngineResult,
		strconv.Itoa(row.EngineResultCode),
		strconv.FormatBool(row.Accepted),
		strconv.FormatBool(row.Applied),
		strconv.FormatBool(row.Broadcast),
		strconv.FormatBool(row.Kept),
		strconv.FormatBool(row.Queued),
		row.TxBlob,
	}
	if err := a.writer.Write(record); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	return nil
}

// Rotate closes the sink and renames it with the run suffix.
func (a *Audit) Rotate(suffix string) error {
	if a.file == nil {
		return nil
	}
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("close audit sink: %w", err)
	}
	a.file = nil
	if err := os.Rename(a.path, a.path+"_"+suffix); err != nil {
		return fmt.Errorf("rotate audit sink: %w", err)
	}
	return nil
}

// Close closes the sink without rotating, for error paths.
func (a *Audit) Close() error {
	if a.file == nil {
		return nil
	}
	f := a.file
	a.file = nil
	return f.Close()
}
