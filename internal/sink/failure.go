package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// failureHeader is kept verbatim from the original tooling so downstream
// log parsers keep working.
const failureHeader = "address, reason, txhash\n"

// Failures is the append-only failure log: one line per skipped or failed
// recipient with the specific reason.
type Failures struct {
	path string
	file *os.File
}

// OpenFailures creates (or truncates) the failure log and writes its header.
func OpenFailures(path string) (*Failures, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create failure log dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create failure log: %w", err)
	}
	if _, err := io.WriteString(f, failureHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write failure log header: %w", err)
	}
	return &Failures{path: path, file: f}, nil
}

// Write appends one failure line. Detail is optional.
func (f *Failures) Write(address, reason, detail string) error {
	line := address + ", " + reason
	if detail != "" {
		line += ", " + detail
	}
	if _, err := io.WriteString(f.file, line+"\n"); err != nil {
		return fmt.Errorf("append failure line: %w", err)
	}
	return nil
}

// Rotate closes the log and renames it with the run suffix.
func (f *Failures) Rotate(suffix string) error {
	if f.file == nil {
		return nil
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("close failure log: %w", err)
	}
	f.file = nil
	if err := os.Rename(f.path, f.path+"_"+suffix); err != nil {
		return fmt.Errorf("rotate failure log: %w", err)
	}
	return nil
}

// Close closes the log without rotating, for error paths.
func (f *Failures) Close() error {
	if f.file == nil {
		return nil
	}
	file := f.file
	f.file = nil
	return file.Close()
}
