package sink

import (
	"fmt"
	"io"
	"os"
)

// SnapshotInput copies the input CSV next to the rotated sinks so the exact
// input that produced a run's artifacts is preserved with them. The input
// file itself is left in place for the next run.
func SnapshotInput(path, suffix string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input for snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + "_" + suffix)
	if err != nil {
		return fmt.Errorf("create input snapshot: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy input snapshot: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close input snapshot: %w", err)
	}
	return nil
}
