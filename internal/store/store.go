// Package store holds the distribution bookkeeping: the durable set of
// addresses already confirmed paid in this or a prior run.
//
// The set only ever grows. Removing an address would risk a double pay on
// the next run, so no backend exposes a delete.
package store

import (
	"context"
	"fmt"
)

// Backend names for Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is the distribution bookkeeping contract the engine depends on.
//
// Add records an address in memory; Persist makes the current set durable.
// Backends with immediately durable writes may make Persist a no-op, but
// callers must still call it after every addition: the engine's correctness
// rests on the set being durable before the next network submission.
type Store interface {
	// Load reads the persisted set. A missing file or empty table loads as
	// the empty set, never as an error.
	Load(ctx context.Context) error

	// Contains reports whether the address is already recorded.
	Contains(address string) bool

	// Add records an address. Adding an existing address is a no-op.
	Add(ctx context.Context, address string) error

	// Persist makes the current set durable.
	Persist(ctx context.Context) error

	// Accounts returns the recorded addresses in insertion order.
	Accounts() []string

	Close() error
}

// Open creates a store for the named backend at the given path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown bookkeeping backend %q", backend)
	}
}
