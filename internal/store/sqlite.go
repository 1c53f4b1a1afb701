package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps the distribution set in a SQLite database. Useful when
// the distribution list outgrows a flat file; the JSON file backend remains
// the default.
//
// Inserts are durable immediately, so Persist is a no-op.
type SQLiteStore struct {
	db *sql.DB

	order []string
	set   map[string]struct{}
}

// OpenSQLite creates or opens the bookkeeping database at the given path.
// Safe to call on an existing database; the schema is idempotent.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open bookkeeping database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect bookkeeping database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY from the engine's sequential writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply bookkeeping schema: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		set: make(map[string]struct{}),
	}, nil
}

// Load reads all recorded addresses in insertion order.
func (s *SQLiteStore) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT address FROM distributed_accounts ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("load distributed accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return fmt.Errorf("scan distributed account: %w", err)
		}
		if _, ok := s.set[addr]; !ok {
			s.set[addr] = struct{}{}
			s.order = append(s.order, addr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load distributed accounts: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Contains(address string) bool {
	_, ok := s.set[address]
	return ok
}

// Add inserts the address; the write is durable once this returns.
func (s *SQLiteStore) Add(ctx context.Context, address string) error {
	if _, ok := s.set[address]; ok {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO distributed_accounts (address, seq)
		VALUES (?, ?)
		ON CONFLICT(address) DO NOTHING
	`, address, len(s.order)+1)
	if err != nil {
		return fmt.Errorf("record distributed account: %w", err)
	}
	s.set[address] = struct{}{}
	s.order = append(s.order, address)
	return nil
}

// Persist is a no-op: Add is already durable.
func (s *SQLiteStore) Persist(context.Context) error {
	return nil
}

// Accounts returns the recorded addresses in insertion order.
func (s *SQLiteStore) Accounts() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
