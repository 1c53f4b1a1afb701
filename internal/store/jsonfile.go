package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// accountsFile is the on-disk format: {"accounts": ["r...", ...]}.
// Readers tolerate an absent file as the empty set.
type accountsFile struct {
	Accounts []string `json:"accounts"`
}

// FileStore keeps the distribution set in a single JSON file, rewritten
// wholesale on every persist.
//
// The rewrite goes through a temp file in the same directory followed by a
// rename, so a crash mid-write can never corrupt the only record of prior
// successes: the old file stays intact until the new one is complete.
type FileStore struct {
	path string

	order []string
	set   map[string]struct{}
}

// NewFileStore creates a file store at path. Call Load before use.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		set:  make(map[string]struct{}),
	}
}

// Load reads the accounts file. A missing file loads as the empty set.
func (s *FileStore) Load(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read accounts file: %w", err)
	}

	var parsed accountsFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse accounts file %s: %w", s.path, err)
	}
	for _, addr := range parsed.Accounts {
		if _, ok := s.set[addr]; !ok {
			s.set[addr] = struct{}{}
			s.order = append(s.order, addr)
		}
	}
	return nil
}

func (s *FileStore) Contains(address string) bool {
	_, ok := s.set[address]
	return ok
}

func (s *FileStore) Add(_ context.Context, address string) error {
	if _, ok := s.set[address]; ok {
		return nil
	}
	s.set[address] = struct{}{}
	s.order = append(s.order, address)
	return nil
}

// Persist rewrites the whole file atomically.
func (s *FileStore) Persist(_ context.Context) error {
	data, err := json.Marshal(accountsFile{Accounts: s.Accounts()})
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create accounts dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp accounts file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp accounts file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}

// Accounts returns the recorded addresses in insertion order.
func (s *FileStore) Accounts() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *FileStore) Close() error {
	return nil
}
