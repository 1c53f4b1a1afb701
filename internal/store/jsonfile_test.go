package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileLoadsEmpty(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "distributed.json"))
	require.NoError(t, st.Load(context.Background()))
	assert.Empty(t, st.Accounts())
}

func TestFileStore_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "distributed.json")

	st := NewFileStore(path)
	require.NoError(t, st.Load(ctx))
	require.NoError(t, st.Add(ctx, "rAAA"))
	require.NoError(t, st.Add(ctx, "rBBB"))
	require.NoError(t, st.Persist(ctx))

	reloaded := NewFileStore(path)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{"rAAA", "rBBB"}, reloaded.Accounts())
	assert.True(t, reloaded.Contains("rAAA"))
	assert.False(t, reloaded.Contains("rCCC"))
}

func TestFileStore_FileFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "distributed.json")

	st := NewFileStore(path)
	require.NoError(t, st.Add(ctx, "rAAA"))
	require.NoError(t, st.Persist(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accounts":["rAAA"]}`, string(data))
}

func TestFileStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewFileStore(filepath.Join(t.TempDir(), "distributed.json"))

	require.NoError(t, st.Add(ctx, "rAAA"))
	require.NoError(t, st.Add(ctx, "rAAA"))
	assert.Equal(t, []string{"rAAA"}, st.Accounts())
}

func TestFileStore_PersistReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "distributed.json")

	st := NewFileStore(path)
	require.NoError(t, st.Add(ctx, "rAAA"))
	require.NoError(t, st.Persist(ctx))
	require.NoError(t, st.Add(ctx, "rBBB"))
	require.NoError(t, st.Persist(ctx))

	// The rewrite leaves no temp files behind and the set only grows.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "distributed.json", entries[0].Name())

	reloaded := NewFileStore(path)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{"rAAA", "rBBB"}, reloaded.Accounts())
}

func TestFileStore_CorruptFileFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distributed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	st := NewFileStore(path)
	err := st.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse accounts file")
}

func TestOpen_DispatchesOnBackend(t *testing.T) {
	dir := t.TempDir()

	fileStore, err := Open(BackendFile, filepath.Join(dir, "distributed.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fileStore)

	sqliteStore, err := Open(BackendSQLite, filepath.Join(dir, "distributed.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.Close())

	_, err = Open("redis", "somewhere")
	assert.Error(t, err)
}
