package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/types"
)

func newSampleHandler(t *testing.T) *engine.Handler {
	t.Helper()
	handler := engine.NewHandler()
	require.NoError(t, handler.CreateStore("docs", 3, []string{"medal"}, nil, true))
	_, err := handler.SetInStore("docs", []engine.Entry{
		{
			Key:   types.StoreKey{1, 0, 0},
			Value: types.StoreValue{"medal": types.RawString("gold")},
		},
	})
	require.NoError(t, err)
	return handler
}

func TestWriteThenReadSnapshotFileRoundTrips(t *testing.T) {
	handler := newSampleHandler(t)
	path := filepath.Join(t.TempDir(), "snap.bin")

	require.NoError(t, writeSnapshotFile(path, handler.Export()))

	snap, err := readSnapshotFile(path)
	require.NoError(t, err)
	require.Len(t, snap.Stores, 1)
	assert.Equal(t, "docs", snap.Stores[0].Name)
	assert.Equal(t, 3, snap.Stores[0].Dimension)
	require.Len(t, snap.Stores[0].Entries, 1)
	assert.Equal(t, "gold", snap.Stores[0].Entries[0].Value["medal"].Str)
}

func TestWriteSnapshotFileIsAtomic(t *testing.T) {
	handler := newSampleHandler(t)
	path := filepath.Join(t.TempDir(), "snap.bin")

	require.NoError(t, writeSnapshotFile(path, handler.Export()))
	tmp := path + ".tmp"
	_, err := readSnapshotFile(tmp)
	assert.Error(t, err, "temp file should have been renamed away, not left behind")
}

func TestReadSnapshotFileMissingReturnsError(t *testing.T) {
	_, err := readSnapshotFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
