package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":1369", cfg.ListenAddr)
	assert.Equal(t, 16, cfg.HNSW.M)
}

func TestLoadParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\nhnsw:\n  m: 32\n  ef_construction: 400\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 32, cfg.HNSW.M)
	assert.Equal(t, 400, cfg.HNSW.EfConstruction)
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\n"), 0o644))

	t.Setenv("AHNLICH_LISTEN_ADDR", ":9999")
	t.Setenv("AHNLICH_REPLICATION_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.True(t, cfg.Replication.Enabled)
}

func TestDefaultSnapshotInterval(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Default().Snapshot.Interval)
}
