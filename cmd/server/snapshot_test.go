package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreCmdReadsWrittenFile(t *testing.T) {
	handler := newSampleHandler(t)
	path := filepath.Join(t.TempDir(), "snap.bin")
	require.NoError(t, writeSnapshotFile(path, handler.Export()))

	snapshotRestoreCmd.SetArgs([]string{path})
	require.NoError(t, snapshotRestoreCmd.RunE(snapshotRestoreCmd, []string{path}))
}

func TestSnapshotVerifyCmdAcceptsRoundTrippableFile(t *testing.T) {
	handler := newSampleHandler(t)
	path := filepath.Join(t.TempDir(), "snap.bin")
	require.NoError(t, writeSnapshotFile(path, handler.Export()))

	require.NoError(t, snapshotVerifyCmd.RunE(snapshotVerifyCmd, []string{path}))
}

func TestSnapshotVerifyCmdRejectsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bin")
	require.Error(t, snapshotVerifyCmd.RunE(snapshotVerifyCmd, []string{path}))
}
