package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/dreamware/ahnlich-go/internal/engine"
)

// writeSnapshotFile gob-encodes snap to path, matching spec §6's "file
// format is implementation-chosen but must round-trip all invariants."
func writeSnapshotFile(path string, snap engine.Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// readSnapshotFile decodes a previously written snapshot file.
func readSnapshotFile(path string) (engine.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap engine.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
