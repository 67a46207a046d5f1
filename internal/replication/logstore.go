package replication

import (
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
)

// LogStore bundles the raft.LogStore and raft.StableStore contracts spec
// §4.8 calls "pluggable log storage": save/read vote, save/read committed
// log id, append-range, delete-conflict-since, purge-upto, range-scan.
type LogStore interface {
	raft.LogStore
	raft.StableStore
}

// NewInMemoryLogStore returns the in-memory pluggable log store.
func NewInMemoryLogStore() LogStore {
	return raft.NewInmemStore()
}

// NewBoltLogStore returns the on-disk pluggable log store, keyed by
// big-endian log index, per spec §4.8.
func NewBoltLogStore(path string) (LogStore, error) {
	return raftboltdb.NewBoltStore(path)
}
