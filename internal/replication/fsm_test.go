package replication

import (
	"bytes"
	"testing"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/types"
)

func applyCommand(t *testing.T, f *FSM, cmd Command) ApplyResult {
	t.Helper()
	data, err := EncodeCommand(cmd)
	require.NoError(t, err)
	result, ok := f.Apply(&raft.Log{Data: data}).(ApplyResult)
	require.True(t, ok)
	return result
}

func TestFSMDispatchesCreateStoreAndSet(t *testing.T) {
	f := NewFSM(engine.NewHandler())

	createCmd := Command{ClientID: "c1", RequestID: 1, Kind: CmdCreateStore, Store: "docs"}
	createCmd.CreateStore.Dimension = 2
	createCmd.CreateStore.ErrorIfExists = true
	result := applyCommand(t, f, createCmd)
	require.Nil(t, result.Err)

	setCmd := Command{ClientID: "c1", RequestID: 2, Kind: CmdSet, Store: "docs"}
	setCmd.Set.Inputs = []engine.Entry{{Key: types.StoreKey{1, 0}, Value: types.StoreValue{}}}
	result = applyCommand(t, f, setCmd)
	require.Nil(t, result.Err)
	assert.Equal(t, 1, result.Response.Upsert.Inserted)
}

func TestFSMReplaysCachedResponseForStaleRequestID(t *testing.T) {
	f := NewFSM(engine.NewHandler())

	createCmd := Command{ClientID: "c1", RequestID: 5, Kind: CmdCreateStore, Store: "docs"}
	createCmd.CreateStore.Dimension = 2
	createCmd.CreateStore.ErrorIfExists = true
	first := applyCommand(t, f, createCmd)
	require.Nil(t, first.Err)

	// Replaying the same (client, request id) must not re-execute — a
	// second CreateStore with ErrorIfExists would otherwise fail.
	replay := applyCommand(t, f, createCmd)
	assert.Equal(t, first, replay)

	// A strictly older request id for the same client also replays the
	// cached response rather than re-dispatching.
	stale := Command{ClientID: "c1", RequestID: 3, Kind: CmdCreateStore, Store: "docs"}
	stale.CreateStore.Dimension = 2
	stale.CreateStore.ErrorIfExists = true
	replayed := applyCommand(t, f, stale)
	assert.Equal(t, first, replayed)
}

func TestFSMMalformedPayloadDoesNotPoisonCache(t *testing.T) {
	f := NewFSM(engine.NewHandler())

	result, ok := f.Apply(&raft.Log{Data: []byte("not gob")}).(ApplyResult)
	require.True(t, ok)
	require.NotNil(t, result.Err)

	createCmd := Command{ClientID: "c1", RequestID: 1, Kind: CmdCreateStore, Store: "docs"}
	createCmd.CreateStore.Dimension = 2
	createCmd.CreateStore.ErrorIfExists = true
	fresh := applyCommand(t, f, createCmd)
	assert.Nil(t, fresh.Err)
}

// fakeSink is a minimal raft.SnapshotSink over an in-memory buffer.
type fakeSink struct {
	bytes.Buffer
	id string
}

func (s *fakeSink) ID() string      { return s.id }
func (s *fakeSink) Cancel() error   { return nil }
func (s *fakeSink) Close() error    { return nil }

func TestFSMSnapshotRoundTrip(t *testing.T) {
	handler := engine.NewHandler()
	f := NewFSM(handler)

	createCmd := Command{ClientID: "c1", RequestID: 1, Kind: CmdCreateStore, Store: "docs"}
	createCmd.CreateStore.Dimension = 2
	applyCommand(t, f, createCmd)
	setCmd := Command{ClientID: "c1", RequestID: 2, Kind: CmdSet, Store: "docs"}
	setCmd.Set.Inputs = []engine.Entry{{Key: types.StoreKey{1, 0}, Value: types.StoreValue{}}}
	applyCommand(t, f, setCmd)

	snap, err := f.Snapshot()
	require.NoError(t, err)
	sink := &fakeSink{id: "snap-1"}
	require.NoError(t, snap.Persist(sink))

	restoredHandler := engine.NewHandler()
	restored := NewFSM(restoredHandler)
	require.NoError(t, restored.Restore(&readCloser{Reader: bytes.NewReader(sink.Bytes())}))

	entries, err := restoredHandler.GetKeyInStore("docs", []types.StoreKey{{1, 0}})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// The idempotence cache survives the snapshot too: replaying (c1, 2)
	// against the restored FSM must not re-execute the Set.
	replay := applyCommand(t, restored, setCmd)
	assert.Equal(t, 1, replay.Response.Upsert.Inserted)
}

type readCloser struct {
	*bytes.Reader
}

func (r *readCloser) Close() error { return nil }
