package replication

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/hashicorp/raft"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

type cachedEntry struct {
	RequestID uint64
	Result    ApplyResult
}

// FSM wraps an engine.Handler as a raft.FSM (spec §4.8): every committed
// log entry decodes to a Command, is checked against the per-client
// idempotence cache, and is otherwise dispatched to the matching Handler
// method with §4.1's semantics.
type FSM struct {
	handler    *engine.Handler
	clientLast *xsync.MapOf[string, cachedEntry]
	log        *zap.SugaredLogger
}

func NewFSM(handler *engine.Handler) *FSM {
	return &FSM{
		handler:    handler,
		clientLast: xsync.NewMapOf[string, cachedEntry](),
		log:        logging.Named("replication"),
	}
}

// Apply implements raft.FSM. Malformed payloads fail as a storage-shaped
// internal error without touching the cache, per spec §4.8 step 2.
func (f *FSM) Apply(l *raft.Log) interface{} {
	var cmd Command
	if err := gobDecode(l.Data, &cmd); err != nil {
		f.log.Errorw("malformed command payload", "err", err)
		return ApplyResult{Err: &vdberr.Error{Code: vdberr.CodeInternal, Message: "malformed command payload"}}
	}

	if cached, ok := f.clientLast.Load(cmd.ClientID); ok && cached.RequestID >= cmd.RequestID {
		f.log.Debugw("replaying cached response", "client", cmd.ClientID, "request", cmd.RequestID)
		return cached.Result
	}

	result := f.dispatch(cmd)
	f.clientLast.Store(cmd.ClientID, cachedEntry{RequestID: cmd.RequestID, Result: result})
	return result
}

func (f *FSM) dispatch(cmd Command) ApplyResult {
	switch cmd.Kind {
	case CmdCreateStore:
		err := f.handler.CreateStore(cmd.Store, cmd.CreateStore.Dimension, cmd.CreateStore.CreatePredicates, cmd.CreateStore.NonLinearIndices, cmd.CreateStore.ErrorIfExists)
		return toResult(Response{}, err)
	case CmdCreatePredIndex:
		n, err := f.handler.CreatePredIndex(cmd.Store, cmd.CreatePredIndex.Predicates)
		return toResult(Response{Count: n}, err)
	case CmdCreateNonLinearAlgorithmIndex:
		n, err := f.handler.CreateNonLinearAlgorithmIndex(cmd.Store, cmd.CreateNonLinearAlgorithmIndex.NonLinearIndices)
		return toResult(Response{Count: n}, err)
	case CmdSet:
		count, err := f.handler.SetInStore(cmd.Store, cmd.Set.Inputs)
		return toResult(Response{Upsert: count}, err)
	case CmdDropPredIndex:
		n, err := f.handler.DropPredIndexInStore(cmd.Store, cmd.DropPredIndex.Predicates, cmd.DropPredIndex.ErrorIfNotExists)
		return toResult(Response{Count: n}, err)
	case CmdDropNonLinearAlgorithmIndex:
		n, err := f.handler.DropNonLinearAlgorithmIndex(cmd.Store, cmd.DropNonLinearAlgorithmIndex.NonLinearIndices, cmd.DropNonLinearAlgorithmIndex.ErrorIfNotExists)
		return toResult(Response{Count: n}, err)
	case CmdDelKey:
		n, err := f.handler.DelKeyInStore(cmd.Store, cmd.DelKey.Keys)
		return toResult(Response{Count: n}, err)
	case CmdDelPred:
		n, err := f.handler.DelPredInStore(cmd.Store, cmd.DelPred.Condition)
		return toResult(Response{Count: n}, err)
	case CmdDropStore:
		n, err := f.handler.DropStore(cmd.Store, cmd.DropStore.ErrorIfNotExists)
		return toResult(Response{Count: n}, err)
	default:
		return ApplyResult{Err: &vdberr.Error{Code: vdberr.CodeInternal, Message: "unknown command kind"}}
	}
}

func toResult(resp Response, err error) ApplyResult {
	if err == nil {
		return ApplyResult{Response: resp}
	}
	if vErr, ok := vdberr.As(err); ok {
		return ApplyResult{Err: vErr}
	}
	return ApplyResult{Err: &vdberr.Error{Code: vdberr.CodeInternal, Message: err.Error()}}
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// EncodeCommand gob-encodes cmd for submission via raft.Raft.Apply.
func EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cmd); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// snapshotPayload is what gets gob-encoded into a raft snapshot: the full
// engine.Snapshot plus the idempotence cache, per spec §4.8's snapshot
// contract.
type snapshotPayload struct {
	Engine     engine.Snapshot
	ClientLast map[string]cachedEntry
}

type fsmSnapshot struct {
	payload snapshotPayload
}

// Snapshot implements raft.FSM.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	clientLast := make(map[string]cachedEntry)
	f.clientLast.Range(func(k string, v cachedEntry) bool {
		clientLast[k] = v
		return true
	})
	return &fsmSnapshot{payload: snapshotPayload{
		Engine:     f.handler.Export(),
		ClientLast: clientLast,
	}}, nil
}

// Restore implements raft.FSM, atomically replacing both the store catalog
// and the idempotence cache.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var payload snapshotPayload
	if err := gob.NewDecoder(rc).Decode(&payload); err != nil {
		return err
	}
	if err := f.handler.Restore(payload.Engine); err != nil {
		return err
	}
	clientLast := xsync.NewMapOf[string, cachedEntry]()
	for k, v := range payload.ClientLast {
		clientLast.Store(k, v)
	}
	f.clientLast = clientLast
	return nil
}

// Persist implements raft.FSMSnapshot.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	enc := gob.NewEncoder(sink)
	if err := enc.Encode(s.payload); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

// Release implements raft.FSMSnapshot; there is no held resource to free.
func (s *fsmSnapshot) Release() {}
