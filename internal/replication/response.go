package replication

import (
	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Response is the applied command's typed result (spec §4.8 step 4's
// "DbResponse{kind, payload}"), generalized across every mutating
// StoreHandler operation by giving each of its possible result shapes its
// own field.
type Response struct {
	Count  int
	Upsert engine.UpsertCount
}

// ApplyResult is what Apply returns (as interface{}, per the raft.FSM
// contract) and what gets cached per client for at-most-once replay.
// Exactly one of Response/Err is meaningful.
type ApplyResult struct {
	Response Response
	Err      *vdberr.Error
}
