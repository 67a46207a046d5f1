// Package replication wraps an engine.Handler in a hashicorp/raft FSM,
// giving every mutating StoreHandler operation replicated, at-most-once
// semantics per spec §4.8. Commands are a tagged union (the same
// "sum-typed" shape the predicate Condition grammar uses) so Apply can
// exhaustively switch rather than type-assert a decoded payload.
package replication

import (
	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/types"
)

type CommandKind int

const (
	CmdCreateStore CommandKind = iota
	CmdCreatePredIndex
	CmdCreateNonLinearAlgorithmIndex
	CmdSet
	CmdDropPredIndex
	CmdDropNonLinearAlgorithmIndex
	CmdDelKey
	CmdDelPred
	CmdDropStore
)

// Command is the payload carried by every raft.Log entry. ClientID and
// RequestID drive the at-most-once replay check in Apply; exactly one of
// the Kind-matching fields below is populated.
type Command struct {
	ClientID  string
	RequestID uint64
	Kind      CommandKind

	Store string

	CreateStore struct {
		Dimension        int
		CreatePredicates []string
		NonLinearIndices []nonlinear.Spec
		ErrorIfExists    bool
	}

	CreatePredIndex struct {
		Predicates []string
	}

	CreateNonLinearAlgorithmIndex struct {
		NonLinearIndices []nonlinear.Spec
	}

	Set struct {
		Inputs []engine.Entry
	}

	DropPredIndex struct {
		Predicates       []string
		ErrorIfNotExists bool
	}

	DropNonLinearAlgorithmIndex struct {
		NonLinearIndices []nonlinear.Spec
		ErrorIfNotExists bool
	}

	DelKey struct {
		Keys []types.StoreKey
	}

	DelPred struct {
		Condition *types.Condition
	}

	DropStore struct {
		ErrorIfNotExists bool
	}
}
