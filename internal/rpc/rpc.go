// Package rpc specifies the wire-level request/response contract of spec §6
// as plain Go types: one struct pair per unary method, plus Pipeline. This
// is the contract a gRPC (or any other transport) server would implement
// against — no protobuf codegen or grpc.Server wiring lives here, since the
// transport itself is an external collaborator per spec §1's scope.
package rpc

import (
	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/types"
)

// Pong is Ping's response.
type Pong struct{}

// InfoServerResponse answers InfoServer.
type InfoServerResponse struct {
	Address   string
	Version   string
	Type      string
	Limit     int
	Remaining int
}

// ClientInfo describes one connected client, for ListClients.
type ClientInfo struct {
	Address string
}

// ListStoresResponse answers ListStores.
type ListStoresResponse struct {
	Stores []engine.StoreInfo
}

// CreateStoreRequest is CreateStore's input.
type CreateStoreRequest struct {
	Store             string
	Dimension         int
	CreatePredicates  []string
	NonLinearIndices  []nonlinear.Spec
	ErrorIfExists     bool
}

// CreatePredIndexRequest/Response cover CreatePredIndex.
type CreatePredIndexRequest struct {
	Store      string
	Predicates []string
}

type CreatedIndexesResponse struct {
	CreatedIndexes int
}

// CreateNonLinearAlgorithmIndexRequest covers that method.
type CreateNonLinearAlgorithmIndexRequest struct {
	Store            string
	NonLinearIndices []nonlinear.Spec
}

// DropPredIndexRequest/Response cover DropPredIndex.
type DropPredIndexRequest struct {
	Store             string
	Predicates        []string
	ErrorIfNotExists   bool
}

type DeletedCountResponse struct {
	DeletedCount int
}

// DropNonLinearAlgorithmIndexRequest covers that method.
type DropNonLinearAlgorithmIndexRequest struct {
	Store            string
	NonLinearIndices []nonlinear.Spec
	ErrorIfNotExists bool
}

// DropStoreRequest covers DropStore; its response reuses
// DeletedCountResponse, whose DeletedCount is always 0 or 1.
type DropStoreRequest struct {
	Store            string
	ErrorIfNotExists bool
}

// SetRequest/Response cover Set.
type SetRequest struct {
	Store  string
	Inputs []engine.Entry
}

type SetResponse struct {
	Upsert engine.UpsertCount
}

// DelKeyRequest covers DelKey.
type DelKeyRequest struct {
	Store string
	Keys  []types.StoreKey
}

// DelPredRequest covers DelPred.
type DelPredRequest struct {
	Store     string
	Condition *types.Condition
}

// GetKeyRequest/EntriesResponse cover GetKey.
type GetKeyRequest struct {
	Store string
	Keys  []types.StoreKey
}

type EntriesResponse struct {
	Entries []engine.Entry
}

// GetPredRequest covers GetPred; its response reuses EntriesResponse.
type GetPredRequest struct {
	Store     string
	Condition *types.Condition
}

// GetSimNRequest/ScoredEntriesResponse cover GetSimN.
type GetSimNRequest struct {
	Store       string
	SearchInput types.StoreKey
	ClosestN    int
	Algorithm   string
	Condition   *types.Condition
}

type ScoredEntriesResponse struct {
	Entries []engine.Scored
}

// Result is a per-request outcome in a Pipeline response: exactly one of
// Response or Err is set, per spec §5's "isolate errors per element."
type Result[T any] struct {
	Response T
	Err      *Error
}

// Error mirrors spec §6/§7's {message, code} wire shape.
type Error struct {
	Message string
	Code    int
}

// DbResponse is the tagged union of every possible unary response, used as
// Pipeline's per-request result payload. Exactly one field is populated,
// matching whichever request occupied the same slot.
type DbResponse struct {
	Pong                  *Pong
	InfoServer            *InfoServerResponse
	ListClients           *[]ClientInfo
	ListStores            *ListStoresResponse
	Unit                  *struct{}
	CreatedIndexes        *CreatedIndexesResponse
	DeletedCount          *DeletedCountResponse
	Set                   *SetResponse
	Entries               *EntriesResponse
	ScoredEntries         *ScoredEntriesResponse
}

// PipelineRequest is one of the DbRequest variants carried in an ordered
// pipeline; Server dispatches on whichever field is non-nil.
type PipelineRequest struct {
	Ping                            *struct{}
	InfoServer                      *struct{}
	ListClients                     *struct{}
	ListStores                      *struct{}
	CreateStore                     *CreateStoreRequest
	CreatePredIndex                 *CreatePredIndexRequest
	CreateNonLinearAlgorithmIndex   *CreateNonLinearAlgorithmIndexRequest
	DropPredIndex                   *DropPredIndexRequest
	DropNonLinearAlgorithmIndex     *DropNonLinearAlgorithmIndexRequest
	DropStore                       *DropStoreRequest
	Set                             *SetRequest
	DelKey                          *DelKeyRequest
	DelPred                         *DelPredRequest
	GetKey                          *GetKeyRequest
	GetPred                         *GetPredRequest
	GetSimN                         *GetSimNRequest
}

// PipelineResult is Pipeline's response: one Result[DbResponse] per request,
// in request order, never aborting the batch on a single element's failure.
type PipelineResult struct {
	Responses []Result[DbResponse]
}
