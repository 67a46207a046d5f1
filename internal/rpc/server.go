package rpc

import (
	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Server implements the unary methods of spec §6 against one
// engine.Handler. It is transport-agnostic: whatever serves gRPC (or any
// other protocol) over the wire calls these methods directly.
type Server struct {
	handler *engine.Handler
	address string
	version string
	limit   int
}

func NewServer(handler *engine.Handler, address, version string, limit int) *Server {
	return &Server{handler: handler, address: address, version: version, limit: limit}
}

func (s *Server) Ping() Pong { return Pong{} }

func (s *Server) InfoServer() InfoServerResponse {
	stores := s.handler.ListStores()
	return InfoServerResponse{
		Address:   s.address,
		Version:   s.version,
		Type:      "database",
		Limit:     s.limit,
		Remaining: s.limit - len(stores),
	}
}

// ListClients has no client registry of its own to report on in this
// transport-agnostic form; it always returns an empty list. A real server
// binding connections to a transport would populate this from its listener.
func (s *Server) ListClients() []ClientInfo { return nil }

func (s *Server) ListStores() ListStoresResponse {
	return ListStoresResponse{Stores: s.handler.ListStores()}
}

func (s *Server) CreateStore(req CreateStoreRequest) error {
	return s.handler.CreateStore(req.Store, req.Dimension, req.CreatePredicates, req.NonLinearIndices, req.ErrorIfExists)
}

func (s *Server) CreatePredIndex(req CreatePredIndexRequest) (CreatedIndexesResponse, error) {
	n, err := s.handler.CreatePredIndex(req.Store, req.Predicates)
	return CreatedIndexesResponse{CreatedIndexes: n}, err
}

func (s *Server) CreateNonLinearAlgorithmIndex(req CreateNonLinearAlgorithmIndexRequest) (CreatedIndexesResponse, error) {
	n, err := s.handler.CreateNonLinearAlgorithmIndex(req.Store, req.NonLinearIndices)
	return CreatedIndexesResponse{CreatedIndexes: n}, err
}

func (s *Server) DropPredIndex(req DropPredIndexRequest) (DeletedCountResponse, error) {
	n, err := s.handler.DropPredIndexInStore(req.Store, req.Predicates, req.ErrorIfNotExists)
	return DeletedCountResponse{DeletedCount: n}, err
}

func (s *Server) DropNonLinearAlgorithmIndex(req DropNonLinearAlgorithmIndexRequest) (DeletedCountResponse, error) {
	n, err := s.handler.DropNonLinearAlgorithmIndex(req.Store, req.NonLinearIndices, req.ErrorIfNotExists)
	return DeletedCountResponse{DeletedCount: n}, err
}

func (s *Server) DropStore(req DropStoreRequest) (DeletedCountResponse, error) {
	n, err := s.handler.DropStore(req.Store, req.ErrorIfNotExists)
	return DeletedCountResponse{DeletedCount: n}, err
}

func (s *Server) Set(req SetRequest) (SetResponse, error) {
	count, err := s.handler.SetInStore(req.Store, req.Inputs)
	return SetResponse{Upsert: count}, err
}

func (s *Server) DelKey(req DelKeyRequest) (DeletedCountResponse, error) {
	n, err := s.handler.DelKeyInStore(req.Store, req.Keys)
	return DeletedCountResponse{DeletedCount: n}, err
}

func (s *Server) DelPred(req DelPredRequest) (DeletedCountResponse, error) {
	n, err := s.handler.DelPredInStore(req.Store, req.Condition)
	return DeletedCountResponse{DeletedCount: n}, err
}

func (s *Server) GetKey(req GetKeyRequest) (EntriesResponse, error) {
	entries, err := s.handler.GetKeyInStore(req.Store, req.Keys)
	return EntriesResponse{Entries: entries}, err
}

func (s *Server) GetPred(req GetPredRequest) (EntriesResponse, error) {
	entries, err := s.handler.GetPredInStore(req.Store, req.Condition)
	return EntriesResponse{Entries: entries}, err
}

func (s *Server) GetSimN(req GetSimNRequest) (ScoredEntriesResponse, error) {
	scored, err := s.handler.GetSimInStore(req.Store, req.SearchInput, req.ClosestN, req.Algorithm, req.Condition)
	return ScoredEntriesResponse{Entries: scored}, err
}

// Pipeline runs each request against the handler in order, isolating
// failures per element: one request failing never aborts the rest of the
// batch, per spec §5's ordering guarantee.
func (s *Server) Pipeline(requests []PipelineRequest) PipelineResult {
	log := logging.Named("rpc")
	results := make([]Result[DbResponse], len(requests))

	for i, req := range requests {
		resp, err := s.dispatch(req)
		if err != nil {
			log.Debugw("pipeline element failed", "index", i, "err", err)
			results[i] = Result[DbResponse]{Err: toWireError(err)}
			continue
		}
		results[i] = Result[DbResponse]{Response: resp}
	}

	return PipelineResult{Responses: results}
}

func (s *Server) dispatch(req PipelineRequest) (DbResponse, error) {
	switch {
	case req.Ping != nil:
		p := s.Ping()
		return DbResponse{Pong: &p}, nil
	case req.InfoServer != nil:
		info := s.InfoServer()
		return DbResponse{InfoServer: &info}, nil
	case req.ListClients != nil:
		clients := s.ListClients()
		return DbResponse{ListClients: &clients}, nil
	case req.ListStores != nil:
		list := s.ListStores()
		return DbResponse{ListStores: &list}, nil
	case req.CreateStore != nil:
		if err := s.CreateStore(*req.CreateStore); err != nil {
			return DbResponse{}, err
		}
		return DbResponse{Unit: &struct{}{}}, nil
	case req.CreatePredIndex != nil:
		resp, err := s.CreatePredIndex(*req.CreatePredIndex)
		return DbResponse{CreatedIndexes: &resp}, err
	case req.CreateNonLinearAlgorithmIndex != nil:
		resp, err := s.CreateNonLinearAlgorithmIndex(*req.CreateNonLinearAlgorithmIndex)
		return DbResponse{CreatedIndexes: &resp}, err
	case req.DropPredIndex != nil:
		resp, err := s.DropPredIndex(*req.DropPredIndex)
		return DbResponse{DeletedCount: &resp}, err
	case req.DropNonLinearAlgorithmIndex != nil:
		resp, err := s.DropNonLinearAlgorithmIndex(*req.DropNonLinearAlgorithmIndex)
		return DbResponse{DeletedCount: &resp}, err
	case req.DropStore != nil:
		resp, err := s.DropStore(*req.DropStore)
		return DbResponse{DeletedCount: &resp}, err
	case req.Set != nil:
		resp, err := s.Set(*req.Set)
		return DbResponse{Set: &resp}, err
	case req.DelKey != nil:
		resp, err := s.DelKey(*req.DelKey)
		return DbResponse{DeletedCount: &resp}, err
	case req.DelPred != nil:
		resp, err := s.DelPred(*req.DelPred)
		return DbResponse{DeletedCount: &resp}, err
	case req.GetKey != nil:
		resp, err := s.GetKey(*req.GetKey)
		return DbResponse{Entries: &resp}, err
	case req.GetPred != nil:
		resp, err := s.GetPred(*req.GetPred)
		return DbResponse{Entries: &resp}, err
	case req.GetSimN != nil:
		resp, err := s.GetSimN(*req.GetSimN)
		return DbResponse{ScoredEntries: &resp}, err
	default:
		return DbResponse{}, vdberr.InvalidArgument("pipeline element carries no request")
	}
}

func toWireError(err error) *Error {
	return &Error{Message: err.Error(), Code: int(vdberr.CodeOf(err))}
}
