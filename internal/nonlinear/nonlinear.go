// Package nonlinear dispatches between the two non-linear index backends a
// store can maintain (spec §4.1/§4.5): the k-d tree and the HNSW graph. Both
// are built once per (store, algorithm) pair at create_non_linear_algorithm_index
// time and torn down together at drop_non_linear_algorithm_index time.
package nonlinear

import (
	"github.com/dreamware/ahnlich-go/internal/hnsw"
	"github.com/dreamware/ahnlich-go/internal/kdtree"
	"github.com/dreamware/ahnlich-go/internal/similarity"
	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Kind names a non-linear index backend.
type Kind int

const (
	KDTree Kind = iota
	HNSW
)

func ParseKind(s string) (Kind, error) {
	switch s {
	case "kdtree", "KDTree":
		return KDTree, nil
	case "hnsw", "HNSW":
		return HNSW, nil
	default:
		return 0, vdberr.InvalidArgument("unknown non-linear algorithm: " + s)
	}
}

func (k Kind) String() string {
	if k == HNSW {
		return "HNSW"
	}
	return "KDTree"
}

// String renders a Spec as the wire-facing algorithm name, e.g. "HNSW-Cosine"
// or "KDTree-Euclidean" — the same shape a GetSimN request names its
// algorithm with when targeting a non-linear index.
func (s Spec) String() string {
	return s.Kind.String() + "-" + algorithmName(s.Algorithm)
}

func algorithmName(a similarity.Algorithm) string {
	switch a {
	case similarity.DotProduct:
		return "DotProduct"
	case similarity.Euclidean:
		return "Euclidean"
	default:
		return "Cosine"
	}
}

// ParseSpec parses a "<Kind>-<Algorithm>" name such as "HNSW-Cosine" into a
// Spec. Returns an error if the name doesn't name a known non-linear kind —
// callers use that to fall back to a linear algorithm.ParseAlgorithm try.
func ParseSpec(s string) (Spec, error) {
	for _, kind := range []Kind{KDTree, HNSW} {
		prefix := kind.String() + "-"
		if len(s) > len(prefix) && s[:len(prefix)] == prefix {
			algo, err := similarity.ParseAlgorithm(s[len(prefix):])
			if err != nil {
				return Spec{}, err
			}
			return Spec{Kind: kind, Algorithm: algo}, nil
		}
	}
	return Spec{}, vdberr.InvalidArgument("unknown non-linear algorithm: " + s)
}

// Spec names one non-linear index a store maintains: which backend, and
// which similarity kernel the graph is built and searched against (HNSW
// distances are an exact DistanceFunc of it; the k-d tree's own traversal
// stays geometric/Euclidean and Algorithm only re-scores the candidates it
// returns, since a binary-split tree can't honor an arbitrary metric).
type Spec struct {
	Kind      Kind
	Algorithm similarity.Algorithm
}

// Index wraps one concrete backend behind a single Insert/Delete/FindSimilarN
// surface, parameterized by Spec.
type Index struct {
	spec Spec
	kd   *kdtree.Tree
	hn   *hnsw.Index
}

const defaultHnswM = 16
const defaultEfConstruction = 200
const defaultEfSearch = 64

// New creates an empty index of the requested kind for vectors of dimension.
func New(dimension int, spec Spec) *Index {
	idx := &Index{spec: spec}
	switch spec.Kind {
	case HNSW:
		idx.hn = hnsw.New(dimension, hnsw.Config{M: defaultHnswM, EfConstruction: defaultEfConstruction}, hnsw.DistanceFor(spec.Algorithm))
	default:
		idx.kd = kdtree.New(dimension)
	}
	return idx
}

func (idx *Index) Kind() Kind { return idx.spec.Kind }

// Insert adds key to the index. A key already present is a no-op.
func (idx *Index) Insert(key types.StoreKey) {
	if idx.hn != nil {
		idx.hn.Insert(key)
		return
	}
	idx.kd.Insert(key)
}

// Delete removes key, reporting whether it was present.
func (idx *Index) Delete(key types.StoreKey) bool {
	if idx.hn != nil {
		return idx.hn.Delete(types.NewStoreKeyId(key))
	}
	_, ok := idx.kd.Delete(key)
	return ok
}

// FindSimilarN returns the n closest keys to query, best-first, using the
// ids allowed by filter (nil means every id is allowed) to scope the search
// the same way a predicate-filtered linear scan would (spec §4.5).
func (idx *Index) FindSimilarN(query types.StoreKey, n int, filter func(types.StoreKeyId) bool) []similarity.Scored[types.StoreKey] {
	if idx.hn != nil {
		return idx.hnswFindSimilarN(query, n, filter)
	}
	return idx.kdFindSimilarN(query, n, filter)
}

func (idx *Index) hnswFindSimilarN(query types.StoreKey, n int, filter func(types.StoreKeyId) bool) []similarity.Scored[types.StoreKey] {
	var nodeFilter func(hnsw.NodeId) bool
	if filter != nil {
		nodeFilter = func(id hnsw.NodeId) bool { return filter(types.StoreKeyId(id)) }
	}
	results := idx.hn.KnnSearch(query, n, defaultEfSearch, nodeFilter)
	out := make([]similarity.Scored[types.StoreKey], len(results))
	for i, r := range results {
		out[i] = similarity.Scored[types.StoreKey]{Item: r.Embedding, Similarity: similarity.Score(idx.spec.Algorithm, query, r.Embedding)}
	}
	return out
}

func (idx *Index) kdFindSimilarN(query types.StoreKey, n int, filter func(types.StoreKeyId) bool) []similarity.Scored[types.StoreKey] {
	var pointFilter func(types.StoreKey) bool
	if filter != nil {
		pointFilter = func(p types.StoreKey) bool { return filter(types.NewStoreKeyId(p)) }
	}
	points := idx.kd.FindSimilarNFiltered(query, n, pointFilter)
	identity := func(p types.StoreKey) types.StoreKey { return p }
	return similarity.Rank(idx.spec.Algorithm, query, points, identity, n)
}
