package hnsw

import (
	"sort"

	"github.com/dreamware/ahnlich-go/internal/types"
)

// KnnSearch returns the k nodes nearest to query, in ascending-distance
// order (spec §4.7's knn_search: greedy descent through the upper layers
// with ef=1, then a widened search at layer 0). filter, if non-nil,
// restricts the result to nodes for which it returns true, without
// truncating traversal through excluded nodes — the same semantics as the
// k-d tree's filtered search, for predicate-scoped similarity queries.
func (idx *Index) KnnSearch(query types.StoreKey, k int, ef int, filter func(NodeId) bool) []Result {
	if k <= 0 {
		return nil
	}
	idx.mu.RLock()
	entryPoints := append([]NodeId(nil), idx.entryPoints...)
	topMostLayer := idx.topMostLayer
	idx.mu.RUnlock()

	if len(entryPoints) == 0 {
		return nil
	}
	if ef < k {
		ef = k
	}

	probe := &nodeRecord{embedding: query}
	cur := entryPoints
	for l := topMostLayer; l > 0; l-- {
		found := idx.searchLayer(probe, cur, 1, l, nil)
		if len(found) > 0 {
			cur = []NodeId{found[0].id}
		}
	}

	found := idx.searchLayer(probe, cur, ef, 0, filter)
	sort.Slice(found, func(i, j int) bool { return found[i].dist < found[j].dist })
	if len(found) > k {
		found = found[:k]
	}

	out := make([]Result, len(found))
	for i, c := range found {
		n, ok := idx.nodes.Load(c.id)
		if !ok {
			continue
		}
		out[i] = Result{Id: c.id, Embedding: n.embedding, Distance: c.dist}
	}
	return out
}

// Result is one entry of a KnnSearch result set.
type Result struct {
	Id        NodeId
	Embedding types.StoreKey
	Distance  float64
}
