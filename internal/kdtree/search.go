package kdtree

import (
	"container/heap"

	"github.com/dreamware/ahnlich-go/internal/types"
)

// neighbor is one entry in the bounded max-heap: the point and its squared
// distance to the query.
type neighbor struct {
	point types.StoreKey
	distSq float64
}

// maxHeap keeps the current n-nearest candidates with the worst (largest
// distance) at the top, so FindSimilarN can cheaply evict it when a closer
// point is found.
type maxHeap []neighbor

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].distSq > h[j].distSq }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(neighbor)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func squaredDistance(a, b types.StoreKey) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// FindSimilarN returns the n points nearest to query in ascending-distance
// order, using the standard near-child-first KD descent with axis-aligned
// pruning (spec §4.6). This is an approximate/heuristic procedure for very
// non-uniform low-dimensional distributions.
func (t *Tree) FindSimilarN(query types.StoreKey, n int) []types.StoreKey {
	return t.FindSimilarNFiltered(query, n, nil)
}

// FindSimilarNFiltered is FindSimilarN with an optional candidate filter:
// points for which filter returns false are never added to the result heap,
// but their subtrees are still descended into (excluded points may have
// included descendants). A nil filter matches everything.
func (t *Tree) FindSimilarNFiltered(query types.StoreKey, n int, filter func(types.StoreKey) bool) []types.StoreKey {
	if n <= 0 {
		return nil
	}
	h := &maxHeap{}
	heap.Init(h)
	t.search(t.root.Load(), query, 0, n, h, filter)

	out := make([]types.StoreKey, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(neighbor).point
	}
	return out
}

func (t *Tree) search(n *node, query types.StoreKey, depth, k int, h *maxHeap, filter func(types.StoreKey) bool) {
	if n == nil {
		return
	}
	axis := depth % t.dimension
	d := squaredDistance(n.point, query)

	if filter == nil || filter(n.point) {
		if h.Len() < k {
			heap.Push(h, neighbor{point: n.point, distSq: d})
		} else if d < (*h)[0].distSq {
			heap.Pop(h)
			heap.Push(h, neighbor{point: n.point, distSq: d})
		}
	}

	diff := float64(query[axis]) - float64(n.point[axis])
	near, far := n.left.Load(), n.right.Load()
	if diff >= 0 {
		near, far = n.right.Load(), n.left.Load()
	}

	t.search(near, query, depth+1, k, h, filter)

	gap := diff * diff
	if h.Len() < k || gap < (*h)[0].distSq {
		t.search(far, query, depth+1, k, h, filter)
	}
}
