package hnsw

import "container/heap"

// candidate pairs a NodeId with its distance to the active query.
type candidate struct {
	id   NodeId
	dist float64
}

// minHeap pops the closest candidate first; used as the traversal frontier
// and as the working set for select_neighbors_heuristic.
type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap pops the farthest candidate first; used as the bounded result set
// W in search_layer, so the farthest member can be cheaply evicted.
type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h maxHeap) worst() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[0].dist
}

// searchLayer is the HNSW search_layer primitive: starting from entryPoints,
// greedily explores the graph at layer, returning the ef closest nodes to
// query's embedding, nearest first. filter, if non-nil, restricts which
// nodes may enter the result set W — excluded nodes are still traversed
// through, since their neighbors may pass the filter.
func (idx *Index) searchLayer(query *nodeRecord, entryPoints []NodeId, ef, layer int, filter func(NodeId) bool) []candidate {
	visited := make(map[NodeId]struct{}, ef*2)
	candidates := &minHeap{}
	result := &maxHeap{}

	for _, ep := range entryPoints {
		n, ok := idx.nodes.Load(ep)
		if !ok {
			continue
		}
		visited[ep] = struct{}{}
		d := idx.dist(query.embedding, n.embedding)
		heap.Push(candidates, candidate{id: ep, dist: d})
		if filter == nil || filter(ep) {
			heap.Push(result, candidate{id: ep, dist: d})
		}
	}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(candidate)
		if result.Len() >= ef && c.dist > result.worst() {
			break // nothing closer than the current worst can remain
		}
		cn, ok := idx.nodes.Load(c.id)
		if !ok {
			continue
		}
		cn.mu.RLock()
		var neighbors []NodeId
		if layer < len(cn.neighbors) {
			neighbors = make([]NodeId, 0, len(cn.neighbors[layer]))
			for nb := range cn.neighbors[layer] {
				neighbors = append(neighbors, nb)
			}
		}
		cn.mu.RUnlock()

		for _, nb := range neighbors {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			nbNode, ok := idx.nodes.Load(nb)
			if !ok {
				continue
			}
			d := idx.dist(query.embedding, nbNode.embedding)
			if result.Len() < ef || d < result.worst() {
				heap.Push(candidates, candidate{id: nb, dist: d})
				if filter == nil || filter(nb) {
					heap.Push(result, candidate{id: nb, dist: d})
					if result.Len() > ef {
						heap.Pop(result)
					}
				}
			}
		}
	}

	out := make([]candidate, result.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(result).(candidate)
	}
	return out
}

// selectNeighborsHeuristic implements the heuristic neighbor-selection
// procedure of spec §4.7: pick the m closest-to-query candidates, preferring
// ones that are closer to query than to every candidate already accepted,
// so the result stays spread out rather than clustering on one side.
func (idx *Index) selectNeighborsHeuristic(query *nodeRecord, candidates []candidate, m int, keepPruned bool) []candidate {
	work := make(minHeap, len(candidates))
	copy(work, candidates)
	heap.Init(&work)

	accepted := make([]candidate, 0, m)
	discarded := make([]candidate, 0, len(candidates))

	for work.Len() > 0 && len(accepted) < m {
		c := heap.Pop(&work).(candidate)
		closerToAcceptedThanQuery := false
		for _, a := range accepted {
			an, ok := idx.nodes.Load(a.id)
			cn, ok2 := idx.nodes.Load(c.id)
			if !ok || !ok2 {
				continue
			}
			if idx.dist(cn.embedding, an.embedding) < c.dist {
				closerToAcceptedThanQuery = true
				break
			}
		}
		if !closerToAcceptedThanQuery {
			accepted = append(accepted, c)
		} else {
			discarded = append(discarded, c)
		}
	}

	// extend candidates with discarded ones up to m, only when the caller
	// asked for keep_pruned_connections (spec §4.7 step 4b: construction
	// always runs extend=false, keep_pruned=false).
	if keepPruned {
		for i := 0; len(accepted) < m && i < len(discarded); i++ {
			accepted = append(accepted, discarded[i])
		}
	}
	return accepted
}
