package hnsw

import "github.com/dreamware/ahnlich-go/internal/types"

// Insert adds embedding to the graph, computing its NodeId and level
// deterministically. Re-inserting an id already present is a no-op (spec
// §4.7's "silently skip" rule), matching the engine's upsert-by-id
// semantics for the linear store.
func (idx *Index) Insert(embedding types.StoreKey) NodeId {
	key := append(types.StoreKey(nil), embedding...)
	id := types.NewStoreKeyId(key)
	if _, exists := idx.nodes.Load(id); exists {
		return id
	}

	level := LevelOf(id, idx.cfg.M)
	rec := &nodeRecord{
		embedding: key,
		level:     level,
		neighbors: make([]map[NodeId]struct{}, level+1),
		backlinks: make([]map[NodeId]struct{}, level+1),
	}
	for l := 0; l <= level; l++ {
		rec.neighbors[l] = make(map[NodeId]struct{})
		rec.backlinks[l] = make(map[NodeId]struct{})
	}

	idx.mu.Lock()
	entryWasEmpty := len(idx.entryPoints) == 0
	topMostLayer := idx.topMostLayer
	entryPoints := append([]NodeId(nil), idx.entryPoints...)
	if entryWasEmpty || level > topMostLayer {
		idx.topMostLayer = level
		idx.entryPoints = []NodeId{id}
	}
	idx.mu.Unlock()

	idx.nodes.Store(id, rec)
	for l := 0; l <= level; l++ {
		idx.ensureLayer(l).Store(id, struct{}{})
	}

	if entryWasEmpty {
		return id
	}

	// Greedily descend from the top of the existing graph down to level+1,
	// keeping a single best entry point per layer (ef=1).
	cur := entryPoints
	for l := topMostLayer; l > level; l-- {
		found := idx.searchLayer(rec, cur, 1, l, nil)
		if len(found) > 0 {
			cur = []NodeId{found[0].id}
		}
	}

	// From min(level, topMostLayer) down to 0, connect into the graph.
	for l := min(level, topMostLayer); l >= 0; l-- {
		found := idx.searchLayer(rec, cur, idx.cfg.EfConstruction, l, nil)
		neighbors := idx.selectNeighborsHeuristic(rec, found, idx.cfg.M, false)

		for _, n := range neighbors {
			idx.addEdge(id, n.id, l)
		}

		mMax := idx.cfg.mMax()
		if l == 0 {
			mMax = idx.cfg.mMax0()
		}
		for _, n := range neighbors {
			idx.pruneIfOverfull(n.id, l, mMax)
		}

		if len(found) > 0 {
			cur = make([]NodeId, len(found))
			for i, c := range found {
				cur[i] = c.id
			}
		}
	}

	return id
}

// addEdge installs the bidirectional edge a<->b at layer, with matching
// back-link entries in both directions (spec §4.7 step c).
func (idx *Index) addEdge(a, b NodeId, layer int) {
	if a == b {
		return
	}
	an, ok := idx.nodes.Load(a)
	if !ok {
		return
	}
	bn, ok := idx.nodes.Load(b)
	if !ok {
		return
	}

	an.mu.Lock()
	if layer < len(an.neighbors) {
		an.neighbors[layer][b] = struct{}{}
	}
	an.mu.Unlock()

	bn.mu.Lock()
	if layer < len(bn.backlinks) {
		bn.backlinks[layer][a] = struct{}{}
	}
	bn.mu.Unlock()

	bn.mu.Lock()
	if layer < len(bn.neighbors) {
		bn.neighbors[layer][a] = struct{}{}
	}
	bn.mu.Unlock()

	an.mu.Lock()
	if layer < len(an.backlinks) {
		an.backlinks[layer][b] = struct{}{}
	}
	an.mu.Unlock()
}

// pruneIfOverfull shrinks n's neighbor set at layer back down to mMax using
// the heuristic selector when it exceeds the degree bound (spec §4.7 step
// e), fixing up the dropped neighbors' back-link sets to match.
func (idx *Index) pruneIfOverfull(id NodeId, layer, mMax int) {
	n, ok := idx.nodes.Load(id)
	if !ok {
		return
	}

	n.mu.RLock()
	if layer >= len(n.neighbors) || len(n.neighbors[layer]) <= mMax {
		n.mu.RUnlock()
		return
	}
	current := make([]candidate, 0, len(n.neighbors[layer]))
	for nb := range n.neighbors[layer] {
		nbNode, ok := idx.nodes.Load(nb)
		if !ok {
			continue
		}
		current = append(current, candidate{id: nb, dist: idx.dist(n.embedding, nbNode.embedding)})
	}
	n.mu.RUnlock()

	kept := idx.selectNeighborsHeuristic(n, current, mMax, false)
	keptSet := make(map[NodeId]struct{}, len(kept))
	for _, k := range kept {
		keptSet[k.id] = struct{}{}
	}

	n.mu.Lock()
	dropped := make([]NodeId, 0)
	for nb := range n.neighbors[layer] {
		if _, ok := keptSet[nb]; !ok {
			dropped = append(dropped, nb)
		}
	}
	n.neighbors[layer] = keptSet
	n.mu.Unlock()

	for _, nb := range dropped {
		if nbNode, ok := idx.nodes.Load(nb); ok {
			nbNode.mu.Lock()
			if layer < len(nbNode.backlinks) {
				delete(nbNode.backlinks[layer], id)
			}
			nbNode.mu.Unlock()
		}
	}
}
