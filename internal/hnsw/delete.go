package hnsw

// Delete removes id from the graph, if present, patching every node that
// lists it as a neighbor or back-link so no dangling references remain
// (spec §4.7's delete procedure). Reports whether id was present.
func (idx *Index) Delete(id NodeId) bool {
	rec, ok := idx.nodes.LoadAndDelete(id)
	if !ok {
		return false
	}

	rec.mu.RLock()
	referencing := make(map[NodeId]struct{})
	for layer := range rec.neighbors {
		for nb := range rec.neighbors[layer] {
			referencing[nb] = struct{}{}
		}
	}
	for layer := range rec.backlinks {
		for nb := range rec.backlinks[layer] {
			referencing[nb] = struct{}{}
		}
	}
	maxLayer := len(rec.neighbors) - 1
	rec.mu.RUnlock()

	for r := range referencing {
		rn, ok := idx.nodes.Load(r)
		if !ok {
			continue
		}
		rn.mu.Lock()
		for layer := range rn.neighbors {
			delete(rn.neighbors[layer], id)
		}
		for layer := range rn.backlinks {
			delete(rn.backlinks[layer], id)
		}
		rn.mu.Unlock()
	}

	for l := 0; l <= maxLayer; l++ {
		if layer := idx.layerAt(l); layer != nil {
			layer.Delete(id)
		}
	}

	idx.reseedEntryPointIfNeeded(id, maxLayer)
	return true
}

// reseedEntryPointIfNeeded replaces the graph's entry point set when the
// deleted node was (one of) the current entry points. The spec leaves the
// replacement strategy open; we pick an arbitrary surviving member of the
// top-most populated layer, falling back to demoting topMostLayer until one
// is found or the graph is empty.
func (idx *Index) reseedEntryPointIfNeeded(deleted NodeId, deletedMaxLayer int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	wasEntry := false
	for _, ep := range idx.entryPoints {
		if ep == deleted {
			wasEntry = true
			break
		}
	}
	if !wasEntry {
		return
	}

	if idx.nodes.Size() == 0 {
		idx.entryPoints = nil
		idx.topMostLayer = -1
		return
	}

	for l := idx.topMostLayer; l >= 0; l-- {
		if l >= len(idx.graph) {
			continue
		}
		var replacement NodeId
		found := false
		idx.graph[l].Range(func(id NodeId, _ struct{}) bool {
			replacement = id
			found = true
			return false
		})
		if found {
			idx.topMostLayer = l
			idx.entryPoints = []NodeId{replacement}
			return
		}
	}
	// No layer has a surviving member (shouldn't happen while nodes remain,
	// since every node is present at layer 0); fall back to any node.
	idx.nodes.Range(func(id NodeId, rec *nodeRecord) bool {
		idx.entryPoints = []NodeId{id}
		idx.topMostLayer = 0
		return false
	})
}
