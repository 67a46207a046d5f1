package hnsw

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/similarity"
	"github.com/dreamware/ahnlich-go/internal/types"
)

func newTestIndex() *Index {
	return New(2, Config{M: 4, EfConstruction: 32}, DistanceFor(similarity.Euclidean))
}

func TestInsertIsIdempotentById(t *testing.T) {
	idx := newTestIndex()
	id1 := idx.Insert(types.StoreKey{1, 2})
	id2 := idx.Insert(types.StoreKey{1, 2})
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, idx.Size())
}

func TestKnnSearchFindsExactMatchFirst(t *testing.T) {
	idx := newTestIndex()
	points := [][2]float32{{0, 0}, {10, 10}, {1, 1}, {5, 5}, {2, 2}, {-3, -3}, {7, 1}}
	for _, p := range points {
		idx.Insert(types.StoreKey{p[0], p[1]})
	}

	found := idx.KnnSearch(types.StoreKey{0, 0}, 3, 32, nil)
	require.Len(t, found, 3)
	assert.Equal(t, types.StoreKey{0, 0}, found[0].Embedding)
	assert.LessOrEqual(t, found[0].Distance, found[1].Distance)
	assert.LessOrEqual(t, found[1].Distance, found[2].Distance)
}

func TestKnnSearchWithManyPoints(t *testing.T) {
	idx := newTestIndex()
	for i := 0; i < 200; i++ {
		idx.Insert(types.StoreKey{float32(i), float32(i % 7)})
	}
	require.Equal(t, 200, idx.Size())

	found := idx.KnnSearch(types.StoreKey{100, 2}, 5, 64, nil)
	require.Len(t, found, 5)
	assert.Equal(t, types.StoreKey{100, float32(100 % 7)}, found[0].Embedding)
}

func TestDeleteRemovesNodeFromResults(t *testing.T) {
	idx := newTestIndex()
	var ids []NodeId
	for i := 0; i < 20; i++ {
		ids = append(ids, idx.Insert(types.StoreKey{float32(i), 0}))
	}

	target := ids[5]
	ok := idx.Delete(target)
	require.True(t, ok)
	assert.Equal(t, 19, idx.Size())

	found := idx.KnnSearch(types.StoreKey{5, 0}, 20, 64, nil)
	for _, r := range found {
		assert.NotEqual(t, target, r.Id)
	}
}

func TestDeleteAllNodesLeavesEmptyEntryPoints(t *testing.T) {
	idx := newTestIndex()
	var ids []NodeId
	for i := 0; i < 10; i++ {
		ids = append(ids, idx.Insert(types.StoreKey{float32(i), float32(i)}))
	}
	for _, id := range ids {
		idx.Delete(id)
	}
	assert.Equal(t, 0, idx.Size())
	assert.Nil(t, idx.KnnSearch(types.StoreKey{0, 0}, 1, 16, nil))
}

func TestKnnSearchFilteredSkipsExcluded(t *testing.T) {
	idx := newTestIndex()
	excludedId := idx.Insert(types.StoreKey{0, 0})
	for i := 1; i < 10; i++ {
		idx.Insert(types.StoreKey{float32(i), float32(i)})
	}

	filter := func(id NodeId) bool { return id != excludedId }
	found := idx.KnnSearch(types.StoreKey{0, 0}, 3, 32, filter)
	for _, r := range found {
		assert.NotEqual(t, excludedId, r.Id)
	}
}

func TestLevelOfIsDeterministic(t *testing.T) {
	id := types.NewStoreKeyId(types.StoreKey{3.14, 2.71, 1.41})
	l1 := LevelOf(id, 16)
	l2 := LevelOf(id, 16)
	assert.Equal(t, l1, l2)
}

func TestLevelOfVariesAcrossIds(t *testing.T) {
	levels := make(map[int]int)
	for i := 0; i < 500; i++ {
		id := types.NewStoreKeyId(types.StoreKey{float32(i), float32(i) * 0.5})
		levels[LevelOf(id, 16)]++
	}
	// With M=16 almost all draws should land at level 0, but not literally all.
	assert.Greater(t, levels[0], 0)
	assert.Greater(t, len(levels), 1)
	t.Logf("level distribution: %v", levels)
}

func TestBacklinksStaySymmetricAfterPruning(t *testing.T) {
	idx := New(1, Config{M: 2, EfConstruction: 16}, DistanceFor(similarity.Euclidean))
	for i := 0; i < 30; i++ {
		idx.Insert(types.StoreKey{float32(i)})
	}

	idx.nodes.Range(func(id NodeId, rec *nodeRecord) bool {
		rec.mu.RLock()
		defer rec.mu.RUnlock()
		for layer, set := range rec.neighbors {
			for nb := range set {
				nbRec, ok := idx.nodes.Load(nb)
				require.True(t, ok)
				nbRec.mu.RLock()
				_, hasBack := nbRec.backlinks[layer][id]
				nbRec.mu.RUnlock()
				assert.True(t, hasBack, fmt.Sprintf("node %x missing backlink to %x at layer %d", nb, id, layer))
			}
		}
		return true
	})
}
