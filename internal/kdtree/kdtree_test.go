package kdtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/types"
)

func TestInsertDuplicateIsNoOp(t *testing.T) {
	tree := New(2)
	tree.Insert(types.StoreKey{1, 2})
	tree.Insert(types.StoreKey{1, 2})

	found := tree.FindSimilarN(types.StoreKey{1, 2}, 5)
	require.Len(t, found, 1)
}

func TestFindSimilarNOrdersByDistance(t *testing.T) {
	tree := New(2)
	points := []types.StoreKey{
		{0, 0}, {10, 10}, {1, 1}, {5, 5}, {2, 2},
	}
	for _, p := range points {
		tree.Insert(p)
	}

	found := tree.FindSimilarN(types.StoreKey{0, 0}, 3)
	require.Len(t, found, 3)
	assert.Equal(t, types.StoreKey{0, 0}, found[0])
	assert.Equal(t, types.StoreKey{1, 1}, found[1])
	assert.Equal(t, types.StoreKey{2, 2}, found[2])
}

func TestDeleteRemovesPoint(t *testing.T) {
	tree := New(2)
	for _, p := range []types.StoreKey{{0, 0}, {1, 1}, {2, 2}} {
		tree.Insert(p)
	}

	deleted, ok := tree.Delete(types.StoreKey{1, 1})
	require.True(t, ok)
	assert.Equal(t, types.StoreKey{1, 1}, deleted)

	found := tree.FindSimilarN(types.StoreKey{1, 1}, 3)
	for _, p := range found {
		assert.NotEqual(t, types.StoreKey{1, 1}, p)
	}
}

func TestDeleteBothChildrenUsesFindMin(t *testing.T) {
	tree := New(1)
	for _, v := range []float32{5, 2, 8, 1, 3, 7, 9} {
		tree.Insert(types.StoreKey{v})
	}
	_, ok := tree.Delete(types.StoreKey{5})
	require.True(t, ok)

	found := tree.FindSimilarN(types.StoreKey{5}, 10)
	assert.Len(t, found, 6)
	for _, p := range found {
		assert.NotEqual(t, float32(5), p[0])
	}
}

func TestFindSimilarNFilteredSkipsExcluded(t *testing.T) {
	tree := New(2)
	for _, p := range []types.StoreKey{{0, 0}, {1, 1}, {2, 2}, {3, 3}} {
		tree.Insert(p)
	}

	filter := func(p types.StoreKey) bool { return p[0] != 1 }
	found := tree.FindSimilarNFiltered(types.StoreKey{0, 0}, 2, filter)
	require.Len(t, found, 2)
	for _, p := range found {
		assert.NotEqual(t, types.StoreKey{1, 1}, p)
	}
}
