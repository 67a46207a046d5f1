package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/similarity"
	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

func TestCreateStoreThenListShowsEmptyStore(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("Main", 3, nil, nil, true))

	err := h.CreateStore("Main", 3, nil, nil, true)
	assert.ErrorIs(t, err, vdberr.StoreAlreadyExists("Main"))

	require.NoError(t, h.CreateStore("Main", 3, nil, nil, false))

	stores := h.ListStores()
	require.Len(t, stores, 1)
	assert.Equal(t, "Main", stores[0].Name)
	assert.Equal(t, 0, stores[0].Len)
}

func TestSetRejectsWrongDimension(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("dim3", 3, nil, nil, true))

	_, err := h.SetInStore("dim3", []Entry{{Key: types.StoreKey{0.33, 0.44}}})
	var vErr *vdberr.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, vdberr.CodeStoreDimensionMismatch, vErr.Code)
}

func TestSetUpsertCounts(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("dim3", 3, nil, nil, true))

	count, err := h.SetInStore("dim3", []Entry{
		{Key: types.StoreKey{1.23, 1.0, 0.2}},
		{Key: types.StoreKey{0.03, 5.1, 3.23}},
	})
	require.NoError(t, err)
	assert.Equal(t, UpsertCount{Inserted: 2, Updated: 0}, count)

	count, err = h.SetInStore("dim3", []Entry{
		{Key: types.StoreKey{1.23, 1.0, 0.2}, Value: types.StoreValue{"tag": types.RawString("x")}},
	})
	require.NoError(t, err)
	assert.Equal(t, UpsertCount{Inserted: 0, Updated: 1}, count)

	stores := h.ListStores()
	require.Len(t, stores, 1)
	assert.Equal(t, 2, stores[0].Len)
}

func TestPredicateIndexRetrofit(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("heroes", 5, nil, nil, true))

	v := types.StoreKey{1, 2, 3, 4, 5}
	_, err := h.SetInStore("heroes", []Entry{
		{Key: v, Value: types.StoreValue{"author": types.RawString("Lex Luthor")}},
		{Key: types.StoreKey{5, 4, 3, 2, 1}, Value: types.StoreValue{"author": types.RawString("Clark Kent")}},
	})
	require.NoError(t, err)

	cond := types.Equals("author", types.RawString("Lex Luthor"))
	entries, err := h.GetPredInStore("heroes", cond)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	created, err := h.CreatePredIndex("heroes", []string{"author"})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	entries, err = h.GetPredInStore("heroes", cond)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	removed, err := h.DropPredIndexInStore("heroes", []string{"author"}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err = h.GetPredInStore("heroes", cond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSimilarityWithFilter(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("medals", 3, nil, nil, true))

	_, err := h.SetInStore("medals", []Entry{
		{Key: types.StoreKey{1.0, 2.0, 2.2}, Value: types.StoreValue{"medal": types.RawString("silver")}},
		{Key: types.StoreKey{5.0, 2.1, 2.2}, Value: types.StoreValue{"medal": types.RawString("gold")}},
		{Key: types.StoreKey{0.2, 0.1, 0.1}, Value: types.StoreValue{"medal": types.RawString("bronze")}},
	})
	require.NoError(t, err)

	cond := types.Equals("medal", types.RawString("gold"))
	results, err := h.GetSimInStore("medals", types.StoreKey{5, 2.1, 2.2}, 2, "Cosine", cond)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 0.01)
}

func TestHNSWBackedStoreSelfQuery(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("vectors", 4, nil, []nonlinear.Spec{{Kind: nonlinear.HNSW, Algorithm: similarity.Cosine}}, true))

	target := types.StoreKey{0.1, 0.9, 0.2, 0.4}
	_, err := h.SetInStore("vectors", []Entry{
		{Key: target},
		{Key: types.StoreKey{9, 9, 9, 9}},
		{Key: types.StoreKey{-1, -1, -1, -1}},
	})
	require.NoError(t, err)

	results, err := h.GetSimInStore("vectors", target, 1, "HNSW-Cosine", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, target, results[0].Key)
	assert.Greater(t, results[0].Similarity, 0.99)
}

func TestDropStoreThenRecreateIsEmpty(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("tmp", 2, nil, nil, true))
	_, err := h.SetInStore("tmp", []Entry{{Key: types.StoreKey{1, 1}}})
	require.NoError(t, err)

	removed, err := h.DropStore("tmp", true)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	require.NoError(t, h.CreateStore("tmp", 2, nil, nil, true))
	stores := h.ListStores()
	require.Len(t, stores, 1)
	assert.Equal(t, 0, stores[0].Len)
}

func TestSetThenDeleteKeyRestoresLen(t *testing.T) {
	h := NewHandler()
	require.NoError(t, h.CreateStore("s", 2, nil, nil, true))

	k := types.StoreKey{1, 2}
	_, err := h.SetInStore("s", []Entry{{Key: k}})
	require.NoError(t, err)

	removed, err := h.DelKeyInStore("s", []types.StoreKey{k})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stores := h.ListStores()
	require.Len(t, stores, 1)
	assert.Equal(t, 0, stores[0].Len)
}

func TestDirtyFlagSetByMutationsAndCleared(t *testing.T) {
	h := NewHandler()
	assert.False(t, h.Dirty())

	require.NoError(t, h.CreateStore("s", 2, nil, nil, true))
	assert.True(t, h.Dirty())

	assert.True(t, h.TestAndClearDirty())
	assert.False(t, h.Dirty())
}
