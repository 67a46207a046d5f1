package aiproxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/types"
)

// fakeVectorizer maps raw input bytes to a fixed embedding deterministically
// derived from the input, so tests can assert on exact similarity without a
// real embedding backend.
type fakeVectorizer struct {
	dim int
	fn  func(raw []byte) []Embedding
}

func (f *fakeVectorizer) Dimensions() int { return f.dim }

func (f *fakeVectorizer) Vectorize(_ context.Context, raw []byte) ([]Embedding, error) {
	return f.fn(raw), nil
}

func newHandlerWithStore(t *testing.T, dim int) *engine.Handler {
	t.Helper()
	h := engine.NewHandler()
	require.NoError(t, h.CreateStore("docs", dim, nil, nil, true))
	return h
}

func TestProxySetEmbedsAndStoresOriginal(t *testing.T) {
	h := newHandlerWithStore(t, 2)
	vec := &fakeVectorizer{dim: 2, fn: func(raw []byte) []Embedding {
		return []Embedding{{Vector: []float32{1, 0}, EntryIndex: 0}}
	}}
	p := New(h, vec)

	count, err := p.Set(context.Background(), "docs", []SetInput{
		{Raw: []byte("hello"), StoreOriginal: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count.Inserted)

	results, err := h.GetKeyInStore("docs", []types.StoreKey{{1, 0}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	stored, ok := results[0].Value[MetadataKeyInput]
	require.True(t, ok)
	assert.Equal(t, types.Binary([]byte("hello")), stored)
}

func TestProxySetFansOutMultipleEmbeddingsWithEntryIndex(t *testing.T) {
	h := newHandlerWithStore(t, 2)
	vec := &fakeVectorizer{dim: 2, fn: func(raw []byte) []Embedding {
		return []Embedding{
			{Vector: []float32{1, 0}, EntryIndex: 0},
			{Vector: []float32{0, 1}, EntryIndex: 1},
		}
	}}
	p := New(h, vec)

	count, err := p.Set(context.Background(), "docs", []SetInput{{Raw: []byte("group-photo")}})
	require.NoError(t, err)
	assert.Equal(t, 2, count.Inserted)

	results, err := h.GetKeyInStore("docs", []types.StoreKey{{1, 0}, {0, 1}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		_, hasIndex := r.Value[MetadataKeyImageEntryIndex]
		assert.True(t, hasIndex)
	}
}

func TestProxyGetSimNRejectsMultiEmbeddingQuery(t *testing.T) {
	h := newHandlerWithStore(t, 2)
	vec := &fakeVectorizer{dim: 2, fn: func(raw []byte) []Embedding {
		return []Embedding{{Vector: []float32{1, 0}}, {Vector: []float32{0, 1}}}
	}}
	p := New(h, vec)

	_, err := p.GetSimN(context.Background(), "docs", []byte("ambiguous"), 1, "Cosine", nil)
	assert.Error(t, err)
}

func TestProxyGetSimNFindsClosest(t *testing.T) {
	h := newHandlerWithStore(t, 2)
	setupVec := &fakeVectorizer{dim: 2, fn: func(raw []byte) []Embedding {
		if string(raw) == "cat" {
			return []Embedding{{Vector: []float32{1, 0}}}
		}
		return []Embedding{{Vector: []float32{0, 1}}}
	}}
	p := New(h, setupVec)
	_, err := p.Set(context.Background(), "docs", []SetInput{{Raw: []byte("cat")}, {Raw: []byte("dog")}})
	require.NoError(t, err)

	results, err := p.GetSimN(context.Background(), "docs", []byte("cat"), 1, "Cosine", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}
