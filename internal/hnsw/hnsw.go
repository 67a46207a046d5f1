// Package hnsw implements the hierarchical navigable small-world index of
// spec §4.7: deterministic NodeId/level assignment (pure functions of the
// embedding bytes, never a thread-local RNG — this is what makes snapshot
// reload and log replay reproduce the same graph), greedy layer descent,
// heuristic neighbor selection, and back-link-driven O(degree) deletion.
package hnsw

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/dreamware/ahnlich-go/internal/types"
)

// NodeId is a deterministic function of a node's embedding bytes, reusing
// the same content hash as StoreKeyId — this is what lets the engine
// silently no-op a re-insertion of an embedding already present.
type NodeId = types.StoreKeyId

// DistanceFunc computes a "smaller is more similar" distance between two
// embeddings. Cosine/dot-product callers must negate at the boundary
// (spec §4.7's "Distances" note); Euclidean is used as-is.
type DistanceFunc func(a, b types.StoreKey) float64

// Config are the tunables of spec's HNSW state.
type Config struct {
	M              int // target neighbor degree, > 1
	EfConstruction int
}

func (c Config) mMax0() int { return 2 * c.M }
func (c Config) mMax() int  { return c.M }

type nodeRecord struct {
	mu        sync.RWMutex
	embedding types.StoreKey
	level     int
	neighbors []map[NodeId]struct{} // per layer 0..level
	backlinks []map[NodeId]struct{} // per layer 0..level
}

// Index is a concurrent HNSW graph over embeddings of a fixed dimension.
type Index struct {
	cfg       Config
	dimension int
	dist      DistanceFunc

	mu            sync.RWMutex // guards topMostLayer/entryPoints/graph catalog membership
	topMostLayer  int
	entryPoints   []NodeId
	graph         []*xsync.MapOf[NodeId, struct{}] // graph[layer] -> set of NodeId
	nodes         *xsync.MapOf[NodeId, *nodeRecord]
}

// New creates an empty HNSW index. dist must be a "smaller is more similar"
// distance function consistent across the index's lifetime.
func New(dimension int, cfg Config, dist DistanceFunc) *Index {
	if cfg.M <= 1 {
		cfg.M = 16
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = 200
	}
	return &Index{
		cfg:          cfg,
		dimension:    dimension,
		dist:         dist,
		topMostLayer: -1,
		graph:        []*xsync.MapOf[NodeId, struct{}]{},
		nodes:        xsync.NewMapOf[NodeId, *nodeRecord](),
	}
}

// LevelOf derives the deterministic layer assignment for an embedding from
// its content hash, using the standard exponential mapping with rate
// 1/ln(M) (spec §4.7).
func LevelOf(id NodeId, m int) int {
	if m <= 1 {
		m = 2
	}
	// Use a window of the hash distinct from the leading bytes used for
	// map bucketing, so level draws don't correlate with id ordering.
	window := id[16:24]
	bits := binary.LittleEndian.Uint64(window)
	u := (float64(bits) + 1) / (float64(math.MaxUint64) + 2) // in (0,1), never exactly 0 or 1
	mL := 1.0 / math.Log(float64(m))
	level := int(math.Floor(-math.Log(u) * mL))
	if level < 0 {
		level = 0
	}
	return level
}

func (idx *Index) ensureLayer(layer int) *xsync.MapOf[NodeId, struct{}] {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for len(idx.graph) <= layer {
		idx.graph = append(idx.graph, xsync.NewMapOf[NodeId, struct{}]())
	}
	return idx.graph[layer]
}

func (idx *Index) layerAt(layer int) *xsync.MapOf[NodeId, struct{}] {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if layer < 0 || layer >= len(idx.graph) {
		return nil
	}
	return idx.graph[layer]
}

// Size returns the number of nodes currently in the index.
func (idx *Index) Size() int {
	return idx.nodes.Size()
}

// Contains reports whether id is present.
func (idx *Index) Contains(id NodeId) bool {
	_, ok := idx.nodes.Load(id)
	return ok
}
