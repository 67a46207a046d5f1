// Package engine implements the store engine (spec §4.1/§4.2): Store holds
// one named collection's primary map, predicate indices, and non-linear
// indices; Handler (the spec's StoreHandler) is the top-level catalog of
// stores a server exposes.
package engine

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/predicate"
	"github.com/dreamware/ahnlich-go/internal/similarity"
	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

type record struct {
	key   types.StoreKey
	value types.StoreValue
}

// Store owns one named collection: its declared dimension, the primary
// id->(key,value) map, its predicate indices, and its non-linear indices.
// Exported methods are individually safe for concurrent use; writeMu
// serializes the multi-map sequences (§4.2's add/delete steps) so a given
// StoreKeyId's view across the primary map, predicate postings, and
// non-linear indices never observes a torn intermediate state.
type Store struct {
	name      string
	dimension int
	log       *zap.SugaredLogger

	writeMu sync.Mutex

	idToValue  *xsync.MapOf[types.StoreKeyId, record]
	predicates *predicate.Indices
	nonLinear  *xsync.MapOf[string, *nonlinear.Index]
}

// UpsertCount reports how many entries of a Set were new vs. replaced.
type UpsertCount struct {
	Inserted int
	Updated  int
}

func newStore(name string, dimension int) *Store {
	return &Store{
		name:       name,
		dimension:  dimension,
		log:        logging.Named("store").With("store", name),
		idToValue:  xsync.NewMapOf[types.StoreKeyId, record](),
		predicates: predicate.New(),
		nonLinear:  xsync.NewMapOf[string, *nonlinear.Index](),
	}
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// Dimension returns the store's declared vector dimension.
func (s *Store) Dimension() int { return s.dimension }

// Len returns the number of keys currently held.
func (s *Store) Len() int { return s.idToValue.Size() }

// SizeBytes is a best-effort, advisory accounting of heap footprint (spec
// §4.1's list_stores note — never assert exact values against this). It
// counts 4 bytes per key component plus the bytes of every metadata key and
// value; predicate and non-linear index overhead is not counted.
func (s *Store) SizeBytes() int64 {
	var total int64
	s.idToValue.Range(func(_ types.StoreKeyId, r record) bool {
		total += int64(4 * len(r.key))
		for k, v := range r.value {
			total += int64(len(k))
			if v.Kind == types.MetadataRawString {
				total += int64(len(v.Str))
			} else {
				total += int64(len(v.Blob))
			}
		}
		return true
	})
	return total
}

func (s *Store) validateDimension(key types.StoreKey) error {
	if len(key) != s.dimension {
		return vdberr.DimensionMismatch(s.name, s.dimension, len(key))
	}
	return nil
}

// Entry is one (key, value) pair of a Set request.
type Entry struct {
	Key   types.StoreKey
	Value types.StoreValue
}

// Add implements §4.2's add: validates every key's dimension up front (all
// or nothing), then upserts each entry into the primary map, feeds every
// pair to the predicate indices, and inserts newly-created keys (not
// updates) into every enabled non-linear index.
func (s *Store) Add(entries []Entry) (UpsertCount, error) {
	for _, e := range entries {
		if err := s.validateDimension(e.Key); err != nil {
			return UpsertCount{}, err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var count UpsertCount
	newKeys := make([]types.StoreKey, 0, len(entries))

	for _, e := range entries {
		id := types.NewStoreKeyId(e.Key)
		value := e.Value.Clone()
		_, existed := s.idToValue.Load(id)
		s.idToValue.Store(id, record{key: e.Key, value: value})
		if existed {
			count.Updated++
		} else {
			count.Inserted++
			newKeys = append(newKeys, e.Key)
		}
		s.predicates.IndexValue(id, value)
	}

	if newKeys != nil {
		s.nonLinear.Range(func(_ string, idx *nonlinear.Index) bool {
			for _, k := range newKeys {
				idx.Insert(k)
			}
			return true
		})
	}

	s.log.Infow("add", "inserted", count.Inserted, "updated", count.Updated)
	return count, nil
}

// GetKeys returns the (key, value) pairs for the given keys, skipping any
// that are missing (spec §4.2's "silently skipped", order unspecified).
func (s *Store) GetKeys(keys []types.StoreKey) ([]Entry, error) {
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if err := s.validateDimension(k); err != nil {
			return nil, err
		}
		id := types.NewStoreKeyId(k)
		if r, ok := s.idToValue.Load(id); ok {
			out = append(out, Entry{Key: r.key, Value: r.value.Clone()})
		}
	}
	return out, nil
}

// GetByCondition evaluates cond (§4.3) and materializes the matching
// entries.
func (s *Store) GetByCondition(cond *types.Condition) []Entry {
	ids := predicate.Matches(cond, s.predicates, s)
	out := make([]Entry, 0, len(ids))
	for id := range ids {
		if r, ok := s.idToValue.Load(id); ok {
			out = append(out, Entry{Key: r.key, Value: r.value.Clone()})
		}
	}
	return out
}

// ScanValues implements predicate.ScanSource for the fallback evaluator.
func (s *Store) ScanValues(fn func(id types.StoreKeyId, value types.StoreValue) bool) {
	s.idToValue.Range(func(id types.StoreKeyId, r record) bool {
		return fn(id, r.value)
	})
}

// DeleteIds removes the given ids from the primary map, predicate indices,
// and every non-linear index, returning the count actually removed.
func (s *Store) DeleteIds(ids map[types.StoreKeyId]struct{}) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	removed := 0
	removedKeys := make([]types.StoreKey, 0, len(ids))
	for id := range ids {
		r, ok := s.idToValue.LoadAndDelete(id)
		if !ok {
			continue
		}
		removed++
		removedKeys = append(removedKeys, r.key)
		s.predicates.RemoveStoreKeys(id, r.value)
	}

	if len(removedKeys) > 0 {
		s.nonLinear.Range(func(_ string, idx *nonlinear.Index) bool {
			for _, k := range removedKeys {
				idx.Delete(k)
			}
			return true
		})
	}

	s.log.Infow("delete", "removed", removed)
	return removed
}

// DeleteKeys is delete_keys: dimension-validates then delegates to DeleteIds.
func (s *Store) DeleteKeys(keys []types.StoreKey) (int, error) {
	ids := make(map[types.StoreKeyId]struct{}, len(keys))
	for _, k := range keys {
		if err := s.validateDimension(k); err != nil {
			return 0, err
		}
		ids[types.NewStoreKeyId(k)] = struct{}{}
	}
	return s.DeleteIds(ids), nil
}

// DeleteMatches is delete_matches: resolves cond then delegates to DeleteIds.
func (s *Store) DeleteMatches(cond *types.Condition) int {
	ids := predicate.Matches(cond, s.predicates, s)
	return s.DeleteIds(ids)
}

// CreatePredIndex backfills and tracks newKeys, scanning the current primary
// map for the initial posting contents.
func (s *Store) CreatePredIndex(newKeys []string) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	backfill := make(map[types.StoreKeyId]types.StoreValue, s.idToValue.Size())
	s.idToValue.Range(func(id types.StoreKeyId, r record) bool {
		backfill[id] = r.value
		return true
	})
	return s.predicates.AddPredicates(newKeys, backfill)
}

// DropPredIndex removes keys from the tracked set.
func (s *Store) DropPredIndex(keys []string, errIfNotExists bool) (int, error) {
	return s.predicates.RemovePredicates(keys, errIfNotExists)
}

// CreateNonLinearIndex creates and backfills one non-linear index per spec
// not already present, returning the count actually created.
func (s *Store) CreateNonLinearIndex(specs []nonlinear.Spec) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	created := 0
	for _, spec := range specs {
		key := spec.String()
		if _, exists := s.nonLinear.Load(key); exists {
			continue
		}
		idx := nonlinear.New(s.dimension, spec)
		s.idToValue.Range(func(_ types.StoreKeyId, r record) bool {
			idx.Insert(r.key)
			return true
		})
		s.nonLinear.Store(key, idx)
		created++
	}
	return created
}

// DropNonLinearIndex tears down the named non-linear indices.
func (s *Store) DropNonLinearIndex(specs []nonlinear.Spec, errIfNotExists bool) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if errIfNotExists {
		for _, spec := range specs {
			if _, ok := s.nonLinear.Load(spec.String()); !ok {
				return 0, vdberr.NonLinearIndexNotFound(spec.String())
			}
		}
	}
	removed := 0
	for _, spec := range specs {
		if _, ok := s.nonLinear.LoadAndDelete(spec.String()); ok {
			removed++
		}
	}
	return removed, nil
}

// Scored is one ranked result of a similarity search.
type Scored struct {
	Key        types.StoreKey
	Value      types.StoreValue
	Similarity float64
}

// FindSimilar implements get_sim_in_store's dispatch (§4.5): resolves the
// candidate set from cond (or the whole store), then either scores linearly
// or delegates to the named non-linear index, materializing the result
// against the primary map.
func (s *Store) FindSimilar(query types.StoreKey, closestN int, algorithmName string, cond *types.Condition) ([]Scored, error) {
	if err := s.validateDimension(query); err != nil {
		return nil, err
	}

	usedAll := cond == nil
	var candidateIds map[types.StoreKeyId]struct{}
	if !usedAll {
		candidateIds = predicate.Matches(cond, s.predicates, s)
		if len(candidateIds) == 0 {
			return nil, nil
		}
	}

	if spec, err := nonlinear.ParseSpec(algorithmName); err == nil {
		idx, ok := s.nonLinear.Load(spec.String())
		if !ok {
			return nil, vdberr.NonLinearIndexNotFound(algorithmName)
		}
		var filter func(types.StoreKeyId) bool
		if !usedAll {
			filter = func(id types.StoreKeyId) bool { _, ok := candidateIds[id]; return ok }
		}
		ranked := idx.FindSimilarN(query, closestN, filter)
		return s.materialize(ranked)
	}

	algo, err := similarity.ParseAlgorithm(algorithmName)
	if err != nil {
		return nil, err
	}

	type item struct {
		id  types.StoreKeyId
		key types.StoreKey
	}
	var items []item
	if usedAll {
		s.idToValue.Range(func(id types.StoreKeyId, r record) bool {
			items = append(items, item{id: id, key: r.key})
			return true
		})
	} else {
		items = make([]item, 0, len(candidateIds))
		for id := range candidateIds {
			if r, ok := s.idToValue.Load(id); ok {
				items = append(items, item{id: id, key: r.key})
			}
		}
	}

	var ranked []similarity.Scored[item]
	if usedAll {
		// Unfiltered search scores the whole store; spec §4.5 calls for
		// running this step in parallel chunks.
		ranked = similarity.RankParallel(algo, query, items, func(it item) types.StoreKey { return it.key }, closestN)
	} else {
		ranked = similarity.Rank(algo, query, items, func(it item) types.StoreKey { return it.key }, closestN)
	}
	out := make([]Scored, 0, len(ranked))
	for _, r := range ranked {
		rec, ok := s.idToValue.Load(r.Item.id)
		if !ok {
			continue // deleted concurrently
		}
		out = append(out, Scored{Key: rec.key, Value: rec.value.Clone(), Similarity: r.Similarity})
	}
	return out, nil
}

func (s *Store) materialize(ranked []similarity.Scored[types.StoreKey]) ([]Scored, error) {
	out := make([]Scored, 0, len(ranked))
	for _, r := range ranked {
		id := types.NewStoreKeyId(r.Item)
		rec, ok := s.idToValue.Load(id)
		if !ok {
			continue // deleted concurrently
		}
		out = append(out, Scored{Key: rec.key, Value: rec.value.Clone(), Similarity: r.Similarity})
	}
	return out, nil
}
