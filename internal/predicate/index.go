// Package predicate implements the per-metadata-key inverted index of
// spec §4.3: PredicateIndex (a single metadata key's posting lists) and
// PredicateIndices (the set of currently-tracked keys across a store), plus
// the Condition evaluator that falls back to a direct scan for any
// metadata key that isn't indexed.
package predicate

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// Index is a concurrent inverted index for a single metadata key: value ->
// set of StoreKeyIds carrying that value. Reads are lock-free; writes take
// a per-bucket lock inside xsync.MapOf.
type Index struct {
	postings *xsync.MapOf[string, *xsync.MapOf[types.StoreKeyId, struct{}]]
}

func newIndex() *Index {
	return &Index{postings: xsync.NewMapOf[string, *xsync.MapOf[types.StoreKeyId, struct{}]]()}
}

func (idx *Index) bucket(v types.MetadataValue, create bool) *xsync.MapOf[types.StoreKeyId, struct{}] {
	k := v.Key()
	if b, ok := idx.postings.Load(k); ok {
		return b
	}
	if !create {
		return nil
	}
	b, _ := idx.postings.LoadOrStore(k, xsync.NewMapOf[types.StoreKeyId, struct{}]())
	return b
}

func (idx *Index) add(v types.MetadataValue, id types.StoreKeyId) {
	idx.bucket(v, true).Store(id, struct{}{})
}

func (idx *Index) remove(v types.MetadataValue, id types.StoreKeyId) {
	if b := idx.bucket(v, false); b != nil {
		b.Delete(id)
	}
}

// equals returns the posting set for v, or nil.
func (idx *Index) equals(v types.MetadataValue) map[types.StoreKeyId]struct{} {
	b := idx.bucket(v, false)
	if b == nil {
		return nil
	}
	out := make(map[types.StoreKeyId]struct{}, b.Size())
	b.Range(func(id types.StoreKeyId, _ struct{}) bool {
		out[id] = struct{}{}
		return true
	})
	return out
}

// notEquals returns the union of every bucket whose value key is not v.Key().
func (idx *Index) notEquals(v types.MetadataValue) map[types.StoreKeyId]struct{} {
	excluded := v.Key()
	out := make(map[types.StoreKeyId]struct{})
	idx.postings.Range(func(valueKey string, bucket *xsync.MapOf[types.StoreKeyId, struct{}]) bool {
		if valueKey == excluded {
			return true
		}
		bucket.Range(func(id types.StoreKeyId, _ struct{}) bool {
			out[id] = struct{}{}
			return true
		})
		return true
	})
	return out
}

// Indices holds the set of currently-tracked ("allowed") metadata keys and
// their per-key Index, plus the evaluator for the Condition grammar.
type Indices struct {
	byKey *xsync.MapOf[string, *Index]
}

// New creates an empty Indices.
func New() *Indices {
	return &Indices{byKey: xsync.NewMapOf[string, *Index]()}
}

// Allowed reports whether key is currently tracked.
func (idc *Indices) Allowed(key string) bool {
	_, ok := idc.byKey.Load(key)
	return ok
}

// AddPredicates inserts each genuinely-new key into the allowed set and
// backfills its Index by scanning backfill. Already-allowed keys count as
// zero. Returns the number of keys actually created.
func (idc *Indices) AddPredicates(newKeys []string, backfill map[types.StoreKeyId]types.StoreValue) int {
	created := 0
	for _, key := range newKeys {
		if _, loaded := idc.byKey.LoadOrStore(key, newIndex()); loaded {
			continue
		}
		created++
		idx, _ := idc.byKey.Load(key)
		for id, value := range backfill {
			if v, ok := value[key]; ok {
				idx.add(v, id)
			}
		}
	}
	return created
}

// RemovePredicates removes each key from the allowed set, dropping its
// Index. Returns the count removed. If errIfNotExists, a missing key fails
// the whole call with PredicateNotFound.
func (idc *Indices) RemovePredicates(keys []string, errIfNotExists bool) (int, error) {
	if errIfNotExists {
		for _, key := range keys {
			if !idc.Allowed(key) {
				return 0, vdberr.PredicateNotFound(key)
			}
		}
	}
	removed := 0
	for _, key := range keys {
		if _, ok := idc.byKey.LoadAndDelete(key); ok {
			removed++
		}
	}
	return removed, nil
}

// Keys returns every currently-tracked metadata key, for snapshotting.
func (idc *Indices) Keys() []string {
	var keys []string
	idc.byKey.Range(func(key string, _ *Index) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// IndexValue records that id's value for key is v, for every key present in
// value that is currently tracked. Called on every write, with the full
// StoreValue; untracked keys are silently dropped.
func (idc *Indices) IndexValue(id types.StoreKeyId, value types.StoreValue) {
	for key, v := range value {
		if idx, ok := idc.byKey.Load(key); ok {
			idx.add(v, id)
		}
	}
}

// RemoveStoreKeys removes id from every posting list it appears in across
// every tracked key, given the value it used to carry (so we only touch the
// buckets it was actually a member of).
func (idc *Indices) RemoveStoreKeys(id types.StoreKeyId, value types.StoreValue) {
	for key, v := range value {
		if idx, ok := idc.byKey.Load(key); ok {
			idx.remove(v, id)
		}
	}
}

// ScanSource is the minimal view of a store's primary map the evaluator
// needs for scan-fallback on untracked keys. engine.Store implements it.
type ScanSource interface {
	ScanValues(fn func(id types.StoreKeyId, value types.StoreValue) bool)
}

// Matches evaluates a Condition against idc (using the index where the leaf
// key is tracked) and scan (falling back to a direct scan otherwise),
// returning the matching set of StoreKeyIds.
func Matches(cond *types.Condition, idc *Indices, scan ScanSource) map[types.StoreKeyId]struct{} {
	if cond == nil {
		return map[types.StoreKeyId]struct{}{}
	}
	switch cond.Op {
	case types.OpAnd:
		left := Matches(cond.Left, idc, scan)
		right := Matches(cond.Right, idc, scan)
		return intersect(left, right)
	case types.OpOr:
		left := Matches(cond.Left, idc, scan)
		right := Matches(cond.Right, idc, scan)
		return union(left, right)
	default:
		return evalLeaf(cond, idc, scan)
	}
}

func evalLeaf(cond *types.Condition, idc *Indices, scan ScanSource) map[types.StoreKeyId]struct{} {
	if idc.Allowed(cond.Key) {
		idx, _ := idc.byKey.Load(cond.Key)
		return evalLeafIndexed(cond, idx)
	}
	return evalLeafScan(cond, scan)
}

func evalLeafIndexed(cond *types.Condition, idx *Index) map[types.StoreKeyId]struct{} {
	switch cond.Op {
	case types.OpEquals:
		return idx.equals(cond.Values[0])
	case types.OpNotEquals:
		return idx.notEquals(cond.Values[0])
	case types.OpIn:
		out := make(map[types.StoreKeyId]struct{})
		for _, v := range cond.Values {
			for id := range idx.equals(v) {
				out[id] = struct{}{}
			}
		}
		return out
	case types.OpNotIn:
		excluded := make(map[string]struct{}, len(cond.Values))
		for _, v := range cond.Values {
			excluded[v.Key()] = struct{}{}
		}
		out := make(map[types.StoreKeyId]struct{})
		idx.postings.Range(func(valueKey string, bucket *xsync.MapOf[types.StoreKeyId, struct{}]) bool {
			if _, skip := excluded[valueKey]; skip {
				return true
			}
			bucket.Range(func(id types.StoreKeyId, _ struct{}) bool {
				out[id] = struct{}{}
				return true
			})
			return true
		})
		return out
	}
	return nil
}

func evalLeafScan(cond *types.Condition, scan ScanSource) map[types.StoreKeyId]struct{} {
	out := make(map[types.StoreKeyId]struct{})
	scan.ScanValues(func(id types.StoreKeyId, value types.StoreValue) bool {
		v, present := value[cond.Key]
		if matchesLeaf(cond, v, present) {
			out[id] = struct{}{}
		}
		return true
	})
	return out
}

func matchesLeaf(cond *types.Condition, v types.MetadataValue, present bool) bool {
	switch cond.Op {
	case types.OpEquals:
		return present && v.Equal(cond.Values[0])
	case types.OpNotEquals:
		return present && !v.Equal(cond.Values[0])
	case types.OpIn:
		if !present {
			return false
		}
		for _, want := range cond.Values {
			if v.Equal(want) {
				return true
			}
		}
		return false
	case types.OpNotIn:
		if !present {
			return false
		}
		for _, want := range cond.Values {
			if v.Equal(want) {
				return false
			}
		}
		return true
	}
	return false
}

func intersect(a, b map[types.StoreKeyId]struct{}) map[types.StoreKeyId]struct{} {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[types.StoreKeyId]struct{}, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func union(a, b map[types.StoreKeyId]struct{}) map[types.StoreKeyId]struct{} {
	out := make(map[types.StoreKeyId]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}
