package engine

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/types"
)

// StoreSnapshot is everything needed to rebuild one Store from scratch:
// its declared shape plus its full entry set. Predicate and non-linear
// indices are rebuilt by replaying CreatePredIndex/CreateNonLinearIndex
// against the restored entries, rather than serialized directly, since
// both are fully determined by (keys, entries).
type StoreSnapshot struct {
	Name             string
	Dimension        int
	PredicateKeys    []string
	NonLinearSpecs   []nonlinear.Spec
	Entries          []Entry
}

// Export captures s's full state for snapshotting (spec §4.8's "get_snapshot
// returns the full StoreHandler store catalog").
func (s *Store) Export() StoreSnapshot {
	specs := make([]nonlinear.Spec, 0)
	s.nonLinear.Range(func(key string, _ *nonlinear.Index) bool {
		if spec, err := nonlinear.ParseSpec(key); err == nil {
			specs = append(specs, spec)
		}
		return true
	})

	entries := make([]Entry, 0, s.idToValue.Size())
	s.idToValue.Range(func(_ types.StoreKeyId, r record) bool {
		entries = append(entries, Entry{Key: r.key, Value: r.value.Clone()})
		return true
	})

	return StoreSnapshot{
		Name:           s.name,
		Dimension:      s.dimension,
		PredicateKeys:  s.predicates.Keys(),
		NonLinearSpecs: specs,
		Entries:        entries,
	}
}

// Snapshot captures the full catalog: every store's Export plus the caller
// is responsible for pairing this with any out-of-band idempotence cache
// (internal/replication owns that pairing, per spec §4.8).
type Snapshot struct {
	Stores []StoreSnapshot
}

// Export builds a Snapshot of every store currently in the catalog.
func (h *Handler) Export() Snapshot {
	var stores []StoreSnapshot
	h.stores.Range(func(_ string, s *Store) bool {
		stores = append(stores, s.Export())
		return true
	})
	return Snapshot{Stores: stores}
}

// Restore replaces the catalog with snap's contents. The new catalog is
// rebuilt in full before it is swapped in, so a restore that fails part-way
// leaves the existing catalog untouched. The swap itself is a plain field
// assignment, not synchronized with calls running concurrently on h.
func (h *Handler) Restore(snap Snapshot) error {
	stores := xsync.NewMapOf[string, *Store]()
	for _, ss := range snap.Stores {
		store := newStore(ss.Name, ss.Dimension)
		if _, err := store.Add(ss.Entries); err != nil {
			return err
		}
		if len(ss.PredicateKeys) > 0 {
			store.CreatePredIndex(ss.PredicateKeys)
		}
		if len(ss.NonLinearSpecs) > 0 {
			store.CreateNonLinearIndex(ss.NonLinearSpecs)
		}
		stores.Store(ss.Name, store)
	}
	h.stores = stores
	h.dirty.Store(false)
	return nil
}
