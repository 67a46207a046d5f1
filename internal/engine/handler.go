package engine

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/dreamware/ahnlich-go/internal/logging"
	"github.com/dreamware/ahnlich-go/internal/nonlinear"
	"github.com/dreamware/ahnlich-go/internal/types"
	"github.com/dreamware/ahnlich-go/internal/vdberr"
)

// StoreInfo is one row of list_stores: an advisory snapshot, never a
// linearized count across stores (spec §5).
type StoreInfo struct {
	Name      string
	Len       int
	SizeBytes int64
}

// Handler is the top-level catalog of stores a server exposes (spec's
// StoreHandler): a concurrent name->Store map plus a shared dirty flag that
// any mutation sets and the snapshot writer atomically tests-and-clears.
type Handler struct {
	stores *xsync.MapOf[string, *Store]
	dirty  atomic.Bool
	log    *zap.SugaredLogger
}

// NewHandler creates an empty catalog.
func NewHandler() *Handler {
	return &Handler{
		stores: xsync.NewMapOf[string, *Store](),
		log:    logging.Named("engine"),
	}
}

// Dirty reports whether any mutation has occurred since the last TestAndClearDirty.
func (h *Handler) Dirty() bool { return h.dirty.Load() }

// TestAndClearDirty atomically reads and resets the dirty flag; the
// snapshot writer's hook point.
func (h *Handler) TestAndClearDirty() bool { return h.dirty.Swap(false) }

func (h *Handler) markDirty() { h.dirty.Store(true) }

// CreateStore inserts a new store iff absent. On collision, fails with
// StoreAlreadyExists when errIfExists, else is a no-op success.
func (h *Handler) CreateStore(name string, dimension int, initialPredicates []string, initialNonLinear []nonlinear.Spec, errIfExists bool) error {
	if dimension <= 0 {
		return vdberr.InvalidArgument("dimension must be > 0")
	}
	store := newStore(name, dimension)
	_, loaded := h.stores.LoadOrStore(name, store)
	if loaded {
		if errIfExists {
			return vdberr.StoreAlreadyExists(name)
		}
		return nil
	}

	if len(initialPredicates) > 0 {
		store.CreatePredIndex(initialPredicates)
	}
	if len(initialNonLinear) > 0 {
		store.CreateNonLinearIndex(initialNonLinear)
	}
	h.markDirty()
	h.log.Infow("create_store", "store", name, "dimension", dimension)
	return nil
}

// DropStore removes name, returning 1 if it existed, else 0.
func (h *Handler) DropStore(name string, errIfNotExists bool) (int, error) {
	_, ok := h.stores.LoadAndDelete(name)
	if !ok {
		if errIfNotExists {
			return 0, vdberr.StoreNotFound(name)
		}
		return 0, nil
	}
	h.markDirty()
	h.log.Infow("drop_store", "store", name)
	return 1, nil
}

// ListStores returns an advisory snapshot of every store's name/len/size.
func (h *Handler) ListStores() []StoreInfo {
	out := make([]StoreInfo, 0, h.stores.Size())
	h.stores.Range(func(_ string, s *Store) bool {
		out = append(out, StoreInfo{Name: s.Name(), Len: s.Len(), SizeBytes: s.SizeBytes()})
		return true
	})
	return out
}

// PurgeStores drops every store, returning the count dropped.
func (h *Handler) PurgeStores() int {
	names := make([]string, 0, h.stores.Size())
	h.stores.Range(func(name string, _ *Store) bool {
		names = append(names, name)
		return true
	})

	dropped := 0
	for _, name := range names {
		if _, ok := h.stores.LoadAndDelete(name); ok {
			dropped++
		}
	}
	if dropped > 0 {
		h.markDirty()
	}
	h.log.Infow("purge_stores", "dropped", dropped)
	return dropped
}

func (h *Handler) resolve(name string) (*Store, error) {
	s, ok := h.stores.Load(name)
	if !ok {
		return nil, vdberr.StoreNotFound(name)
	}
	return s, nil
}

// SetInStore upserts entries into name.
func (h *Handler) SetInStore(name string, entries []Entry) (UpsertCount, error) {
	s, err := h.resolve(name)
	if err != nil {
		return UpsertCount{}, err
	}
	count, err := s.Add(entries)
	if err != nil {
		return UpsertCount{}, err
	}
	if count.Inserted > 0 || count.Updated > 0 {
		h.markDirty()
	}
	return count, nil
}

// GetKeyInStore looks up keys in name.
func (h *Handler) GetKeyInStore(name string, keys []types.StoreKey) ([]Entry, error) {
	s, err := h.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.GetKeys(keys)
}

// GetPredInStore evaluates cond against name.
func (h *Handler) GetPredInStore(name string, cond *types.Condition) ([]Entry, error) {
	s, err := h.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.GetByCondition(cond), nil
}

// GetSimInStore runs the similarity search pipeline (§4.5) against name.
func (h *Handler) GetSimInStore(name string, query types.StoreKey, closestN int, algorithm string, cond *types.Condition) ([]Scored, error) {
	if closestN <= 0 {
		return nil, vdberr.InvalidArgument("closest_n must be > 0")
	}
	s, err := h.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.FindSimilar(query, closestN, algorithm, cond)
}

// DelKeyInStore removes keys from name, returning the count removed.
func (h *Handler) DelKeyInStore(name string, keys []types.StoreKey) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	removed, err := s.DeleteKeys(keys)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		h.markDirty()
	}
	return removed, nil
}

// DelPredInStore removes entries matching cond from name.
func (h *Handler) DelPredInStore(name string, cond *types.Condition) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	removed := s.DeleteMatches(cond)
	if removed > 0 {
		h.markDirty()
	}
	return removed, nil
}

// CreatePredIndex tracks newKeys on name, returning the count actually created.
func (h *Handler) CreatePredIndex(name string, newKeys []string) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	created := s.CreatePredIndex(newKeys)
	if created > 0 {
		h.markDirty()
	}
	return created, nil
}

// DropPredIndexInStore untracks keys on name.
func (h *Handler) DropPredIndexInStore(name string, keys []string, errIfNotExists bool) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	removed, err := s.DropPredIndex(keys, errIfNotExists)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		h.markDirty()
	}
	return removed, nil
}

// CreateNonLinearAlgorithmIndex creates the named non-linear indices on name.
func (h *Handler) CreateNonLinearAlgorithmIndex(name string, specs []nonlinear.Spec) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	created := s.CreateNonLinearIndex(specs)
	if created > 0 {
		h.markDirty()
	}
	return created, nil
}

// DropNonLinearAlgorithmIndex tears down the named non-linear indices on name.
func (h *Handler) DropNonLinearAlgorithmIndex(name string, specs []nonlinear.Spec, errIfNotExists bool) (int, error) {
	s, err := h.resolve(name)
	if err != nil {
		return 0, err
	}
	removed, err := s.DropNonLinearIndex(specs, errIfNotExists)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		h.markDirty()
	}
	return removed, nil
}
