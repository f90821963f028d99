package statistics

import (
	"sync"

	"storelite/pkg/catalog"
	"storelite/pkg/dberrors"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
)

// Registry holds the most recently computed TableStats for every table the
// caller has asked it to track. Unlike a package-level global keyed by
// implicit init order, a Registry is constructed explicitly and passed to
// whatever needs it (a planner, an admin endpoint, a test).
type Registry struct {
	mu    sync.RWMutex
	stats map[primitives.TableID]*TableStats
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stats: make(map[primitives.TableID]*TableStats)}
}

// Get returns the statistics currently stored for tableID.
func (r *Registry) Get(tableID primitives.TableID) (*TableStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ts, ok := r.stats[tableID]
	if !ok {
		return nil, dberrors.New(dberrors.CategoryLogic, "NO_STATS", "no statistics computed for table")
	}
	return ts, nil
}

// Set stores precomputed statistics for tableID, replacing any existing entry.
func (r *Registry) Set(tableID primitives.TableID, ts *TableStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[tableID] = ts
}

// Compute builds fresh statistics for tableID, using ioCostPerPage as the
// assumed per-page scan cost, and stores them, replacing any previous
// entry.
func (r *Registry) Compute(tableID primitives.TableID, ioCostPerPage float64, cat *catalog.Catalog, pool *memory.BufferPool) (*TableStats, error) {
	ts, err := NewTableStats(tableID, ioCostPerPage, cat, pool)
	if err != nil {
		return nil, err
	}
	r.Set(tableID, ts)
	return ts, nil
}

// ComputeAll builds fresh statistics for every table currently registered
// in cat, using ioCostPerPage for all of them. Tables are computed in name
// order and each one's entry is replaced as soon as it is computed; entries
// for tables not in cat are left as they are. A table that fails to scan
// stops the call with its error: tables computed before it keep their new
// entries, and the remaining tables keep whatever entries they had.
func (r *Registry) ComputeAll(ioCostPerPage float64, cat *catalog.Catalog, pool *memory.BufferPool) error {
	for _, name := range cat.TableNames() {
		tableID, err := cat.GetTableID(name)
		if err != nil {
			return err
		}
		if _, err := r.Compute(tableID, ioCostPerPage, cat, pool); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops any stored statistics for tableID.
func (r *Registry) Remove(tableID primitives.TableID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stats, tableID)
}
