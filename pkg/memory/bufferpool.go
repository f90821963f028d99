// Package memory implements the buffer pool: a fixed-capacity, in-memory
// cache of pages shared by every transaction, responsible for mediating
// every page access through the lock manager and for commit/abort
// orchestration under a NO-STEAL, FORCE policy.
package memory

import (
	"fmt"
	"sync"

	"storelite/pkg/catalog"
	"storelite/pkg/concurrency/lock"
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/logging"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/heap"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
)

// DefaultCapacity is the default maximum number of pages the buffer pool
// will hold at once, matching the teaching database this engine is based on.
const DefaultCapacity = 50

// transactionState tracks, per active transaction, which pages it has
// dirtied. Because eviction never touches a dirty page (NO-STEAL), an
// abort can always restore every dirtied page from its before-image.
type transactionState struct {
	dirtyPages map[primitives.PageID]bool
}

// BufferPool is the fixed-capacity cache of pages that mediates all page
// access. It never evicts a dirty page (NO-STEAL) and flushes a
// transaction's dirty pages synchronously at commit (FORCE), so recovery
// after a crash is out of scope: there is never an uncommitted change on
// disk to undo, and a committed change is on disk before commit returns.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	pages    map[primitives.PageID]page.Page

	catalog *catalog.Catalog
	locks   *lock.Manager

	txMu sync.Mutex
	txns map[*transaction.TransactionID]*transactionState
}

// NewBufferPool creates a buffer pool holding at most capacity pages,
// resolving table lookups through cat.
func NewBufferPool(cat *catalog.Catalog, capacity int) *BufferPool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &BufferPool{
		capacity: capacity,
		pages:    make(map[primitives.PageID]page.Page),
		catalog:  cat,
		locks:    lock.NewManager(),
		txns:     make(map[*transaction.TransactionID]*transactionState),
	}
}

// GetPage returns the page identified by pid, acquiring a lock of the
// appropriate mode for tid first. It satisfies heap.PageProvider, letting
// HeapFile.InsertTuple probe pages through the same cache and lock path
// as every other access.
func (bp *BufferPool) GetPage(tid *transaction.TransactionID, pid primitives.PageID, perm heap.LockPermission) (page.Page, error) {
	lockType := lock.SharedLock
	if perm == heap.ReadWrite {
		lockType = lock.ExclusiveLock
	}

	if err := bp.locks.Acquire(tid, pid, lockType); err != nil {
		if dbErr, ok := err.(*dberrors.DBError); ok && dbErr.Category == dberrors.CategoryDeadlock {
			return nil, &dberrors.DBError{
				Category:  dberrors.CategoryAborted,
				Code:      "TRANSACTION_ABORTED",
				Message:   fmt.Sprintf("transaction %s aborted waiting for a lock on %s", tid, pid),
				Operation: "GetPage",
				Component: "memory.BufferPool",
				Cause:     err,
			}
		}
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if p, ok := bp.pages[pid]; ok {
		return p, nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictOneLocked(); err != nil {
			return nil, err
		}
	}

	dbFile, err := bp.catalog.GetDbFile(pid.TableID)
	if err != nil {
		return nil, err
	}

	p, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, dberrors.Wrap(err, "READ_PAGE_FAILED", "GetPage", "memory.BufferPool")
	}

	bp.pages[pid] = p
	return p, nil
}

// evictOneLocked picks a random clean page to evict; page locks are not
// consulted. If the
// randomly chosen page is dirty it looks for the first clean page instead;
// if every cached page is dirty, eviction fails and the caller must abort
// or wait rather than lose an uncommitted write. Callers must hold bp.mu.
func (bp *BufferPool) evictOneLocked() error {
	ids := make([]primitives.PageID, 0, len(bp.pages))
	for pid := range bp.pages {
		ids = append(ids, pid)
	}
	if len(ids) == 0 {
		return dberrors.New(dberrors.CategoryExhausted, "BUFFER_EMPTY", "no pages to evict")
	}

	victim := ids[randIndex(len(ids))]
	if bp.pages[victim].IsDirty() == nil {
		delete(bp.pages, victim)
		return nil
	}

	for _, pid := range ids {
		if bp.pages[pid].IsDirty() == nil {
			delete(bp.pages, pid)
			return nil
		}
	}

	logging.WithComponent("memory.BufferPool").Warn("eviction failed, all cached pages dirty", "capacity", bp.capacity)
	return dberrors.New(dberrors.CategoryLogic, "BUFFER_FULL", "all cached pages are dirty, cannot evict under NO-STEAL")
}

// InsertTuple inserts t into tableID's file, tracking whichever pages get
// dirtied for eventual commit or abort.
func (bp *BufferPool) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	dbFile, err := bp.catalog.GetDbFile(tableID)
	if err != nil {
		return err
	}
	hf, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return dberrors.New(dberrors.CategoryLogic, "NOT_HEAP_FILE", "table is not backed by a heap file")
	}

	dirtied, err := hf.InsertTuple(tid, bp, t)
	if err != nil {
		return err
	}

	bp.trackDirty(tid, dirtied.GetID())
	return nil
}

// DeleteTuple removes t from its recorded page, tracking the dirtied page.
func (bp *BufferPool) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error {
	if t.RecordID == nil {
		return dberrors.New(dberrors.CategoryLogic, "NO_RECORD_ID", "tuple has no record id")
	}

	dbFile, err := bp.catalog.GetDbFile(t.RecordID.PageID.TableID)
	if err != nil {
		return err
	}
	hf, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return dberrors.New(dberrors.CategoryLogic, "NOT_HEAP_FILE", "table is not backed by a heap file")
	}

	dirtied, err := hf.DeleteTuple(tid, bp, t)
	if err != nil {
		return err
	}

	bp.trackDirty(tid, dirtied.GetID())
	return nil
}

func (bp *BufferPool) trackDirty(tid *transaction.TransactionID, pid primitives.PageID) {
	bp.txMu.Lock()
	defer bp.txMu.Unlock()

	state, ok := bp.txns[tid]
	if !ok {
		state = &transactionState{dirtyPages: make(map[primitives.PageID]bool)}
		bp.txns[tid] = state
	}
	state.dirtyPages[pid] = true
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid *transaction.TransactionID, pid primitives.PageID) bool {
	return bp.locks.HoldsLock(tid, pid)
}

// ReleasePage drops tid's lock on pid outside the commit/abort path. It
// exists to satisfy heap.PageProvider's free-space-probe hook and must be
// exported only because that interface is implemented across a package
// boundary; it is not part of BufferPool's intended API and callers other
// than HeapFile.InsertTuple's probe should not use it, since releasing a
// lock mid-transaction outside that one narrow case gives up strict
// two-phase locking's guarantees.
func (bp *BufferPool) ReleasePage(tid *transaction.TransactionID, pid primitives.PageID) {
	logging.WithLock(tid.ID(), pid).Debug("releasing probe lock")
	bp.locks.Release(tid, pid)
}

// CommitTransaction forces every page tid dirtied to disk, snapshots them
// as clean before-images, then releases tid's locks.
func (bp *BufferPool) CommitTransaction(tid *transaction.TransactionID) error {
	bp.txMu.Lock()
	state, ok := bp.txns[tid]
	delete(bp.txns, tid)
	bp.txMu.Unlock()

	if !ok {
		bp.locks.ReleaseAll(tid)
		return nil
	}

	for pid := range state.dirtyPages {
		if err := bp.flush(pid); err != nil {
			logging.WithTx(tid.ID()).Error("commit flush failed", "page", pid, "error", err)
			return dberrors.Wrap(err, "COMMIT_FLUSH_FAILED", "CommitTransaction", "memory.BufferPool")
		}
	}

	bp.locks.ReleaseAll(tid)
	return nil
}

// flush writes the page identified by pid to disk if it is still dirty and
// records its new before-image, since it just became durable.
func (bp *BufferPool) flush(pid primitives.PageID) error {
	bp.mu.Lock()
	p, ok := bp.pages[pid]
	bp.mu.Unlock()
	if !ok {
		return nil
	}
	if p.IsDirty() == nil {
		return nil
	}

	dbFile, err := bp.catalog.GetDbFile(pid.TableID)
	if err != nil {
		return err
	}
	logging.WithPage(pid).Debug("flushing dirty page")
	p.SetBeforeImage()
	if err := dbFile.WritePage(p); err != nil {
		return err
	}
	p.MarkDirty(false, nil)
	return nil
}

// AbortTransaction discards tid's writes by restoring every page it
// dirtied to its before-image, then releases tid's locks. Because dirty
// pages are never evicted, the before-image is always available in cache.
func (bp *BufferPool) AbortTransaction(tid *transaction.TransactionID) error {
	bp.txMu.Lock()
	state, ok := bp.txns[tid]
	delete(bp.txns, tid)
	bp.txMu.Unlock()

	if ok {
		bp.mu.Lock()
		for pid := range state.dirtyPages {
			if p, exists := bp.pages[pid]; exists {
				bp.pages[pid] = p.GetBeforeImage()
			}
		}
		bp.mu.Unlock()
	}

	bp.locks.ReleaseAll(tid)
	return nil
}

// FlushAllPages writes every dirty cached page to disk regardless of which
// transaction dirtied it. This is an administrative operation (used by
// tests and shutdown), not part of the commit path.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	ids := make([]primitives.PageID, 0, len(bp.pages))
	for pid := range bp.pages {
		ids = append(ids, pid)
	}
	bp.mu.Unlock()

	for _, pid := range ids {
		if err := bp.flush(pid); err != nil {
			return fmt.Errorf("failed to flush page %v: %w", pid, err)
		}
	}
	return nil
}

// randIndex is a small non-cryptographic index picker for eviction victim
// selection. It is deliberately not math/rand's global source so tests can
// substitute a deterministic one if ever needed.
var randSource = newXorshift(0x2545F4914F6CDD1D)

func randIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return int(randSource.next() % uint64(n))
}

type xorshift struct {
	mu    sync.Mutex
	state uint64
}

func newXorshift(seed uint64) *xorshift {
	return &xorshift{state: seed}
}

func (x *xorshift) next() uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.state ^= x.state << 13
	x.state ^= x.state >> 7
	x.state ^= x.state << 17
	return x.state
}
