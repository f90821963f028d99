package lock

import (
	"fmt"
	"sync"
	"time"

	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/logging"
	"storelite/pkg/primitives"
)

// lockWait is how long a blocked acquisition sleeps between retries.
const lockWait = 10 * time.Millisecond

// maxConsecutiveWaits bounds how many times in a row a transaction may
// retry the same acquisition before it is presumed deadlocked and
// aborted. At lockWait's cadence this is roughly one second.
const maxConsecutiveWaits = 100

// Manager grants and releases page-level shared/exclusive locks under
// strict two-phase locking. It does not build a waits-for graph: a
// transaction that keeps failing to acquire a lock is simply aborted once
// its consecutive-wait count crosses maxConsecutiveWaits. This trades
// precise deadlock detection for a much simpler implementation, at the
// cost of occasionally aborting a transaction that was not really
// deadlocked, just slow to be scheduled.
type Manager struct {
	mu               sync.Mutex
	pageLocks        map[primitives.PageID][]*Lock
	transactionLocks map[*transaction.TransactionID]map[primitives.PageID]LockType
}

func NewManager() *Manager {
	return &Manager{
		pageLocks:        make(map[primitives.PageID][]*Lock),
		transactionLocks: make(map[*transaction.TransactionID]map[primitives.PageID]LockType),
	}
}

// Acquire blocks until tid holds a lock of at least lockType on pid, or
// returns a CategoryDeadlock error if tid is aborted for waiting too long.
func (m *Manager) Acquire(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) error {
	if tid == nil {
		return dberrors.New(dberrors.CategoryArgument, "NIL_TID", "transaction id cannot be nil")
	}

	for {
		m.mu.Lock()

		if m.alreadyHolds(tid, pid, lockType) {
			tid.ResetWaits()
			m.mu.Unlock()
			return nil
		}

		if lockType == ExclusiveLock && m.holds(tid, pid, SharedLock) && m.canUpgrade(tid, pid) {
			m.upgrade(tid, pid)
			tid.ResetWaits()
			m.mu.Unlock()
			return nil
		}

		if m.canGrant(tid, pid, lockType) {
			m.grant(tid, pid, lockType)
			tid.ResetWaits()
			m.mu.Unlock()
			return nil
		}

		waits := tid.RecordWait()
		m.mu.Unlock()

		if waits > maxConsecutiveWaits {
			logging.WithLock(tid.ID(), pid).Warn("aborting after consecutive wait limit", "waits", waits, "lock_type", lockType)
			return dberrors.New(dberrors.CategoryDeadlock, "LOCK_TIMEOUT",
				fmt.Sprintf("transaction %s aborted after %d consecutive waits for %s lock on %s",
					tid, waits, lockType, pid))
		}

		time.Sleep(lockWait)
	}
}

func (m *Manager) alreadyHolds(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) bool {
	held, ok := m.heldType(tid, pid)
	if !ok {
		return false
	}
	if held == ExclusiveLock {
		return true
	}
	return lockType == SharedLock
}

func (m *Manager) holds(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) bool {
	held, ok := m.heldType(tid, pid)
	return ok && held == lockType
}

func (m *Manager) heldType(tid *transaction.TransactionID, pid primitives.PageID) (LockType, bool) {
	pages, ok := m.transactionLocks[tid]
	if !ok {
		return 0, false
	}
	lt, ok := pages[pid]
	return lt, ok
}

// canGrant reports whether tid can be granted lockType on pid given the
// locks currently held by other transactions.
func (m *Manager) canGrant(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) bool {
	locks := m.pageLocks[pid]
	if len(locks) == 0 {
		return true
	}

	if lockType == ExclusiveLock {
		for _, l := range locks {
			if l.TID != tid {
				return false
			}
		}
		return true
	}

	for _, l := range locks {
		if l.TID != tid && l.LockType == ExclusiveLock {
			return false
		}
	}
	return true
}

func (m *Manager) canUpgrade(tid *transaction.TransactionID, pid primitives.PageID) bool {
	for _, l := range m.pageLocks[pid] {
		if l.TID != tid {
			return false
		}
	}
	return true
}

func (m *Manager) upgrade(tid *transaction.TransactionID, pid primitives.PageID) {
	for _, l := range m.pageLocks[pid] {
		if l.TID == tid {
			l.LockType = ExclusiveLock
		}
	}
	m.transactionLocks[tid][pid] = ExclusiveLock
}

func (m *Manager) grant(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) {
	m.pageLocks[pid] = append(m.pageLocks[pid], NewLock(tid, lockType))
	if m.transactionLocks[tid] == nil {
		m.transactionLocks[tid] = make(map[primitives.PageID]LockType)
	}
	m.transactionLocks[tid][pid] = lockType
}

// HoldsLock reports whether tid holds any lock on pid.
func (m *Manager) HoldsLock(tid *transaction.TransactionID, pid primitives.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.heldType(tid, pid)
	return ok
}

// Release drops tid's lock on pid, if any.
func (m *Manager) Release(tid *transaction.TransactionID, pid primitives.PageID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release(tid, pid)
}

func (m *Manager) release(tid *transaction.TransactionID, pid primitives.PageID) {
	if locks, ok := m.pageLocks[pid]; ok {
		kept := locks[:0]
		for _, l := range locks {
			if l.TID != tid {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(m.pageLocks, pid)
		} else {
			m.pageLocks[pid] = kept
		}
	}

	if pages, ok := m.transactionLocks[tid]; ok {
		delete(pages, pid)
		if len(pages) == 0 {
			delete(m.transactionLocks, tid)
		}
	}
}

// ReleaseAll drops every lock held by tid, called at commit or abort.
func (m *Manager) ReleaseAll(tid *transaction.TransactionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pages, ok := m.transactionLocks[tid]
	if !ok {
		return
	}

	held := make([]primitives.PageID, 0, len(pages))
	for pid := range pages {
		held = append(held, pid)
	}
	for _, pid := range held {
		m.release(tid, pid)
	}
}

// HeldPages returns every page tid currently holds a lock on.
func (m *Manager) HeldPages(tid *transaction.TransactionID) []primitives.PageID {
	m.mu.Lock()
	defer m.mu.Unlock()

	pages, ok := m.transactionLocks[tid]
	if !ok {
		return nil
	}
	out := make([]primitives.PageID, 0, len(pages))
	for pid := range pages {
		out = append(out, pid)
	}
	return out
}
