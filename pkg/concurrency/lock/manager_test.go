package lock

import (
	"sync"
	"testing"
	"time"

	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/primitives"
)

func TestManagerAcquireSharedLock(t *testing.T) {
	m := NewManager()
	tid := transaction.NewTransactionID()
	pid := primitives.NewPageID(1, 1)

	if err := m.Acquire(tid, pid, SharedLock); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !m.HoldsLock(tid, pid) {
		t.Error("expected tid to hold a lock after Acquire")
	}
}

func TestManagerMultipleReadersShareALock(t *testing.T) {
	m := NewManager()
	pid := primitives.NewPageID(1, 1)
	t1 := transaction.NewTransactionID()
	t2 := transaction.NewTransactionID()

	if err := m.Acquire(t1, pid, SharedLock); err != nil {
		t.Fatalf("Acquire t1: %v", err)
	}
	if err := m.Acquire(t2, pid, SharedLock); err != nil {
		t.Fatalf("Acquire t2: %v", err)
	}
}

func TestManagerWriterExcludesReader(t *testing.T) {
	m := NewManager()
	pid := primitives.NewPageID(1, 1)
	writer := transaction.NewTransactionID()
	reader := transaction.NewTransactionID()

	if err := m.Acquire(writer, pid, ExclusiveLock); err != nil {
		t.Fatalf("Acquire writer: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.Acquire(reader, pid, SharedLock)
	}()

	select {
	case <-done:
		t.Fatal("expected reader to block while writer holds an exclusive lock")
	default:
	}

	m.Release(writer, pid)
	if err := <-done; err != nil {
		t.Fatalf("reader Acquire: %v", err)
	}
}

func TestManagerUpgradeSharedToExclusive(t *testing.T) {
	m := NewManager()
	pid := primitives.NewPageID(1, 1)
	tid := transaction.NewTransactionID()

	if err := m.Acquire(tid, pid, SharedLock); err != nil {
		t.Fatalf("Acquire shared: %v", err)
	}
	if err := m.Acquire(tid, pid, ExclusiveLock); err != nil {
		t.Fatalf("Acquire (upgrade) exclusive: %v", err)
	}
	if !m.holds(tid, pid, ExclusiveLock) {
		t.Error("expected lock to have been upgraded to exclusive")
	}
}

func TestManagerReleaseAll(t *testing.T) {
	m := NewManager()
	tid := transaction.NewTransactionID()
	p1 := primitives.NewPageID(1, 1)
	p2 := primitives.NewPageID(1, 2)

	if err := m.Acquire(tid, p1, SharedLock); err != nil {
		t.Fatalf("Acquire p1: %v", err)
	}
	if err := m.Acquire(tid, p2, SharedLock); err != nil {
		t.Fatalf("Acquire p2: %v", err)
	}

	m.ReleaseAll(tid)

	if m.HoldsLock(tid, p1) || m.HoldsLock(tid, p2) {
		t.Error("expected ReleaseAll to drop every lock held by tid")
	}
}

func TestManagerDeadlockAbortsExactlyOneTransaction(t *testing.T) {
	m := NewManager()
	pA := primitives.NewPageID(1, 1)
	pB := primitives.NewPageID(1, 2)
	t1 := transaction.NewTransactionID()
	t2 := transaction.NewTransactionID()

	if err := m.Acquire(t1, pA, ExclusiveLock); err != nil {
		t.Fatalf("t1 acquire pA: %v", err)
	}
	if err := m.Acquire(t2, pB, ExclusiveLock); err != nil {
		t.Fatalf("t2 acquire pB: %v", err)
	}

	// An aborted transaction gives up its locks through ReleaseAll, as the
	// buffer pool's abort path does. t2 starts half a retry interval after
	// t1 so the two do not hit the wait limit at the same instant: t1 is
	// aborted first, and its release lets t2's next retry succeed.
	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0] = m.Acquire(t1, pB, ExclusiveLock)
		if results[0] != nil {
			m.ReleaseAll(t1)
		}
	}()
	time.Sleep(lockWait / 2)
	go func() {
		defer wg.Done()
		results[1] = m.Acquire(t2, pA, ExclusiveLock)
		if results[1] != nil {
			m.ReleaseAll(t2)
		}
	}()
	wg.Wait()

	aborted := 0
	for _, err := range results {
		if err != nil {
			aborted++
		}
	}
	if aborted != 1 {
		t.Fatalf("expected exactly one transaction to be aborted for the deadlock, got %d", aborted)
	}
}

func TestManagerHeldPages(t *testing.T) {
	m := NewManager()
	tid := transaction.NewTransactionID()
	pid := primitives.NewPageID(1, 1)

	if err := m.Acquire(tid, pid, SharedLock); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	held := m.HeldPages(tid)
	if len(held) != 1 || !held[0].Equals(pid) {
		t.Errorf("expected HeldPages to return [%v], got %v", pid, held)
	}
}
