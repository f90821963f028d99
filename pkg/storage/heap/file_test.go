package heap

import (
	"path/filepath"
	"testing"

	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
)

// fakeProvider is a minimal PageProvider backed by a plain in-memory map,
// used to exercise HeapFile without pulling in the buffer pool or lock
// manager.
type fakeProvider struct {
	file  *HeapFile
	pages map[page.PageID]page.Page
}

func (p *fakeProvider) GetPage(tid *transaction.TransactionID, pid page.PageID, perm LockPermission) (page.Page, error) {
	if cached, ok := p.pages[pid]; ok {
		return cached, nil
	}
	pg, err := p.file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	if p.pages == nil {
		p.pages = make(map[page.PageID]page.Page)
	}
	p.pages[pid] = pg
	return pg, nil
}

func (p *fakeProvider) ReleasePage(tid *transaction.TransactionID, pid page.PageID) {}

func newTestHeapFile(t *testing.T) (*HeapFile, *tuple.TupleDescription) {
	t.Helper()
	td := mustCreateTupleDesc(t)
	dir := t.TempDir()
	hf, err := NewHeapFile(primitives.Filepath(filepath.Join(dir, "table.dat")), td)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	t.Cleanup(func() { _ = hf.Close() })
	return hf, td
}

func TestHeapFileInsertAllocatesPages(t *testing.T) {
	hf, td := newTestHeapFile(t)
	provider := &fakeProvider{file: hf}
	tid := transaction.NewTransactionID()

	numPages, err := hf.NumPages()
	if err != nil {
		t.Fatalf("NumPages: %v", err)
	}
	if numPages != 0 {
		t.Fatalf("expected a fresh file to have 0 pages, got %d", numPages)
	}

	tup := mustCreateTuple(t, td, 1, "alice")
	p, err := hf.InsertTuple(tid, provider, tup)
	if err != nil {
		t.Fatalf("InsertTuple: %v", err)
	}
	if p == nil {
		t.Fatal("expected a non-nil dirtied page")
	}

	numPages, err = hf.NumPages()
	if err != nil {
		t.Fatalf("NumPages: %v", err)
	}
	if numPages != 1 {
		t.Fatalf("expected 1 page after first insert, got %d", numPages)
	}
}

func TestHeapFileInsertFillsExistingPageBeforeAllocating(t *testing.T) {
	hf, td := newTestHeapFile(t)
	provider := &fakeProvider{file: hf}
	tid := transaction.NewTransactionID()

	firstPage, err := hf.InsertTuple(tid, provider, mustCreateTuple(t, td, 1, "a"))
	if err != nil {
		t.Fatalf("InsertTuple: %v", err)
	}
	hp := firstPage.(*HeapPage)
	empty := hp.GetNumEmptySlots()

	for i := 0; i < empty; i++ {
		if _, err := hf.InsertTuple(tid, provider, mustCreateTuple(t, td, int32(i+2), "x")); err != nil {
			t.Fatalf("InsertTuple: %v", err)
		}
	}

	numPages, err := hf.NumPages()
	if err != nil {
		t.Fatalf("NumPages: %v", err)
	}
	if numPages != 1 {
		t.Fatalf("expected still 1 page while the first page had room, got %d", numPages)
	}

	if _, err := hf.InsertTuple(tid, provider, mustCreateTuple(t, td, 999, "overflow")); err != nil {
		t.Fatalf("InsertTuple: %v", err)
	}
	numPages, err = hf.NumPages()
	if err != nil {
		t.Fatalf("NumPages: %v", err)
	}
	if numPages != 2 {
		t.Fatalf("expected a second page once the first filled up, got %d", numPages)
	}
}

func TestHeapFileDeleteTuple(t *testing.T) {
	hf, td := newTestHeapFile(t)
	provider := &fakeProvider{file: hf}
	tid := transaction.NewTransactionID()

	tup := mustCreateTuple(t, td, 5, "dana")
	if _, err := hf.InsertTuple(tid, provider, tup); err != nil {
		t.Fatalf("InsertTuple: %v", err)
	}

	if _, err := hf.DeleteTuple(tid, provider, tup); err != nil {
		t.Fatalf("DeleteTuple: %v", err)
	}
	if tup.RecordID != nil {
		t.Error("expected RecordID to be cleared after delete")
	}
}

func TestHeapFileReadPageBeyondEOFReturnsEmptyPage(t *testing.T) {
	hf, _ := newTestHeapFile(t)
	pid := primitives.NewPageID(hf.GetID(), 0)

	p, err := hf.ReadPage(pid)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	hp := p.(*HeapPage)
	if hp.GetNumEmptySlots() != hp.numSlots {
		t.Error("expected a page past EOF to come back empty")
	}
}

func TestHeapFileReadPageWrongTable(t *testing.T) {
	hf, _ := newTestHeapFile(t)
	pid := primitives.NewPageID(hf.GetID()+1, 0)

	if _, err := hf.ReadPage(pid); err == nil {
		t.Error("expected an error when reading a page for a different table")
	}
}

func TestHeapFileImplementsDbFile(t *testing.T) {
	var _ page.DbFile = (*HeapFile)(nil)
}
