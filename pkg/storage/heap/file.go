// Package heap implements the on-disk heap file storage engine: pages
// with a bitmap-header slot layout, and unordered files of such pages.
package heap

import (
	"errors"
	"fmt"
	"io"

	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
)

// PageProvider is the narrow slice of the buffer pool a HeapFile needs to
// insert tuples: fetching a page under a transaction's lock, without the
// buffer pool needing to import this package. It lets InsertTuple probe
// existing pages for free space through the same locking and caching path
// every other page access uses.
type PageProvider interface {
	GetPage(tid *transaction.TransactionID, pid page.PageID, perm LockPermission) (page.Page, error)

	// ReleasePage drops tid's lock on pid outside the normal commit/abort
	// path. InsertTuple's free-space probe is the one place this module
	// releases a lock before end of transaction: once a page has been read
	// only to check for room and found full, holding onto it for the rest
	// of the transaction would serialize inserts against every other
	// transaction touching that page for no reason.
	ReleasePage(tid *transaction.TransactionID, pid page.PageID)
}

// LockPermission distinguishes read-only page access from access that
// intends to modify the page.
type LockPermission int

const (
	ReadOnly LockPermission = iota
	ReadWrite
)

// HeapFile is an unordered collection of fixed-size pages stored in a
// single OS file. It implements page.DbFile.
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription
}

// NewHeapFile opens or creates the file at path, backing tuples of schema td.
func NewHeapFile(path primitives.Filepath, td *tuple.TupleDescription) (*HeapFile, error) {
	base, err := page.NewBaseFile(path)
	if err != nil {
		return nil, err
	}
	return &HeapFile{BaseFile: base, tupleDesc: td}, nil
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// ReadPage loads pid from disk, returning a fresh empty page if pid is
// past the current end of file.
func (hf *HeapFile) ReadPage(pid page.PageID) (page.Page, error) {
	if pid.TableID != hf.GetID() {
		return nil, dberrors.New(dberrors.CategoryArgument, "TABLE_MISMATCH", "page id does not belong to this file")
	}

	data, err := hf.ReadPageData(pid.PageNumber)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewHeapPage(pid, make([]byte, page.PageSize), hf.tupleDesc)
		}
		return nil, dberrors.Wrap(err, "READ_PAGE_FAILED", "ReadPage", "heap.HeapFile")
	}

	return NewHeapPage(pid, data, hf.tupleDesc)
}

// WritePage flushes p to its designated offset in the file.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return dberrors.New(dberrors.CategoryArgument, "NIL_PAGE", "page cannot be nil")
	}
	return hf.WritePageData(p.GetID().PageNumber, p.GetPageData())
}

// InsertTuple places t on the first existing page with a free slot,
// probing each page in turn through provider (so the buffer pool's page
// cache and lock manager mediate every access); if none has room, it
// allocates and appends a new page. Returns the page the tuple landed on.
func (hf *HeapFile) InsertTuple(tid *transaction.TransactionID, provider PageProvider, t *tuple.Tuple) (page.Page, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		pid := primitives.NewPageID(hf.GetID(), pageNo)

		p, err := provider.GetPage(tid, pid, ReadOnly)
		if err != nil {
			return nil, err
		}
		hp := p.(*HeapPage)
		if hp.GetNumEmptySlots() == 0 {
			provider.ReleasePage(tid, pid)
			continue
		}

		p, err = provider.GetPage(tid, pid, ReadWrite)
		if err != nil {
			return nil, err
		}
		hp = p.(*HeapPage)
		if err := hp.AddTuple(t); err != nil {
			continue
		}
		hp.MarkDirty(true, tid)
		return hp, nil
	}

	newPageNo, err := hf.AllocateNewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate new page: %w", err)
	}

	pid := primitives.NewPageID(hf.GetID(), newPageNo)
	p, err := provider.GetPage(tid, pid, ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := p.(*HeapPage)
	if err := hp.AddTuple(t); err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	return hp, nil
}

// DeleteTuple removes t from the page named by its RecordID.
func (hf *HeapFile) DeleteTuple(tid *transaction.TransactionID, provider PageProvider, t *tuple.Tuple) (page.Page, error) {
	if t.RecordID == nil {
		return nil, dberrors.New(dberrors.CategoryLogic, "NO_RECORD_ID", "tuple has no record id")
	}

	p, err := provider.GetPage(tid, t.RecordID.PageID, ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := p.(*HeapPage)
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	return hp, nil
}
