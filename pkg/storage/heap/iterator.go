package heap

import (
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
)

// FileIterator scans every tuple of a HeapFile, page by page, in page-number
// order. Each Open call re-fetches pages through provider, so it observes
// whatever the transaction currently holds locks on; it does not cache
// pages across an Open/Close cycle.
type FileIterator struct {
	tid      *transaction.TransactionID
	file     *HeapFile
	provider PageProvider

	pageNo      primitives.PageNumber
	numPages    primitives.PageNumber
	tuples      []*tuple.Tuple
	tupleIdx    int
	opened      bool
}

// NewFileIterator creates an iterator over file's tuples under tid, reading
// pages through provider (normally the buffer pool).
func NewFileIterator(tid *transaction.TransactionID, file *HeapFile, provider PageProvider) *FileIterator {
	return &FileIterator{tid: tid, file: file, provider: provider}
}

func (it *FileIterator) Open() error {
	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}
	it.numPages = numPages
	it.pageNo = 0
	it.tuples = nil
	it.tupleIdx = 0
	it.opened = true
	return it.loadNextPageWithTuples()
}

// loadNextPageWithTuples advances pageNo until it finds a page with at
// least one tuple, or runs off the end of the file.
func (it *FileIterator) loadNextPageWithTuples() error {
	for it.pageNo < it.numPages {
		pid := primitives.NewPageID(it.file.GetID(), it.pageNo)
		p, err := it.provider.GetPage(it.tid, pid, ReadOnly)
		if err != nil {
			return err
		}
		hp := p.(*HeapPage)
		it.pageNo++

		tuples := hp.GetTuples()
		if len(tuples) > 0 {
			it.tuples = tuples
			it.tupleIdx = 0
			return nil
		}
	}
	it.tuples = nil
	return nil
}

func (it *FileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberrors.New(dberrors.CategoryLogic, "ITERATOR_NOT_OPEN", "iterator not opened")
	}

	for it.tupleIdx >= len(it.tuples) {
		if it.pageNo >= it.numPages {
			return false, nil
		}
		if err := it.loadNextPageWithTuples(); err != nil {
			return false, err
		}
		if it.tuples == nil {
			return false, nil
		}
	}
	return true, nil
}

func (it *FileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberrors.New(dberrors.CategoryExhausted, "NO_MORE_TUPLES", "no more tuples")
	}
	t := it.tuples[it.tupleIdx]
	it.tupleIdx++
	return t, nil
}

func (it *FileIterator) Rewind() error {
	return it.Open()
}

func (it *FileIterator) Close() error {
	it.opened = false
	it.tuples = nil
	return nil
}

var _ page.DbFile = (*HeapFile)(nil)
