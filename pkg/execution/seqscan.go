package execution

import (
	"storelite/pkg/catalog"
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/heap"
	"storelite/pkg/tuple"
)

// SeqScan reads every tuple of one table, in on-disk page order, through
// the buffer pool.
type SeqScan struct {
	base      *BaseIterator
	tid       *transaction.TransactionID
	tableID   primitives.TableID
	tupleDesc *tuple.TupleDescription
	fileIter  *heap.FileIterator
}

// NewSeqScan scans tableID under tid, reading pages through pool.
func NewSeqScan(tid *transaction.TransactionID, tableID primitives.TableID, cat *catalog.Catalog, pool *memory.BufferPool) (*SeqScan, error) {
	td, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return nil, err
	}

	dbFile, err := cat.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	hf, ok := dbFile.(*heap.HeapFile)
	if !ok {
		return nil, dberrors.New(dberrors.CategoryLogic, "NOT_HEAP_FILE", "table is not backed by a heap file")
	}

	ss := &SeqScan{
		tid:       tid,
		tableID:   tableID,
		tupleDesc: td,
		fileIter:  heap.NewFileIterator(tid, hf, pool),
	}
	ss.base = NewBaseIterator(ss.readNext)
	return ss, nil
}

func (ss *SeqScan) Open() error {
	if err := ss.fileIter.Open(); err != nil {
		return err
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	hasNext, err := ss.fileIter.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return ss.fileIter.Next()
}

func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription { return ss.tupleDesc }
func (ss *SeqScan) HasNext() (bool, error)                { return ss.base.HasNext() }
func (ss *SeqScan) Next() (*tuple.Tuple, error)            { return ss.base.Next() }

func (ss *SeqScan) Rewind() error {
	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}
	ss.base.ClearCache()
	return nil
}

func (ss *SeqScan) Close() error {
	if ss.fileIter != nil {
		_ = ss.fileIter.Close()
	}
	return ss.base.Close()
}

var _ DbIterator = (*SeqScan)(nil)
