package execution

import (
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/memory"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// Delete reads every tuple from its child and deletes it through the
// buffer pool, producing a single tuple holding the count of rows deleted
// once the child is exhausted.
type Delete struct {
	base      *BaseIterator
	tid       *transaction.TransactionID
	child     DbIterator
	pool      *memory.BufferPool
	tupleDesc *tuple.TupleDescription
	done      bool
}

func NewDelete(tid *transaction.TransactionID, child DbIterator, pool *memory.BufferPool) (*Delete, error) {
	if child == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_CHILD", "child operator cannot be nil")
	}

	td, err := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{"count"}, []int{0})
	if err != nil {
		return nil, err
	}

	del := &Delete{tid: tid, child: child, pool: pool, tupleDesc: td}
	del.base = NewBaseIterator(del.readNext)
	return del, nil
}

func (del *Delete) Open() error {
	if err := del.child.Open(); err != nil {
		return err
	}
	del.done = false
	del.base.MarkOpened()
	if _, err := del.base.HasNext(); err != nil {
		return err
	}
	return nil
}

func (del *Delete) readNext() (*tuple.Tuple, error) {
	if del.done {
		return nil, nil
	}
	del.done = true

	var count int32
	for {
		hasNext, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if err := del.pool.DeleteTuple(del.tid, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(del.tupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (del *Delete) GetTupleDesc() *tuple.TupleDescription { return del.tupleDesc }
func (del *Delete) HasNext() (bool, error)                { return del.base.HasNext() }
func (del *Delete) Next() (*tuple.Tuple, error)            { return del.base.Next() }

func (del *Delete) Rewind() error {
	return dberrors.New(dberrors.CategoryLogic, "NOT_REWINDABLE", "delete cannot be rewound")
}

func (del *Delete) Close() error {
	if del.child != nil {
		_ = del.child.Close()
	}
	return del.base.Close()
}

var _ DbIterator = (*Delete)(nil)
