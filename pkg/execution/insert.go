package execution

import (
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// Insert reads every tuple from its child and inserts it into tableID
// through the buffer pool, producing a single tuple holding the count of
// rows inserted once the child is exhausted.
type Insert struct {
	base      *BaseIterator
	tid       *transaction.TransactionID
	child     DbIterator
	tableID   primitives.TableID
	pool      *memory.BufferPool
	tupleDesc *tuple.TupleDescription
	done      bool
}

func NewInsert(tid *transaction.TransactionID, child DbIterator, tableID primitives.TableID, pool *memory.BufferPool) (*Insert, error) {
	if child == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_CHILD", "child operator cannot be nil")
	}

	td, err := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{"count"}, []int{0})
	if err != nil {
		return nil, err
	}

	ins := &Insert{tid: tid, child: child, tableID: tableID, pool: pool, tupleDesc: td}
	ins.base = NewBaseIterator(ins.readNext)
	return ins, nil
}

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.done = false
	ins.base.MarkOpened()
	if _, err := ins.base.HasNext(); err != nil {
		return err
	}
	return nil
}

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	var count int32
	for {
		hasNext, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.pool.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(ins.tupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

func (ins *Insert) GetTupleDesc() *tuple.TupleDescription { return ins.tupleDesc }
func (ins *Insert) HasNext() (bool, error)                { return ins.base.HasNext() }
func (ins *Insert) Next() (*tuple.Tuple, error)            { return ins.base.Next() }

func (ins *Insert) Rewind() error {
	return dberrors.New(dberrors.CategoryLogic, "NOT_REWINDABLE", "insert cannot be rewound")
}

func (ins *Insert) Close() error {
	if ins.child != nil {
		_ = ins.child.Close()
	}
	return ins.base.Close()
}

var _ DbIterator = (*Insert)(nil)
