package execution

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
)

// Join is a simple nested-loop join: for each left tuple it scans the
// entire right child looking for matches under a JoinPredicate, buffering
// the right side's tuples on the first pass since most DbIterators cannot
// be scanned twice concurrently.
type Join struct {
	base      *BaseIterator
	predicate *JoinPredicate
	left      DbIterator
	right     DbIterator
	tupleDesc *tuple.TupleDescription

	rightBuf   []*tuple.Tuple
	rightIdx   int
	curLeft    *tuple.Tuple
}

func NewJoin(predicate *JoinPredicate, left, right DbIterator) (*Join, error) {
	if predicate == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_PREDICATE", "predicate cannot be nil")
	}
	if left == nil || right == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_CHILD", "join children cannot be nil")
	}

	j := &Join{
		predicate: predicate,
		left:      left,
		right:     right,
		tupleDesc: left.GetTupleDesc().Merge(right.GetTupleDesc()),
	}
	j.base = NewBaseIterator(j.readNext)
	return j, nil
}

func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		return err
	}
	if err := j.bufferRight(); err != nil {
		return err
	}
	j.rightIdx = len(j.rightBuf)
	j.curLeft = nil
	j.base.MarkOpened()
	return nil
}

func (j *Join) bufferRight() error {
	j.rightBuf = j.rightBuf[:0]
	for {
		hasNext, err := j.right.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		t, err := j.right.Next()
		if err != nil {
			return err
		}
		j.rightBuf = append(j.rightBuf, t)
	}
	return nil
}

func (j *Join) readNext() (*tuple.Tuple, error) {
	for {
		if j.curLeft == nil || j.rightIdx >= len(j.rightBuf) {
			hasNext, err := j.left.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasNext {
				return nil, nil
			}
			j.curLeft, err = j.left.Next()
			if err != nil {
				return nil, err
			}
			j.rightIdx = 0
		}

		for j.rightIdx < len(j.rightBuf) {
			right := j.rightBuf[j.rightIdx]
			j.rightIdx++

			matches, err := j.predicate.Filter(j.curLeft, right)
			if err != nil {
				return nil, err
			}
			if matches {
				return combine(j.curLeft, right, j.tupleDesc), nil
			}
		}

		j.curLeft = nil
	}
}

// combine concatenates left and right's fields into one tuple under td.
func combine(left, right *tuple.Tuple, td *tuple.TupleDescription) *tuple.Tuple {
	out := tuple.NewTuple(td)
	i := 0
	for k := 0; k < left.TupleDesc.NumFields(); k++ {
		f, _ := left.GetField(k)
		_ = out.SetField(i, f)
		i++
	}
	for k := 0; k < right.TupleDesc.NumFields(); k++ {
		f, _ := right.GetField(k)
		_ = out.SetField(i, f)
		i++
	}
	return out
}

func (j *Join) GetTupleDesc() *tuple.TupleDescription { return j.tupleDesc }
func (j *Join) HasNext() (bool, error)                { return j.base.HasNext() }
func (j *Join) Next() (*tuple.Tuple, error)            { return j.base.Next() }

func (j *Join) Rewind() error {
	if err := j.left.Rewind(); err != nil {
		return err
	}
	j.rightIdx = len(j.rightBuf)
	j.curLeft = nil
	j.base.ClearCache()
	return nil
}

func (j *Join) Close() error {
	if j.left != nil {
		_ = j.left.Close()
	}
	if j.right != nil {
		_ = j.right.Close()
	}
	return j.base.Close()
}

var _ DbIterator = (*Join)(nil)
