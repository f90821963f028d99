package execution

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
)

// Filter passes through only the tuples of its child that satisfy a
// predicate. It does not change the schema.
type Filter struct {
	base      *BaseIterator
	predicate *Predicate
	child     DbIterator
}

func NewFilter(predicate *Predicate, child DbIterator) (*Filter, error) {
	if predicate == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_PREDICATE", "predicate cannot be nil")
	}
	if child == nil {
		return nil, dberrors.New(dberrors.CategoryArgument, "NIL_CHILD", "child operator cannot be nil")
	}

	f := &Filter{predicate: predicate, child: child}
	f.base = NewBaseIterator(f.readNext)
	return f, nil
}

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.base.MarkOpened()
	return nil
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		hasNext, err := f.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			return nil, nil
		}

		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}

		passes, err := f.predicate.Filter(t)
		if err != nil {
			return nil, err
		}
		if passes {
			return t, nil
		}
	}
}

func (f *Filter) GetTupleDesc() *tuple.TupleDescription { return f.child.GetTupleDesc() }
func (f *Filter) HasNext() (bool, error)                { return f.base.HasNext() }
func (f *Filter) Next() (*tuple.Tuple, error)            { return f.base.Next() }

func (f *Filter) Rewind() error {
	if err := f.child.Rewind(); err != nil {
		return err
	}
	f.base.ClearCache()
	return nil
}

func (f *Filter) Close() error {
	if f.child != nil {
		_ = f.child.Close()
	}
	return f.base.Close()
}

var _ DbIterator = (*Filter)(nil)
