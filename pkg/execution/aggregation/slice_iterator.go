package aggregation

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
)

// sliceIterator walks a fixed, precomputed slice of result tuples. It is
// what Aggregator.Iterator returns, since aggregate results are always
// fully materialized once the input has been consumed.
type sliceIterator struct {
	tupleDesc *tuple.TupleDescription
	rows      []*tuple.Tuple
	idx       int
	opened    bool
}

func newSliceIterator(td *tuple.TupleDescription, rows []*tuple.Tuple) *sliceIterator {
	return &sliceIterator{tupleDesc: td, rows: rows}
}

func (s *sliceIterator) Open() error {
	s.idx = 0
	s.opened = true
	return nil
}

func (s *sliceIterator) HasNext() (bool, error) {
	if !s.opened {
		return false, dberrors.New(dberrors.CategoryLogic, "ITERATOR_NOT_OPEN", "iterator not opened")
	}
	return s.idx < len(s.rows), nil
}

func (s *sliceIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := s.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberrors.New(dberrors.CategoryExhausted, "NO_MORE_TUPLES", "no more tuples")
	}
	t := s.rows[s.idx]
	s.idx++
	return t, nil
}

func (s *sliceIterator) Rewind() error {
	s.idx = 0
	return nil
}

func (s *sliceIterator) Close() error {
	s.opened = false
	return nil
}

func (s *sliceIterator) GetTupleDesc() *tuple.TupleDescription {
	return s.tupleDesc
}
