// Package execution implements the pull-based query operators: sequential
// scan, filter, join, insert, delete, and aggregation, all built on the
// same open/has-next/next/rewind/close iterator contract.
package execution

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
)

// DbIterator is the contract every query operator implements. Callers
// drive execution by opening the root operator and pulling tuples one at
// a time until HasNext reports false.
type DbIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Rewind() error
	Close() error
	GetTupleDesc() *tuple.TupleDescription
}

// ReadNextFunc produces the next tuple from an operator's underlying
// source, or (nil, nil) once exhausted.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the open/close bookkeeping and one-tuple
// lookahead cache shared by every operator, so each operator only needs
// to supply a readNext function.
type BaseIterator struct {
	next     *tuple.Tuple
	opened   bool
	readNext ReadNextFunc
}

func NewBaseIterator(readNext ReadNextFunc) *BaseIterator {
	return &BaseIterator{readNext: readNext}
}

func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.next = nil
}

func (it *BaseIterator) ClearCache() {
	it.next = nil
}

func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberrors.New(dberrors.CategoryLogic, "ITERATOR_NOT_OPEN", "iterator not opened")
	}
	if it.next == nil {
		t, err := it.readNext()
		if err != nil {
			return false, err
		}
		it.next = t
	}
	return it.next != nil, nil
}

func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberrors.New(dberrors.CategoryExhausted, "NO_MORE_TUPLES", "no more tuples")
	}
	t := it.next
	it.next = nil
	return t, nil
}

func (it *BaseIterator) Close() error {
	it.next = nil
	it.opened = false
	return nil
}
