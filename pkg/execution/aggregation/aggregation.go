// Package aggregation implements GROUP BY-style aggregation over a stream
// of tuples: per-type aggregators (int and string) and the materialized
// result iterator they return. The Aggregate query operator that drives
// them from a child iterator lives in package execution.
package aggregation

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
)

// AggregateOp is the aggregate function applied to one field.
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// NoGrouping marks an aggregate with no GROUP BY field.
const NoGrouping = -1

// Aggregator accumulates tuples into per-group running aggregates and
// produces one result row per group (or a single row when there is no
// grouping field).
type Aggregator interface {
	// Merge folds one tuple into the running aggregate for its group.
	Merge(t *tuple.Tuple) error

	// Iterator returns the finished per-group results as a query operator.
	Iterator() (DbIterator, error)

	// GetTupleDesc returns the schema of the rows Iterator produces.
	GetTupleDesc() *tuple.TupleDescription
}

// DbIterator mirrors execution.DbIterator without importing it, so this
// package has no dependency on the execution package that uses it.
type DbIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Rewind() error
	Close() error
	GetTupleDesc() *tuple.TupleDescription
}

// unsupportedOpError reports that an aggregator was asked to perform an
// operation it does not implement (e.g. AVG on strings).
func unsupportedOpError(op AggregateOp, kind string) error {
	return dberrors.New(dberrors.CategoryArgument, "UNSUPPORTED_AGG_OP",
		"aggregate operation "+op.String()+" is not supported on "+kind+" fields")
}
