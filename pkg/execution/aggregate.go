package execution

import (
	"storelite/pkg/execution/aggregation"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// Aggregate drains its child fully into an Aggregator on the first Open,
// then serves the resulting per-group rows.
type Aggregate struct {
	base       *BaseIterator
	child      DbIterator
	aggregator aggregation.Aggregator
	results    aggregation.DbIterator
}

// NewAggregate builds an aggregate over child's aggField using op,
// optionally grouped by groupField (pass aggregation.NoGrouping for none).
func NewAggregate(child DbIterator, aggField int, groupField int, op aggregation.AggregateOp) (*Aggregate, error) {
	childTd := child.GetTupleDesc()

	aggType, err := childTd.TypeAt(aggField)
	if err != nil {
		return nil, err
	}

	var groupType types.Type
	if groupField != aggregation.NoGrouping {
		groupType, err = childTd.TypeAt(groupField)
		if err != nil {
			return nil, err
		}
	}

	var aggregator aggregation.Aggregator
	if aggType == types.StringType {
		aggregator, err = aggregation.NewStringAggregator(groupField, groupType, aggField, op)
		if err != nil {
			return nil, err
		}
	} else {
		aggregator = aggregation.NewIntAggregator(groupField, groupType, aggField, op)
	}

	a := &Aggregate{child: child, aggregator: aggregator}
	a.base = NewBaseIterator(a.readNext)
	return a, nil
}

func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}

	for {
		hasNext, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := a.aggregator.Merge(t); err != nil {
			return err
		}
	}

	results, err := a.aggregator.Iterator()
	if err != nil {
		return err
	}
	if err := results.Open(); err != nil {
		return err
	}
	a.results = results

	a.base.MarkOpened()
	return nil
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	hasNext, err := a.results.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return a.results.Next()
}

func (a *Aggregate) GetTupleDesc() *tuple.TupleDescription { return a.aggregator.GetTupleDesc() }
func (a *Aggregate) HasNext() (bool, error)                { return a.base.HasNext() }
func (a *Aggregate) Next() (*tuple.Tuple, error)            { return a.base.Next() }

func (a *Aggregate) Rewind() error {
	if err := a.results.Rewind(); err != nil {
		return err
	}
	a.base.ClearCache()
	return nil
}

func (a *Aggregate) Close() error {
	if a.results != nil {
		_ = a.results.Close()
	}
	if a.child != nil {
		_ = a.child.Close()
	}
	return a.base.Close()
}

var _ DbIterator = (*Aggregate)(nil)
