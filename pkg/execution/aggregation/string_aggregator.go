package aggregation

import (
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// StringAggregator aggregates a STRING field. COUNT is the only operation
// that makes sense on strings, matching the original grouping engine this
// is ported from.
type StringAggregator struct {
	groupField     int
	groupFieldType types.Type
	aggField       int
	op             AggregateOp

	counts map[groupKey]int64
	keyVal map[groupKey]types.Field
	order  []groupKey

	tupleDesc *tuple.TupleDescription
}

func NewStringAggregator(groupField int, groupFieldType types.Type, aggField int, op AggregateOp) (*StringAggregator, error) {
	if op != Count {
		return nil, unsupportedOpError(op, "string")
	}
	return &StringAggregator{
		groupField:     groupField,
		groupFieldType: groupFieldType,
		aggField:       aggField,
		op:             op,
		counts:         make(map[groupKey]int64),
		keyVal:         make(map[groupKey]types.Field),
	}, nil
}

func (a *StringAggregator) Merge(t *tuple.Tuple) error {
	var key groupKey
	var groupVal types.Field
	if a.groupField != NoGrouping {
		var err error
		groupVal, err = t.GetField(a.groupField)
		if err != nil {
			return err
		}
		key = keyFor(groupVal)
	}

	if _, exists := a.counts[key]; !exists {
		a.keyVal[key] = groupVal
		a.order = append(a.order, key)
	}
	a.counts[key]++
	return nil
}

func (a *StringAggregator) GetTupleDesc() *tuple.TupleDescription {
	if a.tupleDesc != nil {
		return a.tupleDesc
	}

	if a.groupField == NoGrouping {
		td, _ := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{a.op.String()}, []int{0})
		a.tupleDesc = td
	} else {
		td, _ := tuple.NewTupleDescription(
			[]types.Type{a.groupFieldType, types.IntType},
			[]string{"group", a.op.String()},
			[]int{types.StringMaxWidth, 0},
		)
		a.tupleDesc = td
	}
	return a.tupleDesc
}

func (a *StringAggregator) Iterator() (DbIterator, error) {
	td := a.GetTupleDesc()
	rows := make([]*tuple.Tuple, 0, len(a.order))

	if len(a.order) == 0 && a.groupField == NoGrouping {
		t := tuple.NewTuple(td)
		_ = t.SetField(0, types.NewIntField(0))
		rows = append(rows, t)
	}

	for _, key := range a.order {
		t := tuple.NewTuple(td)
		if a.groupField == NoGrouping {
			_ = t.SetField(0, types.NewIntField(int32(a.counts[key])))
		} else {
			_ = t.SetField(0, a.keyVal[key])
			_ = t.SetField(1, types.NewIntField(int32(a.counts[key])))
		}
		rows = append(rows, t)
	}

	return newSliceIterator(td, rows), nil
}
