package aggregation

import (
	"storelite/pkg/dberrors"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

type intGroupState struct {
	count int64
	sum   int64
	min   int32
	max   int32
	first bool
}

// IntAggregator computes MIN, MAX, SUM, AVG, or COUNT over one int field,
// optionally grouped by another field.
type IntAggregator struct {
	groupField     int
	groupFieldType types.Type
	aggField       int
	op             AggregateOp

	groups map[groupKey]*intGroupState
	order  []groupKey
	keyVal map[groupKey]types.Field

	tupleDesc *tuple.TupleDescription
}

// groupKey is a comparable stand-in for a types.Field group value, keyed
// by its stringified form so int and string group values both work as map
// keys without a type switch at every access.
type groupKey string

func keyFor(f types.Field) groupKey {
	if f == nil {
		return groupKey("")
	}
	return groupKey(f.String())
}

// NewIntAggregator builds an aggregator over aggField using op, grouped by
// groupField (or NoGrouping). groupFieldType is ignored when there is no
// grouping.
func NewIntAggregator(groupField int, groupFieldType types.Type, aggField int, op AggregateOp) *IntAggregator {
	return &IntAggregator{
		groupField:     groupField,
		groupFieldType: groupFieldType,
		aggField:       aggField,
		op:             op,
		groups:         make(map[groupKey]*intGroupState),
		keyVal:         make(map[groupKey]types.Field),
	}
}

func (a *IntAggregator) Merge(t *tuple.Tuple) error {
	valField, err := t.GetField(a.aggField)
	if err != nil {
		return err
	}
	iv, ok := valField.(*types.IntField)
	if !ok {
		return dberrors.New(dberrors.CategoryLogic, "TYPE_MISMATCH", "aggregate field is not an int field")
	}

	var key groupKey
	var groupVal types.Field
	if a.groupField == NoGrouping {
		key = groupKey("")
	} else {
		groupVal, err = t.GetField(a.groupField)
		if err != nil {
			return err
		}
		key = keyFor(groupVal)
	}

	state, exists := a.groups[key]
	if !exists {
		state = &intGroupState{min: iv.Value, max: iv.Value, first: true}
		a.groups[key] = state
		a.keyVal[key] = groupVal
		a.order = append(a.order, key)
	}

	state.count++
	state.sum += int64(iv.Value)
	if iv.Value < state.min {
		state.min = iv.Value
	}
	if iv.Value > state.max {
		state.max = iv.Value
	}
	return nil
}

func (a *IntAggregator) result(state *intGroupState) int32 {
	switch a.op {
	case Min:
		return state.min
	case Max:
		return state.max
	case Sum:
		return int32(state.sum)
	case Avg:
		return int32(state.sum / state.count)
	case Count:
		return int32(state.count)
	default:
		return 0
	}
}

func (a *IntAggregator) GetTupleDesc() *tuple.TupleDescription {
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

func (a *IntAggregator) Iterator() (DbIterator, error) {
	rows := make([]*tuple.Tuple, 0, len(a.order))
	td := a.GetTupleDesc()

	if len(a.order) == 0 && a.op == Count && a.groupField == NoGrouping {
		t := tuple.NewTuple(td)
		_ = t.SetField(0, types.NewIntField(0))
		rows = append(rows, t)
	}

	for _, key := range a.order {
		state := a.groups[key]
		t := tuple.NewTuple(td)
		if a.groupField == NoGrouping {
			_ = t.SetField(0, types.NewIntField(a.result(state)))
		} else {
			_ = t.SetField(0, a.keyVal[key])
			_ = t.SetField(1, types.NewIntField(a.result(state)))
		}
		rows = append(rows, t)
	}

	return newSliceIterator(td, rows), nil
}
