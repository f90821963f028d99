package execution

import (
	"fmt"

	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// Predicate compares one field of a tuple against a constant operand.
type Predicate struct {
	FieldIndex int
	Op         types.Predicate
	Operand    types.Field
}

func NewPredicate(fieldIndex int, op types.Predicate, operand types.Field) *Predicate {
	return &Predicate{FieldIndex: fieldIndex, Op: op, Operand: operand}
}

// Filter reports whether t satisfies this predicate.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	field, err := t.GetField(p.FieldIndex)
	if err != nil {
		return false, err
	}
	if field == nil {
		return false, nil
	}
	return field.Compare(p.Op, p.Operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("field[%d] %s %s", p.FieldIndex, p.Op, p.Operand.String())
}

// JoinPredicate compares one field from each side of a join.
type JoinPredicate struct {
	LeftField  int
	Op         types.Predicate
	RightField int
}

func NewJoinPredicate(leftField int, op types.Predicate, rightField int) *JoinPredicate {
	return &JoinPredicate{LeftField: leftField, Op: op, RightField: rightField}
}

// Filter reports whether the given left and right tuples satisfy this
// join predicate.
func (jp *JoinPredicate) Filter(left, right *tuple.Tuple) (bool, error) {
	lf, err := left.GetField(jp.LeftField)
	if err != nil {
		return false, err
	}
	rf, err := right.GetField(jp.RightField)
	if err != nil {
		return false, err
	}
	if lf == nil || rf == nil {
		return false, nil
	}
	return lf.Compare(jp.Op, rf)
}
