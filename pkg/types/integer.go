package types

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"strconv"
)

// IntSize is the on-disk width of an IntField: a big-endian signed int32.
const IntSize = 4

// IntField is a fixed 4-byte signed integer column value.
type IntField struct {
	Value int32
}

func NewIntField(value int32) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Serialize(w io.Writer) error {
	var buf [IntSize]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, nil
	}
	return compareInt32(f.Value, o.Value, op), nil
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && f.Value == o.Value
}

func (f *IntField) Hash() (uint32, error) {
	h := fnv.New32a()
	var buf [IntSize]byte
	binary.BigEndian.PutUint32(buf[:], uint32(f.Value))
	_, _ = h.Write(buf[:])
	return h.Sum32(), nil
}

func compareInt32(a, b int32, op Predicate) bool {
	switch op {
	case Equals, Like:
		return a == b
	case NotEqual:
		return a != b
	case LessThan:
		return a < b
	case LessThanOrEqual:
		return a <= b
	case GreaterThan:
		return a > b
	case GreaterThanOrEqual:
		return a >= b
	default:
		return false
	}
}
