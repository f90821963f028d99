package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
)

// StringField is a fixed-width string column value: a 4-byte big-endian
// length prefix followed by Width bytes of payload (unused bytes undefined).
type StringField struct {
	Value string
	Width int
}

// NewStringField creates a StringField, truncating value if it exceeds width.
func NewStringField(value string, width int) *StringField {
	if len(value) > width {
		value = value[:width]
	}
	return &StringField{Value: value, Width: width}
}

func (f *StringField) Serialize(w io.Writer) error {
	length := len(f.Value)
	if length > f.Width {
		length = f.Width
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(length))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	if _, err := w.Write([]byte(f.Value[:length])); err != nil {
		return err
	}

	padding := make([]byte, f.Width-length)
	_, err := w.Write(padding)
	return err
}

func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	if op == Like {
		return strings.Contains(f.Value, o.Value), nil
	}

	cmp := strings.Compare(f.Value, o.Value)
	switch op {
	case Equals:
		return cmp == 0, nil
	case NotEqual:
		return cmp != 0, nil
	case LessThan:
		return cmp < 0, nil
	case LessThanOrEqual:
		return cmp <= 0, nil
	case GreaterThan:
		return cmp > 0, nil
	case GreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unsupported predicate %v on string field", op)
	}
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && f.Value == o.Value && f.Width == o.Width
}

func (f *StringField) Hash() (uint32, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(f.Value))
	return h.Sum32(), nil
}

// SerializedSize returns the on-disk size in bytes for a string field of
// the given declared width: a 4-byte length prefix plus width payload bytes.
func SerializedSize(width int) int {
	return 4 + width
}
