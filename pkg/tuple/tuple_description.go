// Package tuple implements storelite's schema descriptor (TupleDescription)
// and record types (Tuple, RecordID) built on top of pkg/types fields.
package tuple

import (
	"fmt"
	"strings"

	"storelite/pkg/dberrors"
	"storelite/pkg/types"
)

// FieldInfo describes one column of a schema: its type, optional name, and
// (for STRING columns) its declared fixed width.
type FieldInfo struct {
	Type  types.Type
	Name  string
	Width int // only meaningful when Type == types.StringType
}

// TupleDescription is an ordered schema: a sequence of (type, name) pairs.
// Equality is positional on types only; names are ignored.
type TupleDescription struct {
	fields []FieldInfo
}

// NewTupleDescription builds a schema from parallel type/name/width slices.
// Width is ignored for INT columns.
func NewTupleDescription(types []types.Type, names []string, widths []int) (*TupleDescription, error) {
	if len(types) == 0 {
		return nil, dberrors.New(dberrors.CategoryArgument, "EMPTY_SCHEMA", "schema must have at least one field")
	}
	if len(names) != len(types) || len(widths) != len(types) {
		return nil, dberrors.New(dberrors.CategoryArgument, "SCHEMA_ARITY_MISMATCH", "types, names, and widths must have equal length")
	}

	fields := make([]FieldInfo, len(types))
	for i := range types {
		fields[i] = FieldInfo{Type: types[i], Name: names[i], Width: widths[i]}
	}
	return &TupleDescription{fields: fields}, nil
}

// NumFields returns the number of columns in this schema.
func (td *TupleDescription) NumFields() int {
	return len(td.fields)
}

// TypeAt returns the type of the field at the given index.
func (td *TupleDescription) TypeAt(i int) (types.Type, error) {
	if i < 0 || i >= len(td.fields) {
		return 0, dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", fmt.Sprintf("field index %d out of range", i))
	}
	return td.fields[i].Type, nil
}

// WidthAt returns the declared width of the field at the given index (only
// meaningful for STRING fields).
func (td *TupleDescription) WidthAt(i int) (int, error) {
	if i < 0 || i >= len(td.fields) {
		return 0, dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", fmt.Sprintf("field index %d out of range", i))
	}
	return td.fields[i].Width, nil
}

// NameAt returns the (possibly empty) name of the field at the given index.
func (td *TupleDescription) NameAt(i int) (string, error) {
	if i < 0 || i >= len(td.fields) {
		return "", dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", fmt.Sprintf("field index %d out of range", i))
	}
	return td.fields[i].Name, nil
}

// IndexOf returns the index of the first field with the given name, or an
// error if no field has that name.
func (td *TupleDescription) IndexOf(name string) (int, error) {
	for i, f := range td.fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, dberrors.New(dberrors.CategoryArgument, "FIELD_NOT_FOUND", fmt.Sprintf("no field named %q", name))
}

// FieldSize returns the serialized size in bytes of the field at index i.
func (td *TupleDescription) FieldSize(i int) int {
	f := td.fields[i]
	if f.Type == types.StringType {
		return types.SerializedSize(f.Width)
	}
	return types.IntSize
}

// Size returns the total serialized size in bytes of one tuple under this
// schema: the sum of every field's serialized size.
func (td *TupleDescription) Size() int {
	total := 0
	for i := range td.fields {
		total += td.FieldSize(i)
	}
	return total
}

// Equals reports whether two schemas have the same field types in the same
// order. Names (and STRING widths) are ignored, per spec.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.fields) != len(other.fields) {
		return false
	}
	for i := range td.fields {
		if td.fields[i].Type != other.fields[i].Type {
			return false
		}
	}
	return true
}

// Merge concatenates two schemas into a new one, fields of td first.
func (td *TupleDescription) Merge(other *TupleDescription) *TupleDescription {
	merged := make([]FieldInfo, 0, len(td.fields)+len(other.fields))
	merged = append(merged, td.fields...)
	merged = append(merged, other.fields...)
	return &TupleDescription{fields: merged}
}

func (td *TupleDescription) String() string {
	var b strings.Builder
	for i, f := range td.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if f.Name != "" {
			fmt.Fprintf(&b, "%s(%s)", f.Name, f.Type)
		} else {
			fmt.Fprintf(&b, "%s", f.Type)
		}
	}
	return b.String()
}
