package tuple

import (
	"fmt"
	"strings"

	"storelite/pkg/dberrors"
	"storelite/pkg/primitives"
	"storelite/pkg/types"
)

// RecordID locates a tuple on disk: the page it lives on and its slot
// index within that page. It is nil for tuples not yet placed on a page.
type RecordID struct {
	PageID   primitives.PageID
	SlotID primitives.SlotID
}

func NewRecordID(pid primitives.PageID, slot primitives.SlotID) *RecordID {
	return &RecordID{PageID: pid, SlotID: slot}
}

func (r *RecordID) Equals(other *RecordID) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.PageID.Equals(other.PageID) && r.SlotID == other.SlotID
}

func (r *RecordID) String() string {
	if r == nil {
		return "RecordID(nil)"
	}
	return fmt.Sprintf("RecordID(%s, slot=%d)", r.PageID, r.SlotID)
}

// Tuple is a fixed-schema record: a schema reference, one Field per column,
// and an optional RecordID assigned once the tuple is placed on a page.
type Tuple struct {
	TupleDesc *TupleDescription
	fields    []types.Field
	RecordID  *RecordID
}

// NewTuple creates an empty tuple (all fields nil) under the given schema.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// GetField returns the field at index i.
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", fmt.Sprintf("field index %d out of range", i))
	}
	return t.fields[i], nil
}

// SetField sets the field at index i, validating it matches the schema's
// declared type for that column.
func (t *Tuple) SetField(i int, f types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", fmt.Sprintf("field index %d out of range", i))
	}

	wantType, err := t.TupleDesc.TypeAt(i)
	if err != nil {
		return err
	}
	if f.Type() != wantType {
		return dberrors.New(dberrors.CategoryLogic, "SCHEMA_MISMATCH",
			fmt.Sprintf("field %d expects type %s, got %s", i, wantType, f.Type()))
	}

	t.fields[i] = f
	return nil
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		if f == nil {
			parts[i] = "<nil>"
		} else {
			parts[i] = f.String()
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
