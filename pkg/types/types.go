// Package types implements storelite's closed field-type enumeration and
// the Field value variants (IntField, StringField) that tuples are built
// from.
package types

// StringMaxWidth is the default fixed width used for STRING columns
// synthesized internally (e.g. group-by keys in aggregate results) where
// no explicit schema width is available.
const StringMaxWidth = 128

// Type is the closed enumeration of column types storelite supports.
type Type int

const (
	IntType Type = iota
	StringType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "STRING"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Predicate is a comparison operator usable against a Field.
type Predicate int

const (
	Equals Predicate = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Like
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case Like:
		return "LIKE"
	default:
		return "UNKNOWN"
	}
}
