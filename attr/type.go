// Package attr defines the tagged-union attribute value model shared by
// the configuration tree, its wire protocol and its XML form: types,
// values, ranges and flags, plus the round-trippable string converters
// that the rest of the module builds on.
package attr

import (
	"fmt"
)

// Type identifies the concrete kind of an attribute value. The numeric
// values are wire-stable and must not be renumbered.
type Type int8

const (
	Unknown Type = -1
	Bool    Type = 0
	// 1 and 2 are reserved on the wire.
	Int    Type = 3
	Long   Type = 4
	Float  Type = 5
	Double Type = 6
	String Type = 7
)

// String implements fmt.Stringer. It never fails: unrecognized values
// print as "unknown(<n>)" rather than panicking.
func (t Type) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	default:
		return fmt.Sprintf("unknown(%d)", int8(t))
	}
}

// ParseType converts the canonical lowercase type name back into a Type.
// It returns ErrInvalidValue for anything it doesn't recognize.
func ParseType(s string) (Type, error) {
	switch s {
	case "bool":
		return Bool, nil
	case "int":
		return Int, nil
	case "long":
		return Long, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	case "string":
		return String, nil
	default:
		return Unknown, fmt.Errorf("%w: unknown attribute type %q", ErrInvalidValue, s)
	}
}

// Valid reports whether t is one of the six concrete attribute types
// (i.e. excludes the Unknown sentinel).
func (t Type) Valid() bool {
	switch t {
	case Bool, Int, Long, Float, Double, String:
		return true
	default:
		return false
	}
}
