package attr

import (
	"fmt"
	"strconv"
	"strings"
)

// Range carries the inclusive bounds for a numeric type, or the
// min/max-length bounds (in bytes) for STRING. BOOL attributes carry no
// meaningful range; by convention both bounds are the zero Value of type
// Bool.
type Range struct {
	Typ Type
	Min Value
	Max Value
}

// NewRange builds a Range for numeric types and STRING length bounds.
// For STRING, min and max are passed as Long values holding byte lengths.
func NewRange(t Type, min, max Value) Range {
	return Range{Typ: t, Min: min, Max: max}
}

// BoolRange returns the conventional empty range for BOOL attributes.
func BoolRange() Range {
	return Range{Typ: Bool, Min: BoolValue(false), Max: BoolValue(false)}
}

// Contains reports whether v falls within r (inclusive). For STRING, v's
// byte length is compared against Min/Max (held as Long values).
func (r Range) Contains(v Value) bool {
	switch r.Typ {
	case Bool:
		return true
	case Int:
		return v.Int() >= r.Min.Int() && v.Int() <= r.Max.Int()
	case Long:
		return v.Long() >= r.Min.Long() && v.Long() <= r.Max.Long()
	case Float:
		return v.Float() >= r.Min.Float() && v.Float() <= r.Max.Float()
	case Double:
		return v.Double() >= r.Min.Double() && v.Double() <= r.Max.Double()
	case String:
		n := int64(len(v.String()))
		return n >= r.Min.Long() && n <= r.Max.Long()
	default:
		return false
	}
}

// Equal reports whether two ranges describe the same bounds. Used by
// CreateAttribute's idempotency check.
func (r Range) Equal(other Range) bool {
	if r.Typ != other.Typ {
		return false
	}
	return r.Min.Equal(other.Min) && r.Max.Equal(other.Max)
}

// RangesToString renders r as "min,max" in the same canonical numeric form
// as Value.ToString.
func RangesToString(r Range) string {
	if r.Typ == Bool {
		return ""
	}
	lo, _ := ValueToString(rangeValueType(r.Typ), r.Min)
	hi, _ := ValueToString(rangeValueType(r.Typ), r.Max)
	return lo + "," + hi
}

// StringToRanges parses the "min,max" form produced by RangesToString for
// the given attribute type.
func StringToRanges(t Type, s string) (Range, error) {
	if t == Bool {
		return BoolRange(), nil
	}
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Range{}, newValueError("", t, ErrInvalidValue)
	}
	vt := rangeValueType(t)
	lo, err := StringToValue(vt, parts[0])
	if err != nil {
		return Range{}, err
	}
	hi, err := StringToValue(vt, parts[1])
	if err != nil {
		return Range{}, err
	}
	if t == String {
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			return Range{}, newValueError("", t, ErrInvalidValue)
		}
	}
	return Range{Typ: t, Min: lo, Max: hi}, nil
}

// rangeValueType returns the Value type used to carry a Range's bounds:
// identical to t for numerics, Long (byte length) for STRING.
func rangeValueType(t Type) Type {
	if t == String {
		return Long
	}
	return t
}

func (r Range) String() string {
	return fmt.Sprintf("Range{%s}", RangesToString(r))
}
