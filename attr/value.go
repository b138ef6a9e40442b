package attr

import (
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Value is a tagged union over the six concrete attribute types. The zero
// Value is the Bool false value; callers should always set Typ explicitly.
type Value struct {
	Typ Type
	b   bool
	i   int32
	l   int64
	f   float32
	d   float64
	s   string
}

func BoolValue(v bool) Value      { return Value{Typ: Bool, b: v} }
func IntValue(v int32) Value      { return Value{Typ: Int, i: v} }
func LongValue(v int64) Value     { return Value{Typ: Long, l: v} }
func FloatValue(v float32) Value  { return Value{Typ: Float, f: v} }
func DoubleValue(v float64) Value { return Value{Typ: Double, d: v} }

// StringValue normalizes v to NFC before storing it, so that every STRING
// value in the tree is in canonical form regardless of entry point
// (rcp.Put, client.PutString, xmlio.Import), and stringToValue ∘
// valueToString is the identity on it afterward.
func StringValue(v string) Value { return Value{Typ: String, s: norm.NFC.String(v)} }

func (v Value) Bool() bool       { return v.b }
func (v Value) Int() int32       { return v.i }
func (v Value) Long() int64      { return v.l }
func (v Value) Float() float32   { return v.f }
func (v Value) Double() float64  { return v.d }
func (v Value) String() string   { return v.s }

// Equal performs the bit-identical comparison required by
// Node.PutAttribute's "iff the stored value changed" rule. Floats compare
// by bit pattern, unlike ==: +0 and -0 differ, and a NaN equals a NaN with
// the same bits. NaN defaults and puts are rejected upstream.
func (v Value) Equal(other Value) bool {
	if v.Typ != other.Typ {
		return false
	}
	switch v.Typ {
	case Bool:
		return v.b == other.b
	case Int:
		return v.i == other.i
	case Long:
		return v.l == other.l
	case Float:
		return math.Float32bits(v.f) == math.Float32bits(other.f)
	case Double:
		return math.Float64bits(v.d) == math.Float64bits(other.d)
	case String:
		return v.s == other.s
	default:
		return false
	}
}

// IsNaN reports whether v is a floating-point NaN. Used to reject NaN
// defaults and puts per spec (a NaN default would break the
// modified-iff-changed invariant since NaN never equals itself).
func (v Value) IsNaN() bool {
	switch v.Typ {
	case Float:
		return math.IsNaN(float64(v.f))
	case Double:
		return math.IsNaN(v.d)
	default:
		return false
	}
}

// ToString renders v in its canonical, round-trippable string form. Numeric
// formatting uses the shortest decimal representation that round-trips
// exactly (strconv's -1 precision), which for float32/float64 always
// satisfies the "at least 9/17 digits" requirement when that many digits
// are actually needed.
func (v Value) ToString() string {
	switch v.Typ {
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(int64(v.i), 10)
	case Long:
		return strconv.FormatInt(v.l, 10)
	case Float:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case String:
		return v.s
	default:
		return ""
	}
}

// ValueToString is the free-function form used by xmlio and rcp, mirroring
// the naming in spec §4.A.
func ValueToString(t Type, v Value) (string, error) {
	if v.Typ != t {
		return "", newValueError("", t, ErrTypeMismatch)
	}
	return v.ToString(), nil
}

// StringToValue parses s into a Value of type t. Malformed input produces
// ErrInvalidValue.
func StringToValue(t Type, s string) (Value, error) {
	switch t {
	case Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return BoolValue(b), nil
	case Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return IntValue(int32(n)), nil
	case Long:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return LongValue(n), nil
	case Float:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return FloatValue(float32(f)), nil
	case Double:
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return DoubleValue(d), nil
	case String:
		if !ValidString(s) {
			return Value{}, newValueError("", t, ErrInvalidValue)
		}
		return StringValue(s), nil
	default:
		return Value{}, newValueError("", t, ErrTypeMismatch)
	}
}
