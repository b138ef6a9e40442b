package attr

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueToStringRoundTrip(t *testing.T) {
	cases := []Value{
		BoolValue(true),
		BoolValue(false),
		IntValue(-42),
		IntValue(0),
		LongValue(1 << 40),
		FloatValue(3.14159),
		DoubleValue(-2.71828182845904),
		StringValue("hello world"),
	}

	for _, v := range cases {
		s := v.ToString()
		got, err := StringToValue(v.Typ, s)
		require.NoError(t, err)
		assert.True(t, v.Equal(got), "round trip mismatch for %v: got %v", v, got)
	}
}

func TestValueToStringRoundTripFuzzNumerics(t *testing.T) {
	f := fuzz.New().NilChance(0)

	var ints []int32
	f.NumElements(200, 400).Fuzz(&ints)
	for _, n := range ints {
		v := IntValue(n)
		got, err := StringToValue(Int, v.ToString())
		require.NoError(t, err)
		assert.True(t, v.Equal(got))
	}

	var longs []int64
	f.NumElements(200, 400).Fuzz(&longs)
	for _, n := range longs {
		v := LongValue(n)
		got, err := StringToValue(Long, v.ToString())
		require.NoError(t, err)
		assert.True(t, v.Equal(got))
	}

	var doubles []float64
	f.NumElements(200, 400).Fuzz(&doubles)
	for _, n := range doubles {
		if n != n { // skip NaN, excluded by design (see DESIGN.md Open Questions)
			continue
		}
		v := DoubleValue(n)
		got, err := StringToValue(Double, v.ToString())
		require.NoError(t, err)
		assert.True(t, v.Equal(got))
	}
}

func TestValueToStringRoundTripFuzzStrings(t *testing.T) {
	unicodeRanges := fuzz.UnicodeRanges{
		{First: 0x20, Last: 0x7E},   // printable ASCII
		{First: 0xA0, Last: 0x2FF}, // Latin extended
	}
	f := fuzz.New().NilChance(0).NumElements(200, 400).Funcs(unicodeRanges.CustomStringFuzzFunc())

	var strs []string
	f.Fuzz(&strs)
	for _, s := range strs {
		if !ValidString(s) {
			continue
		}
		v := StringValue(s)
		got, err := StringToValue(String, v.ToString())
		require.NoError(t, err)
		assert.Equal(t, v.String(), got.String())
	}
}

func TestStringValueNormalizesNonNFCInput(t *testing.T) {
	// "e" + combining acute accent (NFD) normalizes to the single
	// precomposed code point (NFC). ValidString must accept the NFD
	// form, and StringToValue -> ToString -> StringToValue must
	// round-trip without ErrInvalidValue even though the input was
	// never NFC to begin with.
	nfd := "e\u0301clair" // e + U+0301 COMBINING ACUTE ACCENT
	nfc := "\u00e9clair"  // U+00E9 LATIN SMALL LETTER E WITH ACUTE
	require.NotEqual(t, nfd, nfc)

	assert.True(t, ValidString(nfd))

	v := StringValue(nfd)
	assert.Equal(t, nfc, v.String())

	s := v.ToString()
	got, err := StringToValue(String, s)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
	assert.Equal(t, nfc, got.String())
}

func TestStringToValueInvalid(t *testing.T) {
	_, err := StringToValue(Int, "not-a-number")
	require.ErrorIs(t, err, ErrInvalidValue)

	_, err = StringToValue(Bool, "maybe")
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestValueToStringTypeMismatch(t *testing.T) {
	_, err := ValueToString(Int, StringValue("oops"))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRangeContains(t *testing.T) {
	r := NewRange(Int, IntValue(0), IntValue(10))
	assert.True(t, r.Contains(IntValue(5)))
	assert.False(t, r.Contains(IntValue(11)))
	assert.False(t, r.Contains(IntValue(-1)))
}

func TestRangesToStringRoundTrip(t *testing.T) {
	r := NewRange(Double, DoubleValue(-1.5), DoubleValue(99.25))
	s := RangesToString(r)
	got, err := StringToRanges(Double, s)
	require.NoError(t, err)
	assert.True(t, r.Equal(got))
}

func TestFlagsToStringRoundTrip(t *testing.T) {
	f := ReadOnly | NoExport
	s := FlagsToString(f)
	got, err := StringToFlags(s)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestTypeRoundTrip(t *testing.T) {
	for _, ty := range []Type{Bool, Int, Long, Float, Double, String} {
		got, err := ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
}

func TestValueIsNaN(t *testing.T) {
	nan := DoubleValue(0)
	nan.d = nan.d / nan.d // 0/0 at run time yields NaN without importing math
	assert.True(t, nan.IsNaN())
}
