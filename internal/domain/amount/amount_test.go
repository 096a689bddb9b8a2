package amount

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Amount
	}{
		{"WholeWithSingleFraction", "1.0", 10000},
		{"TwoFractionDigits", "3.05", 30500},
		{"FourFractionDigits", "1.2345", 12345},
		{"Zero", "0.0", 0},
		{"EmptyIntegerPart", ".5", 5000},
		{"EmptyFractionPart", "7.", 70000},
		{"SmallestUnit", "0.0001", 1},
		{"LeadingZeros", "007.1", 71000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"NoDecimalPoint", "5"},
		{"Empty", ""},
		{"TwoDecimalPoints", "1.2.3"},
		{"TooManyFractionDigits", "1.23456"},
		{"Negative", "-1.0"},
		{"PlusSign", "+1.0"},
		{"Letters", "abc.de"},
		{"InnerWhitespace", "1 .0"},
		{"TooLarge", "99999999999999999999.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestAmount_String(t *testing.T) {
	testCases := []struct {
		name     string
		value    Amount
		expected string
	}{
		{"ZeroIsShort", 0, "0.0"},
		{"SmallestUnit", 5, "0.0005"},
		{"BelowOne", 9999, "0.9999"},
		{"One", 10000, "1.0000"},
		{"OneAndHalf", 15000, "1.5000"},
		{"Large", 123456789, "12345.6789"},
		{"MaxValue", Amount(math.MaxUint64), "1844674407370955.1615"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.value.String())
		})
	}
}

func TestAmount_RoundTrip(t *testing.T) {
	values := []Amount{0, 1, 5, 10, 999, 9999, 10000, 10001, 30500, 1234567, math.MaxUint64}
	for _, v := range values {
		parsed, err := Parse(v.String())
		require.NoError(t, err, "value %d", uint64(v))
		assert.Equal(t, v, parsed, "value %d", uint64(v))
	}
}

func TestAmount_JSON(t *testing.T) {
	payload := struct {
		Value Amount `json:"value"`
	}{Value: 15000}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"1.5000"}`, string(data))

	var decoded struct {
		Value Amount `json:"value"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload.Value, decoded.Value)
}

func TestAmount_CheckedArithmetic(t *testing.T) {
	t.Run("AddOverflow", func(t *testing.T) {
		_, err := Amount(math.MaxUint64).Add(1)
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("SubUnderflow", func(t *testing.T) {
		_, err := Amount(1).Sub(2)
		assert.ErrorIs(t, err, ErrUnderflow)
	})

	t.Run("InRange", func(t *testing.T) {
		sum, err := Amount(10000).Add(5000)
		require.NoError(t, err)
		assert.Equal(t, Amount(15000), sum)

		diff, err := sum.Sub(10000)
		require.NoError(t, err)
		assert.Equal(t, Amount(5000), diff)
	})
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("12") })
	assert.NotPanics(t, func() { MustParse("12.0") })
}
