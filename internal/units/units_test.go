package units

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRaw(t *testing.T) {
	raw, err := ToRaw(decimal.RequireFromString("5.0"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), raw)

	raw, err = ToRaw(decimal.RequireFromString("0.123456789"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456), raw, "digits past mint precision are truncated")

	raw, err = ToRaw(decimal.RequireFromString("12"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), raw)
}

func TestToRaw_Invalid(t *testing.T) {
	_, err := ToRaw(decimal.RequireFromString("-1"), 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToRaw(decimal.RequireFromString("18446744073709551616"), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToRaw(decimal.RequireFromString("1"), 19)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestToRaw_ExactForLargeExponents(t *testing.T) {
	// 0.1 at 18 decimals loses precision with float scaling.
	raw, err := ToRaw(decimal.RequireFromString("0.1"), 18)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000_000_000_000), raw)

	raw, err = ToRaw(decimal.RequireFromString("18.446744073709551615"), 18)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), raw)
}

func TestToDisplay(t *testing.T) {
	assert.True(t, decimal.RequireFromString("2.5").Equal(ToDisplay(2_500_000, 6)))
	assert.True(t, decimal.Zero.Equal(ToDisplay(0, 9)))
	assert.True(t, decimal.RequireFromString("7").Equal(ToDisplay(7, 0)))
	assert.True(t, decimal.Zero.Equal(ToDisplayBig(nil, 6)))
}

func TestRoundTripWithinTolerance(t *testing.T) {
	inputs := []string{"0", "1", "0.5", "12.345678", "18.000000000000000001", "0.000000000000000009"}

	for d := uint8(0); d <= MaxDecimals; d++ {
		tolerance := decimal.New(1, -int32(d))
		for _, in := range inputs {
			x := decimal.RequireFromString(in)
			raw, err := ToRaw(x, d)
			require.NoError(t, err)

			back := ToDisplay(raw, d)
			diff := x.Sub(back).Abs()
			assert.True(t, diff.LessThan(tolerance), "d=%d x=%s back=%s", d, in, back)
		}
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 1,000.25 ")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1000.25").Equal(d))

	d, err = ParseAmount("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	for _, bad := range []string{"abc", "-3", "NaN", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

// quickly fails the test if fn has not returned within a second.
func quickly(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("call did not return within a second")
	}
}

func TestParseAmount_RejectsExponentAndLongInput(t *testing.T) {
	inputs := []string{
		"1e100000000",
		"1e-400000000",
		"1E5",
		"2.5e3",
		"1e0",
		"-1e100000000",
		strings.Repeat("9", 65),
		"0." + strings.Repeat("0", 70) + "1",
	}
	for _, in := range inputs {
		quickly(t, func() {
			_, err := ParseAmount(in)
			assert.ErrorIs(t, err, ErrInvalidAmount, in)
		})
	}

	d, err := ParseAmount("18446744073709.551615")
	require.NoError(t, err)
	raw, err := ToRaw(d, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), raw)
}

func TestToRaw_ExtremeExponents(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		want    uint64
		wantErr bool
	}{
		{name: "huge positive exponent", amount: decimal.New(1, 100_000_000), wantErr: true},
		{name: "huge negative exponent", amount: decimal.New(1, -400_000_000), want: 0},
		{name: "negative with huge exponent", amount: decimal.New(-1, 100_000_000), wantErr: true},
		{name: "past u64", amount: decimal.New(2, 19), wantErr: true},
		{name: "float beyond range", amount: decimal.NewFromFloat(1e300), wantErr: true},
		{name: "below precision", amount: decimal.New(9, -7), want: 0},
		{name: "smallest unit", amount: decimal.New(1, -6), want: 1},
		{name: "twenty digits in range", amount: decimal.New(1, 13), want: 10_000_000_000_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quickly(t, func() {
				raw, err := ToRaw(tt.amount, 6)
				if tt.wantErr {
					assert.ErrorIs(t, err, ErrInvalidAmount)
					return
				}
				assert.NoError(t, err)
				assert.Equal(t, tt.want, raw)
			})
		})
	}
}

func TestFromFloat(t *testing.T) {
	d, err := FromFloat(0.25)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.25").Equal(d))

	_, err = FromFloat(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = FromFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = FromFloat(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatWithCommas(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatWithCommas(decimal.RequireFromString("1234567.891"), 2))
	assert.Equal(t, "0.00", FormatWithCommas(decimal.Zero, 2))
	assert.Equal(t, "999.50", FormatWithCommas(decimal.RequireFromString("999.5"), 2))
	assert.Equal(t, "-1,000", FormatWithCommas(decimal.RequireFromString("-1000"), 0))
	assert.Equal(t, "123,456", FormatWithCommas(decimal.RequireFromString("123456"), 0))
}
