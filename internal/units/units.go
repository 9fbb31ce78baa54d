package units

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for negative, non-finite, malformed or
// out-of-range amounts. It never reaches transaction construction.
var ErrInvalidAmount = errors.New("invalid amount")

const (
	// MaxDecimals is the largest mint precision the converter accepts.
	MaxDecimals = 18

	// maxRawDigits is the digit count of math.MaxUint64.
	maxRawDigits = 20

	// maxInputLen bounds user input; any valid u64 amount at MaxDecimals fits.
	maxInputLen = 64
)

// ToRaw scales a display amount into integer token units for a mint with the
// given number of decimals. Digits beyond the mint's precision are truncated.
func ToRaw(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: decimals %d out of range", ErrInvalidAmount, decimals)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, describe(amount))
	}
	if amount.IsZero() {
		return 0, nil
	}

	// The scaled value lies in [10^(m-1), 10^m). Deciding range from m first
	// keeps Shift from materialising huge powers of ten.
	m := int64(amount.NumDigits()) + int64(amount.Exponent()) + int64(decimals)
	if m > maxRawDigits {
		return 0, fmt.Errorf("%w: %s overflows u64 at %d decimals", ErrInvalidAmount, describe(amount), decimals)
	}
	if m <= 0 {
		return 0, nil
	}

	raw := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows u64 at %d decimals", ErrInvalidAmount, describe(amount), decimals)
	}
	return raw.Uint64(), nil
}

// describe formats d for error messages without expanding large exponents.
func describe(d decimal.Decimal) string {
	if e := d.Exponent(); e < -maxInputLen || e > maxInputLen {
		return fmt.Sprintf("%se%d", d.Coefficient().String(), e)
	}
	return d.String()
}

// ToDisplay converts raw integer units into a display amount.
func ToDisplay(raw uint64, decimals uint8) decimal.Decimal {
	return ToDisplayBig(new(big.Int).SetUint64(raw), decimals)
}

// ToDisplayBig is ToDisplay for intermediate results that may not fit a u64.
func ToDisplayBig(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ParseAmount parses user input such as "1.5" or "1,000.25".
// Empty input parses as zero. Exponent notation is not accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if len(s) > maxInputLen {
		return decimal.Zero, fmt.Errorf("%w: input longer than %d characters", ErrInvalidAmount, maxInputLen)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q uses exponent notation", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return d, nil
}

// FromFloat converts a CLI float flag into a decimal, rejecting NaN and Inf.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: non-finite value", ErrInvalidAmount)
	}
	if f < 0 {
		return decimal.Zero, fmt.Errorf("%w: %v is negative", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}
