package farmengine

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

// Side selects a pool leg.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// ParseSide accepts "a"/"b" in either case.
func ParseSide(s string) (Side, error) {
	switch s {
	case "a", "A":
		return SideA, nil
	case "b", "B":
		return SideB, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

var solFeeReserve = decimal.RequireFromString(constants.SOLFeeReserve)

// Estimate converts amount on the "from" leg into the implied amount on the
// other leg using the quote's reserve ratio. The from leg is A unless reverse
// is set. The ratio is applied in raw units and the result floored.
//
// A nil quote or farm, or an empty reserve, yields zero.
func Estimate(q *farm.Quote, f *farm.Farm, amount decimal.Decimal, reverse bool) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount", units.ErrInvalidAmount)
	}
	if q == nil || f == nil {
		return decimal.Zero, nil
	}
	if !q.ValidFor(f) {
		return decimal.Zero, fmt.Errorf("%w: quote %s, farm %s", farm.ErrQuoteFarmMismatch, q.FarmID, f.ID)
	}
	if q.Degenerate() {
		return decimal.Zero, nil
	}

	in, out := f.Pool.TokenA.Mint, f.Pool.TokenB.Mint
	reserveIn, reserveOut := q.ReserveA, q.ReserveB
	if reverse {
		in, out = out, in
		reserveIn, reserveOut = reserveOut, reserveIn
	}

	inRaw, err := units.ToRaw(amount, in.Decimals)
	if err != nil {
		return decimal.Zero, err
	}

	outRaw := new(big.Int).SetUint64(inRaw)
	outRaw.Mul(outRaw, new(big.Int).SetUint64(reserveOut))
	outRaw.Quo(outRaw, new(big.Int).SetUint64(reserveIn))

	return units.ToDisplayBig(outRaw, out.Decimals), nil
}

// LinkedPair is the two-sided deposit input after one leg was edited.
type LinkedPair struct {
	AmountA decimal.Decimal `json:"amount_a"`
	AmountB decimal.Decimal `json:"amount_b"`
}

// Link recomputes the other leg after side was edited to amount.
func Link(q *farm.Quote, f *farm.Farm, side Side, amount decimal.Decimal) (LinkedPair, error) {
	switch side {
	case SideA:
		b, err := Estimate(q, f, amount, false)
		if err != nil {
			return LinkedPair{}, err
		}
		return LinkedPair{AmountA: amount, AmountB: b}, nil
	case SideB:
		a, err := Estimate(q, f, amount, true)
		if err != nil {
			return LinkedPair{}, err
		}
		return LinkedPair{AmountA: a, AmountB: amount}, nil
	}
	return LinkedPair{}, fmt.Errorf("unknown side %q", side)
}

// MaxSpendable is the display amount a max button may fill in. Wrapped SOL
// keeps a fee reserve back.
func MaxSpendable(balance uint64, mint farm.Mint) decimal.Decimal {
	v := units.ToDisplay(balance, mint.Decimals)
	if mint.Address.Equals(solana.SolMint) {
		v = v.Sub(solFeeReserve)
		if v.IsNegative() {
			return decimal.Zero
		}
	}
	return v
}

// legOf returns the pool leg for side.
func legOf(f *farm.Farm, side Side) farm.Leg {
	if side == SideB {
		return f.Pool.TokenB
	}
	return f.Pool.TokenA
}
