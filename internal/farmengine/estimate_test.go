package farmengine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm/farmtest"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

func testQuote(f *farm.Farm) *farm.Quote {
	return &farm.Quote{FarmID: f.ID, ReserveA: 1_000_000_000_000, ReserveB: 100_000_000_000, PoolSupply: 1}
}

func TestEstimate(t *testing.T) {
	f := farmtest.SOLUSDC()
	q := testQuote(&f)

	out, err := Estimate(q, &f, dec("1"), false)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(out), "got %s", out)

	out, err = Estimate(q, &f, dec("100"), true)
	require.NoError(t, err)
	assert.True(t, dec("1").Equal(out), "got %s", out)
}

func TestEstimate_ScaleInvariant(t *testing.T) {
	f := farmtest.SOLUSDC()
	q := testQuote(&f)
	oneRaw := dec("0.000001") // one USDC raw unit

	for _, in := range []string{"1", "0.5", "0.123456789", "1234.5678"} {
		x := dec(in)
		single, err := Estimate(q, &f, x, false)
		require.NoError(t, err)
		double, err := Estimate(q, &f, x.Mul(decimal.NewFromInt(2)), false)
		require.NoError(t, err)

		diff := double.Sub(single.Mul(decimal.NewFromInt(2))).Abs()
		assert.True(t, diff.LessThanOrEqual(oneRaw), "%s: %s vs 2*%s", in, double, single)
	}
}

func TestEstimate_RoundTrip(t *testing.T) {
	f := farmtest.SOLUSDC()
	q := testQuote(&f)

	for _, in := range []string{"1", "0.25", "3.14159", "987.654321"} {
		x := dec(in)
		b, err := Estimate(q, &f, x, false)
		require.NoError(t, err)
		back, err := Estimate(q, &f, b, true)
		require.NoError(t, err)

		// One raw USDC unit is 0.00001 SOL at this ratio.
		assert.True(t, x.Sub(back).Abs().LessThanOrEqual(dec("0.00001")), "%s -> %s -> %s", in, b, back)
	}
}

func TestEstimate_ZeroReserves(t *testing.T) {
	f := farmtest.SOLUSDC()
	for _, q := range []*farm.Quote{
		{FarmID: f.ID, ReserveA: 0, ReserveB: 100},
		{FarmID: f.ID, ReserveA: 100, ReserveB: 0},
		{FarmID: f.ID},
	} {
		for _, reverse := range []bool{false, true} {
			for _, amt := range []string{"0", "1", "1000000"} {
				out, err := Estimate(q, &f, dec(amt), reverse)
				require.NoError(t, err)
				assert.True(t, out.IsZero())
			}
		}
	}
}

func TestEstimate_Edges(t *testing.T) {
	f := farmtest.SOLUSDC()
	other := farmtest.RAYUSDC()
	q := testQuote(&f)

	out, err := Estimate(nil, &f, dec("1"), false)
	require.NoError(t, err)
	assert.True(t, out.IsZero())

	out, err = Estimate(q, nil, dec("1"), false)
	require.NoError(t, err)
	assert.True(t, out.IsZero())

	_, err = Estimate(q, &f, dec("-1"), false)
	assert.ErrorIs(t, err, units.ErrInvalidAmount)

	_, err = Estimate(q, &other, dec("1"), false)
	assert.ErrorIs(t, err, farm.ErrQuoteFarmMismatch)
}

func TestLink(t *testing.T) {
	f := farmtest.SOLUSDC()
	q := testQuote(&f)

	p, err := Link(q, &f, SideA, dec("2"))
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(p.AmountA))
	assert.True(t, dec("200").Equal(p.AmountB))

	p, err = Link(q, &f, SideB, dec("50"))
	require.NoError(t, err)
	assert.True(t, dec("0.5").Equal(p.AmountA))
	assert.True(t, dec("50").Equal(p.AmountB))

	_, err = Link(q, &f, Side("c"), dec("1"))
	assert.Error(t, err)
}

func TestMaxSpendable(t *testing.T) {
	sol := farm.Mint{Address: farmtest.WrappedSOL, Decimals: 9, Symbol: "SOL"}
	usdc := farm.Mint{Address: farmtest.USDC, Decimals: 6, Symbol: "USDC"}

	assert.True(t, dec("0.95").Equal(MaxSpendable(1_000_000_000, sol)))
	assert.True(t, MaxSpendable(10_000_000, sol).IsZero(), "never negative")
	assert.True(t, dec("12.5").Equal(MaxSpendable(12_500_000, usdc)))
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("A")
	require.NoError(t, err)
	assert.Equal(t, SideA, s)
	s, err = ParseSide("b")
	require.NoError(t, err)
	assert.Equal(t, SideB, s)
	_, err = ParseSide("x")
	assert.Error(t, err)
}
