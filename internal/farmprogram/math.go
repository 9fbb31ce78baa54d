package farmprogram

import (
	"math/big"
)

const bpsDenominator = 10_000

// ApplySlippage reduces amount by slippageBps basis points, flooring.
func ApplySlippage(amount uint64, slippageBps uint16) uint64 {
	if slippageBps >= bpsDenominator {
		return 0
	}
	return mulDiv(amount, uint64(bpsDenominator-slippageBps), bpsDenominator)
}

// PoolTokensForDeposit returns the LP tokens a two-sided deposit of rawA and
// rawB mints at the given reserves: the smaller of the two pro-rata shares.
// Zero when the pool is empty.
func PoolTokensForDeposit(rawA, rawB, reserveA, reserveB, supply uint64) uint64 {
	if reserveA == 0 || reserveB == 0 || supply == 0 {
		return 0
	}
	byA := mulDiv(rawA, supply, reserveA)
	byB := mulDiv(rawB, supply, reserveB)
	if byA < byB {
		return byA
	}
	return byB
}

// ShareOf returns the part of reserve owned by poolTokens out of supply.
func ShareOf(poolTokens, reserve, supply uint64) uint64 {
	if supply == 0 {
		return 0
	}
	return mulDiv(poolTokens, reserve, supply)
}

// mulDiv computes a*b/c without overflow, saturating at the uint64 max.
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	r := new(big.Int).SetUint64(a)
	r.Mul(r, new(big.Int).SetUint64(b))
	r.Quo(r, new(big.Int).SetUint64(c))
	if !r.IsUint64() {
		return ^uint64(0)
	}
	return r.Uint64()
}
