package farm

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Mint describes a token mint the engine needs to scale amounts for.
type Mint struct {
	Address  solana.PublicKey
	Decimals uint8
	Symbol   string
}

// Leg is one side of the farm's liquidity pool.
type Leg struct {
	Mint  Mint
	Vault solana.PublicKey // pool reserve account for this leg
}

// Pool is the constant-product swap pool that backs a farm.
type Pool struct {
	ProgramID   solana.PublicKey
	SwapAccount solana.PublicKey
	Authority   solana.PublicKey
	TokenA      Leg
	TokenB      Leg
	PoolMint    solana.PublicKey
	FeeAccount  solana.PublicKey
}

// Farm is a staking pool over an LP token. Immutable once loaded.
type Farm struct {
	ID   string
	Name string

	ProgramID   solana.PublicKey
	Address     solana.PublicKey
	Authority   solana.PublicKey
	LPVault     solana.PublicKey // staked and deposited LP tokens
	RewardVault solana.PublicKey

	Pool            Pool
	StakeTokenMint  Mint
	RewardTokenMint Mint

	// Display-only metadata from the farm listing.
	TVL float64
	APY float64
}

// Quote is a snapshot of the pool reserves for one farm, in raw units.
type Quote struct {
	FarmID     string
	ReserveA   uint64
	ReserveB   uint64
	PoolSupply uint64 // outstanding LP tokens of the pool mint
	FetchedAt  time.Time
}

// ValidFor reports whether the quote was fetched for f.
func (q *Quote) ValidFor(f *Farm) bool {
	return q != nil && f != nil && q.FarmID == f.ID
}

// Degenerate reports whether either reserve is empty.
func (q *Quote) Degenerate() bool {
	return q == nil || q.ReserveA == 0 || q.ReserveB == 0
}

// FarmInfo is the farm-wide aggregate state.
type FarmInfo struct {
	FarmID        string
	LPTokenAmount uint64
	FetchedAt     time.Time
}

// UserFarmInfo is the connected wallet's position in a farm. All counters are
// raw units of the stake mint (reward mint for PendingReward) and independent
// of each other.
type UserFarmInfo struct {
	FarmID             string
	Owner              solana.PublicKey
	Exists             bool // false when the user-farm account was never created
	PendingReward      uint64
	StakeTokenAmount   uint64
	DepositTokenAmount uint64
	FetchedAt          time.Time
}
