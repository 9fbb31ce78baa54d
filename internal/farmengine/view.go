package farmengine

import (
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

const (
	displayPlaces = 2

	placeholderPool = "-"
	placeholderUser = "0.00"
)

// DisplayValue is a derived amount ready to render. Loaded is false when the
// source read has not completed; Text then holds the placeholder.
type DisplayValue struct {
	Value  decimal.Decimal `json:"value"`
	Loaded bool            `json:"loaded"`
	Text   string          `json:"text"`
}

func loadedValue(v decimal.Decimal) DisplayValue {
	return DisplayValue{Value: v, Loaded: true, Text: units.FormatWithCommas(v, displayPlaces)}
}

func placeholder(text string) DisplayValue {
	return DisplayValue{Value: decimal.Zero, Text: text}
}

// ActionState is the render state of one action control.
type ActionState struct {
	Loading  bool `json:"loading"`
	Disabled bool `json:"disabled"`
}

// PositionView is the display projection of one farm. It is recomputed on
// every read and never stored.
type PositionView struct {
	FarmID    string `json:"farm_id"`
	Name      string `json:"name"`
	SymbolA   string `json:"symbol_a"`
	SymbolB   string `json:"symbol_b"`
	Reward    string `json:"reward_symbol"`
	Connected bool   `json:"connected"`

	PendingReward     DisplayValue `json:"pending_reward"`
	Staked            DisplayValue `json:"staked"`
	DepositedUnstaked DisplayValue `json:"deposited_unstaked"`
	PooledA           DisplayValue `json:"pooled_a"`
	PooledB           DisplayValue `json:"pooled_b"`
	LPSupply          DisplayValue `json:"lp_supply"`

	TVL string `json:"tvl"`
	APY string `json:"apy"`

	// ShowStake is set when deposited-but-unstaked LP tokens exist.
	ShowStake bool `json:"show_stake"`

	Actions map[farm.ActionKind]ActionState `json:"actions"`
}

// BuildPositionView derives the view from f and snap. statuses may be nil.
func BuildPositionView(f *farm.Farm, snap Snapshot, connected bool, statuses map[farm.ActionKind]ActionStatus) PositionView {
	v := PositionView{
		FarmID:    f.ID,
		Name:      f.Name,
		SymbolA:   f.Pool.TokenA.Mint.Symbol,
		SymbolB:   f.Pool.TokenB.Mint.Symbol,
		Reward:    f.RewardTokenMint.Symbol,
		Connected: connected,

		PendingReward:     placeholder(placeholderUser),
		Staked:            placeholder(placeholderUser),
		DepositedUnstaked: placeholder(placeholderUser),
		PooledA:           placeholder(placeholderPool),
		PooledB:           placeholder(placeholderPool),
		LPSupply:          placeholder(placeholderPool),

		TVL: formatTVL(f.TVL),
		APY: formatAPY(f.APY),
	}

	stakeDec := f.StakeTokenMint.Decimals

	if q, ok := snap.Quote.Get(); ok && q.FarmID == f.ID {
		v.PooledA = loadedValue(units.ToDisplay(q.ReserveA, f.Pool.TokenA.Mint.Decimals))
		v.PooledB = loadedValue(units.ToDisplay(q.ReserveB, f.Pool.TokenB.Mint.Decimals))
	}
	if fi, ok := snap.FarmInfo.Get(); ok {
		v.LPSupply = loadedValue(units.ToDisplay(fi.LPTokenAmount, stakeDec))
	}

	u, hasUser := snap.User.Get()
	if hasUser {
		v.PendingReward = loadedValue(units.ToDisplay(u.PendingReward, f.RewardTokenMint.Decimals))
		v.Staked = loadedValue(units.ToDisplay(u.StakeTokenAmount, stakeDec))
		v.DepositedUnstaked = loadedValue(units.ToDisplay(u.DepositTokenAmount, stakeDec))
		v.ShowStake = u.DepositTokenAmount > 0
	}

	v.Actions = make(map[farm.ActionKind]ActionState, len(farm.AllActions))
	for _, kind := range farm.AllActions {
		st := ActionState{Loading: statuses[kind] == StatusSubmitting}
		st.Disabled = st.Loading || !baseEnabled(kind, connected, hasUser, u)
		v.Actions[kind] = st
	}
	return v
}

// baseEnabled applies the input-independent part of each precondition.
func baseEnabled(kind farm.ActionKind, connected, hasUser bool, u farm.UserFarmInfo) bool {
	if !connected {
		return false
	}
	switch kind {
	case farm.ActionDeposit:
		return true
	case farm.ActionWithdraw:
		return hasUser && u.StakeTokenAmount > 0
	case farm.ActionHarvest:
		return hasUser && u.PendingReward > 0
	case farm.ActionStake:
		return hasUser && u.DepositTokenAmount > 0
	case farm.ActionRemoveLiquidity:
		return hasUser && u.Exists
	}
	return false
}

func formatTVL(tvl float64) string {
	if tvl <= 0 {
		return placeholderPool
	}
	return "$" + units.FormatWithCommas(decimal.NewFromFloat(tvl), displayPlaces)
}

func formatAPY(apy float64) string {
	if apy <= 0 {
		return placeholderPool
	}
	return units.FormatWithCommas(decimal.NewFromFloat(apy).Shift(2), displayPlaces) + "%"
}

// View builds the position view from the orchestrator's cached reads.
func (o *Orchestrator) View() PositionView {
	statuses := make(map[farm.ActionKind]ActionStatus, len(farm.AllActions))
	for _, kind := range farm.AllActions {
		statuses[kind] = o.state.Status(kind)
	}
	connected := o.session != nil && o.session.Connected()
	return BuildPositionView(o.farm, o.state.Snapshot(), connected, statuses)
}
