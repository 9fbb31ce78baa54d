package farmengine

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
	"github.com/shopspring/decimal"
)

// rawRequest is an ActionRequest after validation, in raw units.
type rawRequest struct {
	kind    farm.ActionKind
	quote   *farm.Quote
	amountA uint64
	amountB uint64
	amount  uint64
}

// decider validates action requests against a farm snapshot. It performs no
// transaction I/O; the deposit check reads live wallet balances.
type decider struct {
	farm     *farm.Farm
	session  Session
	balances Balances
}

func (d *decider) check(ctx context.Context, req ActionRequest, snap Snapshot) (*rawRequest, error) {
	switch req.Kind {
	case farm.ActionDeposit:
		return d.checkDeposit(ctx, req, snap)
	case farm.ActionWithdraw:
		return d.checkWithdraw(req, snap)
	case farm.ActionHarvest:
		return d.checkHarvest(snap)
	case farm.ActionStake:
		return d.checkStake(snap)
	case farm.ActionRemoveLiquidity:
		return d.checkRemoveLiquidity(snap)
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrPrecondition, req.Kind)
}

func (d *decider) requireSession() error {
	if d.session == nil || !d.session.Connected() {
		return farm.ErrNotConnected
	}
	return nil
}

func (d *decider) requireUser(snap Snapshot) (farm.UserFarmInfo, error) {
	if err := d.requireSession(); err != nil {
		return farm.UserFarmInfo{}, err
	}
	u, ok := snap.User.Get()
	if !ok {
		return farm.UserFarmInfo{}, fmt.Errorf("%w: user position %w", ErrPrecondition, farm.ErrNotLoaded)
	}
	return u, nil
}

func (d *decider) checkDeposit(ctx context.Context, req ActionRequest, snap Snapshot) (*rawRequest, error) {
	if err := d.requireSession(); err != nil {
		return nil, err
	}
	if !req.AmountA.IsPositive() || !req.AmountB.IsPositive() {
		return nil, fmt.Errorf("%w: both deposit amounts must be greater than zero", units.ErrInvalidAmount)
	}

	q := snap.Quote.Ptr()
	if q == nil {
		return nil, fmt.Errorf("%w: pool quote %w", ErrPrecondition, farm.ErrNotLoaded)
	}
	if !q.ValidFor(d.farm) {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, farm.ErrQuoteFarmMismatch)
	}

	// Leg A first: it is the one reported when both legs fall short.
	rawA, err := d.checkLeg(ctx, SideA, req.AmountA)
	if err != nil {
		return nil, err
	}
	rawB, err := d.checkLeg(ctx, SideB, req.AmountB)
	if err != nil {
		return nil, err
	}

	return &rawRequest{kind: farm.ActionDeposit, quote: q, amountA: rawA, amountB: rawB}, nil
}

func (d *decider) checkLeg(ctx context.Context, side Side, amount decimal.Decimal) (uint64, error) {
	leg := legOf(d.farm, side)

	raw, err := units.ToRaw(amount, leg.Mint.Decimals)
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		return 0, fmt.Errorf("%w: %s amount below token precision", units.ErrInvalidAmount, leg.Mint.Symbol)
	}

	if d.balances == nil {
		return 0, fmt.Errorf("%w: no balance source", ErrPrecondition)
	}
	balance, err := d.balances.TokenBalance(ctx, leg.Mint)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s balance: %w", ErrPrecondition, leg.Mint.Symbol, err)
	}

	available := units.ToDisplay(balance, leg.Mint.Decimals)
	if amount.GreaterThan(available) {
		return 0, &InsufficientFundsError{
			Leg:       side,
			Symbol:    leg.Mint.Symbol,
			Requested: amount,
			Available: available,
		}
	}
	return raw, nil
}

func (d *decider) checkWithdraw(req ActionRequest, snap Snapshot) (*rawRequest, error) {
	u, err := d.requireUser(snap)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdraw amount must be greater than zero", units.ErrInvalidAmount)
	}

	// ToRaw runs first so its range check also bounds the comparison below.
	decimals := d.farm.StakeTokenMint.Decimals
	raw, err := units.ToRaw(req.Amount, decimals)
	if err != nil {
		return nil, err
	}
	if raw == 0 {
		return nil, fmt.Errorf("%w: withdraw amount below token precision", units.ErrInvalidAmount)
	}

	staked := units.ToDisplay(u.StakeTokenAmount, decimals)
	if req.Amount.GreaterThan(staked) {
		return nil, fmt.Errorf("%w: withdraw %s exceeds staked %s", ErrPrecondition, req.Amount, staked)
	}
	return &rawRequest{kind: farm.ActionWithdraw, amount: raw}, nil
}

func (d *decider) checkHarvest(snap Snapshot) (*rawRequest, error) {
	u, err := d.requireUser(snap)
	if err != nil {
		return nil, err
	}
	if u.PendingReward == 0 {
		return nil, fmt.Errorf("%w: no pending reward", ErrPrecondition)
	}
	return &rawRequest{kind: farm.ActionHarvest}, nil
}

func (d *decider) checkStake(snap Snapshot) (*rawRequest, error) {
	u, err := d.requireUser(snap)
	if err != nil {
		return nil, err
	}
	if u.DepositTokenAmount == 0 {
		return nil, fmt.Errorf("%w: nothing deposited to stake", ErrPrecondition)
	}
	return &rawRequest{kind: farm.ActionStake}, nil
}

func (d *decider) checkRemoveLiquidity(snap Snapshot) (*rawRequest, error) {
	u, err := d.requireUser(snap)
	if err != nil {
		return nil, err
	}
	if !u.Exists {
		return nil, fmt.Errorf("%w: no farm position", ErrPrecondition)
	}
	return &rawRequest{kind: farm.ActionRemoveLiquidity}, nil
}

// depositLabel is the deposit button text for the given inputs.
func depositLabel(err error, connected bool) string {
	if !connected {
		return "Connect"
	}
	if fe, ok := asInsufficient(err); ok {
		return fmt.Sprintf("Insufficient %s funds", fe.Symbol)
	}
	return "Deposit"
}
