package farmprogram

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// StateReader supplies the quote and position the builder needs for
// minimum-out amounts.
type StateReader interface {
	GetFarmSwap(ctx context.Context, f *farm.Farm) (*farm.Quote, error)
	GetUserFarmInfo(ctx context.Context, f *farm.Farm) (*farm.UserFarmInfo, error)
}

// BuilderConfig wires a Builder.
type BuilderConfig struct {
	Reader      StateReader
	Owner       OwnerSource
	Accounts    AccountChecker
	SlippageBps uint16
	Logger      *logrus.Logger
}

// Builder assembles instruction batches for farm actions. Each batch is a
// pool group and a farm group, submitted in the order the action needs.
type Builder struct {
	reader      StateReader
	owner       OwnerSource
	accounts    AccountChecker
	slippageBps uint16
	logger      *logrus.Logger
}

func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if cfg.Reader == nil || cfg.Owner == nil || cfg.Accounts == nil {
		return nil, fmt.Errorf("builder: reader, owner and accounts are required")
	}
	if cfg.SlippageBps >= bpsDenominator {
		return nil, fmt.Errorf("builder: slippage %d bps out of range", cfg.SlippageBps)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Builder{
		reader:      cfg.Reader,
		owner:       cfg.Owner,
		accounts:    cfg.Accounts,
		slippageBps: cfg.SlippageBps,
		logger:      cfg.Logger,
	}, nil
}

// BuildDeposit adds amountA/amountB to the pool, then deposits and stakes the
// minted LP tokens in the farm.
func (b *Builder) BuildDeposit(ctx context.Context, f *farm.Farm, q *farm.Quote, amountA, amountB uint64) (*farm.TxBatch, error) {
	if !q.ValidFor(f) {
		return nil, farm.ErrQuoteFarmMismatch
	}
	if q.Degenerate() || q.PoolSupply == 0 {
		return nil, fmt.Errorf("pool %s has no liquidity", f.ID)
	}
	if amountA == 0 || amountB == 0 {
		return nil, fmt.Errorf("deposit amounts must be > 0")
	}

	poolTokens := ApplySlippage(PoolTokensForDeposit(amountA, amountB, q.ReserveA, q.ReserveB, q.PoolSupply), b.slippageBps)
	if poolTokens == 0 {
		return nil, fmt.Errorf("deposit too small to mint LP tokens")
	}

	u, setup, err := b.userAccounts(ctx, f, true)
	if err != nil {
		return nil, err
	}

	// Pool group: token accounts, SOL wrapping, two-sided deposit.
	pool := append([]solana.Instruction{}, setup.legPre...)
	pool = append(pool, setup.lpPre...)
	pool = append(pool, wrapSOL(f.Pool.TokenA, u.Owner, u.TokenA, amountA)...)
	pool = append(pool, wrapSOL(f.Pool.TokenB, u.Owner, u.TokenB, amountB)...)

	depositIx, err := NewPoolDepositIx(&f.Pool, u, DepositAllArgs{
		PoolTokenAmount: poolTokens,
		MaximumTokenA:   amountA,
		MaximumTokenB:   amountB,
	})
	if err != nil {
		return nil, err
	}
	pool = append(pool, depositIx)
	pool = append(pool, setup.post...)

	// Farm group: user farm account, deposit, stake.
	var farmIxs []solana.Instruction
	if !setup.userFarmExists {
		ix, err := NewCreateUserFarmIx(f, u)
		if err != nil {
			return nil, err
		}
		farmIxs = append(farmIxs, ix)
	}
	farmDeposit, err := NewFarmDepositIx(f, u, poolTokens)
	if err != nil {
		return nil, err
	}
	stake, err := NewFarmStakeIx(f, u)
	if err != nil {
		return nil, err
	}
	farmIxs = append(farmIxs, farmDeposit, stake)

	b.logger.WithFields(logrus.Fields{
		"farm":        f.ID,
		"amount_a":    amountA,
		"amount_b":    amountB,
		"pool_tokens": poolTokens,
	}).Debug("deposit batch built")

	return &farm.TxBatch{Kind: farm.ActionDeposit, FarmID: f.ID, Groups: [][]solana.Instruction{pool, farmIxs}}, nil
}

// BuildWithdraw unstakes amount LP tokens and removes their liquidity.
func (b *Builder) BuildWithdraw(ctx context.Context, f *farm.Farm, amount uint64) (*farm.TxBatch, error) {
	if amount == 0 {
		return nil, fmt.Errorf("withdraw amount must be > 0")
	}
	u, setup, err := b.userAccounts(ctx, f, false)
	if err != nil {
		return nil, err
	}

	unstake, err := NewUnstakeWithdrawIx(f, u, amount)
	if err != nil {
		return nil, err
	}
	farmIxs := append([]solana.Instruction{}, setup.rewardPre...)
	farmIxs = append(farmIxs, setup.lpPre...)
	farmIxs = append(farmIxs, unstake)

	poolIxs, err := b.poolWithdraw(ctx, f, u, setup, amount)
	if err != nil {
		return nil, err
	}

	return &farm.TxBatch{Kind: farm.ActionWithdraw, FarmID: f.ID, Groups: [][]solana.Instruction{farmIxs, poolIxs}}, nil
}

// BuildHarvest claims the pending reward.
func (b *Builder) BuildHarvest(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	u, setup, err := b.userAccounts(ctx, f, false)
	if err != nil {
		return nil, err
	}
	harvest, err := NewHarvestIx(f, u)
	if err != nil {
		return nil, err
	}
	ixs := append(append([]solana.Instruction{}, setup.rewardPre...), harvest)
	return &farm.TxBatch{Kind: farm.ActionHarvest, FarmID: f.ID, Groups: [][]solana.Instruction{ixs}}, nil
}

// BuildStake stakes every deposited-but-unstaked LP token.
func (b *Builder) BuildStake(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	u, _, err := b.userAccounts(ctx, f, false)
	if err != nil {
		return nil, err
	}
	stake, err := NewFarmStakeIx(f, u)
	if err != nil {
		return nil, err
	}
	return &farm.TxBatch{Kind: farm.ActionStake, FarmID: f.ID, Groups: [][]solana.Instruction{{stake}}}, nil
}

// BuildRemoveLiquidity withdraws the deposited-but-unstaked LP tokens from
// the farm and removes their liquidity from the pool.
func (b *Builder) BuildRemoveLiquidity(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	pos, err := b.reader.GetUserFarmInfo(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read position: %w", err)
	}
	if pos.DepositTokenAmount == 0 {
		return nil, fmt.Errorf("no deposited LP tokens to remove")
	}

	u, setup, err := b.userAccounts(ctx, f, false)
	if err != nil {
		return nil, err
	}
	withdraw, err := NewWithdrawDepositedIx(f, u, pos.DepositTokenAmount)
	if err != nil {
		return nil, err
	}
	poolIxs, err := b.poolWithdraw(ctx, f, u, setup, pos.DepositTokenAmount)
	if err != nil {
		return nil, err
	}

	return &farm.TxBatch{
		Kind:   farm.ActionRemoveLiquidity,
		FarmID: f.ID,
		Groups: [][]solana.Instruction{append(append([]solana.Instruction{}, setup.lpPre...), withdraw), poolIxs},
	}, nil
}

func (b *Builder) poolWithdraw(ctx context.Context, f *farm.Farm, u UserAccounts, setup *accountSetup, poolTokens uint64) ([]solana.Instruction, error) {
	q, err := b.reader.GetFarmSwap(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read quote: %w", err)
	}
	if q.PoolSupply == 0 {
		return nil, fmt.Errorf("pool %s has no supply", f.ID)
	}

	ix, err := NewPoolWithdrawIx(&f.Pool, u, WithdrawAllArgs{
		PoolTokenAmount: poolTokens,
		MinimumTokenA:   ApplySlippage(ShareOf(poolTokens, q.ReserveA, q.PoolSupply), b.slippageBps),
		MinimumTokenB:   ApplySlippage(ShareOf(poolTokens, q.ReserveB, q.PoolSupply), b.slippageBps),
	})
	if err != nil {
		return nil, err
	}

	ixs := append([]solana.Instruction{}, setup.legPre...)
	ixs = append(ixs, ix)
	return append(ixs, setup.post...), nil
}

type accountSetup struct {
	legPre         []solana.Instruction // missing leg A/B accounts
	lpPre          []solana.Instruction // missing LP account
	rewardPre      []solana.Instruction // missing reward account
	post           []solana.Instruction // unwrap SOL accounts created here
	userFarmExists bool
}

// userAccounts resolves the owner's token accounts for f. For deposits it
// also checks whether the user-farm account already exists.
func (b *Builder) userAccounts(ctx context.Context, f *farm.Farm, deposit bool) (UserAccounts, *accountSetup, error) {
	if !b.owner.Connected() {
		return UserAccounts{}, nil, farm.ErrNotConnected
	}
	owner := b.owner.Owner()

	userFarm, _, err := UserFarmAddress(f.ProgramID, f.Address, owner)
	if err != nil {
		return UserAccounts{}, nil, fmt.Errorf("derive user farm address: %w", err)
	}
	u := UserAccounts{Owner: owner, UserFarm: userFarm}

	legA, err := ResolveTokenAccount(ctx, b.accounts, owner, f.Pool.TokenA.Mint.Address)
	if err != nil {
		return u, nil, err
	}
	legB, err := ResolveTokenAccount(ctx, b.accounts, owner, f.Pool.TokenB.Mint.Address)
	if err != nil {
		return u, nil, err
	}
	lp, err := ResolveTokenAccount(ctx, b.accounts, owner, f.StakeTokenMint.Address)
	if err != nil {
		return u, nil, err
	}
	reward, err := ResolveTokenAccount(ctx, b.accounts, owner, f.RewardTokenMint.Address)
	if err != nil {
		return u, nil, err
	}
	u.TokenA, u.TokenB, u.LP, u.Reward = legA.Account, legB.Account, lp.Account, reward.Account

	setup := &accountSetup{
		legPre:    append(append([]solana.Instruction{}, legA.PreIxs...), legB.PreIxs...),
		lpPre:     lp.PreIxs,
		rewardPre: reward.PreIxs,
	}

	// Close wrapped SOL accounts created for this batch so lamports return.
	for _, leg := range []struct {
		res  *ResolvedTokenAccount
		mint solana.PublicKey
	}{{legA, f.Pool.TokenA.Mint.Address}, {legB, f.Pool.TokenB.Mint.Address}} {
		if leg.res.Created && leg.mint.Equals(solana.SolMint) {
			setup.post = append(setup.post, NewTokenCloseAccountIx(leg.res.Account, owner, owner))
		}
	}

	if deposit {
		exists, err := b.accounts.AccountExists(ctx, userFarm)
		if err != nil {
			return u, nil, fmt.Errorf("check user farm account: %w", err)
		}
		setup.userFarmExists = exists
	}

	return u, setup, nil
}

// wrapSOL funds the wrapped SOL account with amount lamports when leg is SOL.
func wrapSOL(leg farm.Leg, owner, account solana.PublicKey, amount uint64) []solana.Instruction {
	if !leg.Mint.Address.Equals(solana.SolMint) {
		return nil
	}
	return []solana.Instruction{
		NewSystemTransferIx(owner, account, amount),
		NewTokenSyncNativeIx(account),
	}
}
