package farmprogram

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// ChainClient is the subset of the RPC client the reader needs.
type ChainClient interface {
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment string) (uint64, error)
	GetTokenSupply(ctx context.Context, mint solana.PublicKey, commitment string) (uint64, error)
	GetAccountData(ctx context.Context, account solana.PublicKey, commitment string) ([]byte, bool, error)
}

// OwnerSource identifies the connected wallet.
type OwnerSource interface {
	Connected() bool
	Owner() solana.PublicKey
}

// Reader fetches farm state from chain.
type Reader struct {
	client     ChainClient
	owner      OwnerSource
	commitment string
	logger     *logrus.Logger
	now        func() time.Time
}

func NewReader(client ChainClient, owner OwnerSource, commitment string, logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	if commitment == "" {
		commitment = "confirmed"
	}
	return &Reader{client: client, owner: owner, commitment: commitment, logger: logger, now: time.Now}
}

// GetFarmSwap reads both pool vault balances and the pool mint supply.
func (r *Reader) GetFarmSwap(ctx context.Context, f *farm.Farm) (*farm.Quote, error) {
	q := &farm.Quote{FarmID: f.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bal, err := r.client.GetTokenAccountBalance(gctx, f.Pool.TokenA.Vault, r.commitment)
		if err != nil {
			return fmt.Errorf("failed to fetch vault A balance: %w", err)
		}
		q.ReserveA = bal
		return nil
	})
	g.Go(func() error {
		bal, err := r.client.GetTokenAccountBalance(gctx, f.Pool.TokenB.Vault, r.commitment)
		if err != nil {
			return fmt.Errorf("failed to fetch vault B balance: %w", err)
		}
		q.ReserveB = bal
		return nil
	})
	g.Go(func() error {
		supply, err := r.client.GetTokenSupply(gctx, f.Pool.PoolMint, r.commitment)
		if err != nil {
			return fmt.Errorf("failed to fetch pool supply: %w", err)
		}
		q.PoolSupply = supply
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	q.FetchedAt = r.now()
	r.logger.WithFields(logrus.Fields{
		"farm":      f.ID,
		"reserve_a": q.ReserveA,
		"reserve_b": q.ReserveB,
	}).Debug("pool quote fetched")
	return q, nil
}

// GetFarmInfo reads the LP tokens held by the farm.
func (r *Reader) GetFarmInfo(ctx context.Context, f *farm.Farm) (*farm.FarmInfo, error) {
	bal, err := r.client.GetTokenAccountBalance(ctx, f.LPVault, r.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch farm LP vault: %w", err)
	}
	return &farm.FarmInfo{FarmID: f.ID, LPTokenAmount: bal, FetchedAt: r.now()}, nil
}

// GetUserFarmInfo reads the connected owner's position. An account that was
// never created is an empty position.
func (r *Reader) GetUserFarmInfo(ctx context.Context, f *farm.Farm) (*farm.UserFarmInfo, error) {
	if r.owner == nil || !r.owner.Connected() {
		return nil, farm.ErrNotConnected
	}
	owner := r.owner.Owner()

	addr, _, err := UserFarmAddress(f.ProgramID, f.Address, owner)
	if err != nil {
		return nil, fmt.Errorf("derive user farm address: %w", err)
	}

	data, found, err := r.client.GetAccountData(ctx, addr, r.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user farm account: %w", err)
	}

	info := &farm.UserFarmInfo{FarmID: f.ID, Owner: owner, FetchedAt: r.now()}
	if !found {
		return info, nil
	}

	acc, err := DecodeUserFarmAccount(data, f.Address)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(owner) {
		return nil, fmt.Errorf("user farm account %s owned by %s", addr, acc.Owner)
	}

	info.Exists = true
	info.DepositTokenAmount = acc.DepositTokenAmount
	info.StakeTokenAmount = acc.StakeTokenAmount
	info.PendingReward = acc.PendingReward
	return info, nil
}
