package farmprogram

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

type fakeChain struct {
	mu       sync.Mutex
	balances map[solana.PublicKey]uint64
	supply   map[solana.PublicKey]uint64
	data     map[solana.PublicKey][]byte
	failOn   map[solana.PublicKey]error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		balances: make(map[solana.PublicKey]uint64),
		supply:   make(map[solana.PublicKey]uint64),
		data:     make(map[solana.PublicKey][]byte),
		failOn:   make(map[solana.PublicKey]error),
	}
}

func (c *fakeChain) GetTokenAccountBalance(_ context.Context, account solana.PublicKey, _ string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failOn[account]; err != nil {
		return 0, err
	}
	return c.balances[account], nil
}

func (c *fakeChain) GetTokenSupply(_ context.Context, mint solana.PublicKey, _ string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failOn[mint]; err != nil {
		return 0, err
	}
	return c.supply[mint], nil
}

func (c *fakeChain) GetAccountData(_ context.Context, account solana.PublicKey, _ string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failOn[account]; err != nil {
		return nil, false, err
	}
	d, ok := c.data[account]
	return d, ok, nil
}

type fakeOwner struct {
	connected bool
	owner     solana.PublicKey
}

func (o fakeOwner) Connected() bool         { return o.connected }
func (o fakeOwner) Owner() solana.PublicKey { return o.owner }

// fakeAccounts reports accounts in the set as existing.
type fakeAccounts map[solana.PublicKey]bool

func (a fakeAccounts) AccountExists(_ context.Context, pk solana.PublicKey) (bool, error) {
	return a[pk], nil
}

type fakeState struct {
	quote *farm.Quote
	user  *farm.UserFarmInfo
}

func (s fakeState) GetFarmSwap(context.Context, *farm.Farm) (*farm.Quote, error) {
	if s.quote == nil {
		return nil, errors.New("no quote")
	}
	return s.quote, nil
}

func (s fakeState) GetUserFarmInfo(context.Context, *farm.Farm) (*farm.UserFarmInfo, error) {
	if s.user == nil {
		return nil, farm.ErrNotConnected
	}
	return s.user, nil
}
