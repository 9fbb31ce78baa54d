package server

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm/farmtest"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/flags"
)

type fakeReader struct{}

func (fakeReader) GetFarmSwap(_ context.Context, f *farm.Farm) (*farm.Quote, error) {
	return &farm.Quote{
		FarmID:     f.ID,
		ReserveA:   1_000_000_000_000, // 1000 SOL
		ReserveB:   100_000_000_000,   // 100k USDC
		PoolSupply: 10_000_000_000,
	}, nil
}

func (fakeReader) GetFarmInfo(_ context.Context, f *farm.Farm) (*farm.FarmInfo, error) {
	return &farm.FarmInfo{FarmID: f.ID, LPTokenAmount: 1_000_000_000}, nil
}

func (fakeReader) GetUserFarmInfo(_ context.Context, f *farm.Farm) (*farm.UserFarmInfo, error) {
	return &farm.UserFarmInfo{
		FarmID:           f.ID,
		Exists:           true,
		StakeTokenAmount: 5_000_000,
		PendingReward:    2_500_000,
	}, nil
}

type fakeBuilder struct{}

func (fakeBuilder) batch(kind farm.ActionKind, f *farm.Farm) (*farm.TxBatch, error) {
	ix := solana.NewInstruction(f.ProgramID, nil, []byte{1})
	return &farm.TxBatch{Kind: kind, FarmID: f.ID, Groups: [][]solana.Instruction{{ix}}}, nil
}

func (b fakeBuilder) BuildDeposit(_ context.Context, f *farm.Farm, _ *farm.Quote, _, _ uint64) (*farm.TxBatch, error) {
	return b.batch(farm.ActionDeposit, f)
}

func (b fakeBuilder) BuildWithdraw(_ context.Context, f *farm.Farm, _ uint64) (*farm.TxBatch, error) {
	return b.batch(farm.ActionWithdraw, f)
}

func (b fakeBuilder) BuildHarvest(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionHarvest, f)
}

func (b fakeBuilder) BuildStake(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionStake, f)
}

func (b fakeBuilder) BuildRemoveLiquidity(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionRemoveLiquidity, f)
}

type fakeSubmitter struct {
	err error
}

func (s *fakeSubmitter) Submit(_ context.Context, batch *farm.TxBatch) (*farm.Confirmation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &farm.Confirmation{Signatures: []string{"sig-" + string(batch.Kind)}}, nil
}

type fakeSession struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
}

func (s *fakeSession) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *fakeSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *fakeSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) Owner() solana.PublicKey { return farmtest.Owner }

type fakeBalances map[solana.PublicKey]uint64

func (b fakeBalances) TokenBalance(_ context.Context, mint farm.Mint) (uint64, error) {
	return b[mint.Address], nil
}

// fakeFlags is an in-memory FlagStore that also gates actions.
type fakeFlags struct {
	mu    sync.Mutex
	items map[string]*flags.Flag
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{items: make(map[string]*flags.Flag)}
}

func (s *fakeFlags) Upsert(_ context.Context, key string, value bool) (*flags.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &flags.Flag{Key: key, Value: value}
	s.items[key] = f
	return f, nil
}

func (s *fakeFlags) Get(_ context.Context, key string) (*flags.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[key]
	if !ok {
		return nil, flags.ErrNotFound
	}
	return f, nil
}

func (s *fakeFlags) List(_ context.Context, match flags.Match) ([]*flags.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*flags.Flag, 0, len(s.items))
	for k, f := range s.items {
		if match == nil || match(k) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeFlags) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return errors.New("missing")
	}
	delete(s.items, key)
	return nil
}

func (s *fakeFlags) SetActionPaused(ctx context.Context, kind farm.ActionKind, paused bool) error {
	_, err := s.Upsert(ctx, flags.PauseKey(kind), paused)
	return err
}

func (s *fakeFlags) ActionPaused(ctx context.Context, kind farm.ActionKind) (bool, error) {
	f, err := s.Get(ctx, flags.PauseKey(kind))
	if errors.Is(err, flags.ErrNotFound) {
		return false, nil
	}
	return f.Value, err
}
