package farmengine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm/farmtest"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

type fakeReader struct {
	mu    sync.Mutex
	quote *farm.Quote
	info  *farm.FarmInfo
	user  *farm.UserFarmInfo

	quoteErr, infoErr, userErr error
	// empty makes every read return (nil, nil).
	empty bool

	calls       map[string]int
	invalidated int
}

func newFakeReader(f *farm.Farm) *fakeReader {
	return &fakeReader{
		quote: &farm.Quote{
			FarmID:     f.ID,
			ReserveA:   1_000_000_000_000, // 1000 SOL
			ReserveB:   100_000_000_000,   // 100k USDC
			PoolSupply: 10_000_000_000,
		},
		info:  &farm.FarmInfo{FarmID: f.ID, LPTokenAmount: 1_234_567_890},
		user:  &farm.UserFarmInfo{FarmID: f.ID, Exists: true},
		calls: make(map[string]int),
	}
}

func (r *fakeReader) GetFarmSwap(_ context.Context, _ *farm.Farm) (*farm.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["swap"]++
	if r.quoteErr != nil {
		return nil, r.quoteErr
	}
	if r.empty {
		return nil, nil
	}
	q := *r.quote
	return &q, nil
}

func (r *fakeReader) GetFarmInfo(_ context.Context, _ *farm.Farm) (*farm.FarmInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["info"]++
	if r.infoErr != nil {
		return nil, r.infoErr
	}
	if r.empty {
		return nil, nil
	}
	fi := *r.info
	return &fi, nil
}

func (r *fakeReader) GetUserFarmInfo(_ context.Context, _ *farm.Farm) (*farm.UserFarmInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["user"]++
	if r.userErr != nil {
		return nil, r.userErr
	}
	if r.empty {
		return nil, nil
	}
	u := *r.user
	return &u, nil
}

func (r *fakeReader) InvalidateQuote(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated++
	return nil
}

func (r *fakeReader) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *fakeReader) resetCounts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make(map[string]int)
	r.invalidated = 0
}

func (r *fakeReader) setUser(u farm.UserFarmInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = &u
}

type buildCall struct {
	kind             farm.ActionKind
	amountA, amountB uint64
	amount           uint64
}

type fakeBuilder struct {
	mu    sync.Mutex
	err   error
	empty bool
	calls []buildCall
}

func (b *fakeBuilder) batch(kind farm.ActionKind, f *farm.Farm, call buildCall) (*farm.TxBatch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call.kind = kind
	b.calls = append(b.calls, call)
	if b.err != nil {
		return nil, b.err
	}
	if b.empty {
		return &farm.TxBatch{Kind: kind, FarmID: f.ID}, nil
	}
	ix := solana.NewInstruction(f.ProgramID, nil, []byte{1})
	return &farm.TxBatch{Kind: kind, FarmID: f.ID, Groups: [][]solana.Instruction{{ix}}}, nil
}

func (b *fakeBuilder) BuildDeposit(_ context.Context, f *farm.Farm, _ *farm.Quote, amountA, amountB uint64) (*farm.TxBatch, error) {
	return b.batch(farm.ActionDeposit, f, buildCall{amountA: amountA, amountB: amountB})
}

func (b *fakeBuilder) BuildWithdraw(_ context.Context, f *farm.Farm, amount uint64) (*farm.TxBatch, error) {
	return b.batch(farm.ActionWithdraw, f, buildCall{amount: amount})
}

func (b *fakeBuilder) BuildHarvest(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionHarvest, f, buildCall{})
}

func (b *fakeBuilder) BuildStake(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionStake, f, buildCall{})
}

func (b *fakeBuilder) BuildRemoveLiquidity(_ context.Context, f *farm.Farm) (*farm.TxBatch, error) {
	return b.batch(farm.ActionRemoveLiquidity, f, buildCall{})
}

func (b *fakeBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBuilder) last() buildCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

type fakeSubmitter struct {
	mu    sync.Mutex
	err   error
	count int
}

func (s *fakeSubmitter) Submit(_ context.Context, batch *farm.TxBatch) (*farm.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
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
	v, ok := b[mint.Address]
	if !ok {
		return 0, errors.New("no balance")
	}
	return v, nil
}

type spyNotifier struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (n *spyNotifier) Notify(_ context.Context, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *spyNotifier) all() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.notes...)
}

type spyRecorder struct {
	mu     sync.Mutex
	events []*models.FarmActionEvent
}

func (r *spyRecorder) RecordAction(_ context.Context, ev *models.FarmActionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type fakeGate struct {
	paused map[farm.ActionKind]bool
	err    error
}

func (g fakeGate) ActionPaused(_ context.Context, kind farm.ActionKind) (bool, error) {
	return g.paused[kind], g.err
}

type harness struct {
	farm      *farm.Farm
	reader    *fakeReader
	builder   *fakeBuilder
	submitter *fakeSubmitter
	session   *fakeSession
	balances  fakeBalances
	notifier  *spyNotifier
	recorder  *spyRecorder
	o         *Orchestrator
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// newHarness wires an orchestrator for the SOL-USDC farm with a connected
// session and loads its state.
func newHarness(t *testing.T) *harness {
	t.Helper()
	f := farmtest.SOLUSDC()
	h := &harness{
		farm:      &f,
		reader:    newFakeReader(&f),
		builder:   &fakeBuilder{},
		submitter: &fakeSubmitter{},
		session:   &fakeSession{connected: true},
		balances: fakeBalances{
			farmtest.WrappedSOL: 100_000_000_000, // 100 SOL
			farmtest.USDC:       50_000_000,      // 50 USDC
		},
		notifier: &spyNotifier{},
		recorder: &spyRecorder{},
	}
	o, err := NewOrchestrator(h.farm, Deps{
		Reader:    h.reader,
		Builder:   h.builder,
		Submitter: h.submitter,
		Session:   h.session,
		Balances:  h.balances,
		Notifier:  h.notifier,
		Recorder:  h.recorder,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	h.o = o
	require.NoError(t, o.Refresh(context.Background()))
	h.reader.resetCounts()
	return h
}
