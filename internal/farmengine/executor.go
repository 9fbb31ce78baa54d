package farmengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

// Orchestrator runs the five mutating actions for one farm and owns the
// farm's cached reads. It tracks per-action status but does not serialize
// actions; callers disable a control while its action is submitting.
type Orchestrator struct {
	farm *farm.Farm

	reader    Reader
	builder   TxBuilder
	submitter Submitter
	session   Session
	balances  Balances
	notifier  Notifier
	recorder  Recorder
	gate      ActionGate

	decider *decider
	state   *FarmState
	logger  *logrus.Logger
	now     func() time.Time
}

// NewOrchestrator wires an orchestrator for f. Reader, builder and submitter
// are required; the rest may be nil.
func NewOrchestrator(f *farm.Farm, deps Deps) (*Orchestrator, error) {
	if f == nil {
		return nil, fmt.Errorf("farm is nil")
	}
	if deps.Reader == nil || deps.Builder == nil || deps.Submitter == nil {
		return nil, fmt.Errorf("farm %s: reader, builder and submitter are required", f.ID)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	return &Orchestrator{
		farm:      f,
		reader:    deps.Reader,
		builder:   deps.Builder,
		submitter: deps.Submitter,
		session:   deps.Session,
		balances:  deps.Balances,
		notifier:  notifier,
		recorder:  deps.Recorder,
		gate:      deps.Gate,
		decider:   &decider{farm: f, session: deps.Session, balances: deps.Balances},
		state:     newFarmState(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Farm returns the farm this orchestrator acts on.
func (o *Orchestrator) Farm() *farm.Farm { return o.farm }

// Snapshot returns the cached reads.
func (o *Orchestrator) Snapshot() Snapshot { return o.state.Snapshot() }

// Status returns the lifecycle state of kind.
func (o *Orchestrator) Status(kind farm.ActionKind) ActionStatus { return o.state.Status(kind) }

// Deposit adds liquidity to the pool and deposits the LP tokens into the farm.
func (o *Orchestrator) Deposit(ctx context.Context, amountA, amountB decimal.Decimal) (*ActionResult, error) {
	return o.Execute(ctx, ActionRequest{Kind: farm.ActionDeposit, AmountA: amountA, AmountB: amountB})
}

// Withdraw unstakes amount LP tokens and removes their liquidity.
func (o *Orchestrator) Withdraw(ctx context.Context, amount decimal.Decimal) (*ActionResult, error) {
	return o.Execute(ctx, ActionRequest{Kind: farm.ActionWithdraw, Amount: amount})
}

// Harvest claims the pending reward.
func (o *Orchestrator) Harvest(ctx context.Context) (*ActionResult, error) {
	return o.Execute(ctx, ActionRequest{Kind: farm.ActionHarvest})
}

// Stake moves deposited-but-unstaked LP tokens into the stake.
func (o *Orchestrator) Stake(ctx context.Context) (*ActionResult, error) {
	return o.Execute(ctx, ActionRequest{Kind: farm.ActionStake})
}

// RemoveLiquidity withdraws the deposited-but-unstaked LP tokens from the pool.
func (o *Orchestrator) RemoveLiquidity(ctx context.Context) (*ActionResult, error) {
	return o.Execute(ctx, ActionRequest{Kind: farm.ActionRemoveLiquidity})
}

// Check reports whether req would pass its preconditions right now.
func (o *Orchestrator) Check(ctx context.Context, req ActionRequest) Availability {
	av := Availability{
		Kind:    req.Kind,
		Loading: o.state.Status(req.Kind) == StatusSubmitting,
		Label:   actionLabel(req.Kind),
	}

	err := o.checkGate(ctx, req.Kind)
	if err == nil {
		_, err = o.decider.check(ctx, req, o.state.Snapshot())
	}
	if req.Kind == farm.ActionDeposit {
		av.Label = depositLabel(err, o.session != nil && o.session.Connected())
	}
	if err != nil {
		av.Reason = err.Error()
		return av
	}
	av.Enabled = !av.Loading
	return av
}

// Execute validates req, builds and submits its batch and on success
// re-reads the farm state. Precondition failures return before any
// transaction I/O and do not notify. Build and submit failures notify with
// the action's fixed message, leave cached reads untouched and return a
// *SubmissionError.
func (o *Orchestrator) Execute(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	start := o.now()
	log := o.logger.WithFields(logrus.Fields{
		"farm":   o.farm.ID,
		"action": req.Kind,
	})

	if err := o.checkGate(ctx, req.Kind); err != nil {
		return nil, err
	}
	raw, err := o.decider.check(ctx, req, o.state.Snapshot())
	if err != nil {
		log.WithError(err).Debug("action rejected")
		return nil, err
	}

	o.state.setStatus(req.Kind, StatusSubmitting)
	defer o.state.setStatus(req.Kind, StatusIdle)
	log.Debug("submitting action")

	// 1. Build
	batch, err := o.build(ctx, raw)
	if err != nil {
		return o.fail(ctx, req, start, &SubmissionError{Kind: req.Kind, Stage: "build", Err: err})
	}
	if batch.Empty() {
		return o.fail(ctx, req, start, &SubmissionError{Kind: req.Kind, Stage: "build", Err: errors.New("empty transaction batch")})
	}

	// 2. Submit
	conf, err := o.submitter.Submit(ctx, batch)
	if err != nil {
		return o.fail(ctx, req, start, &SubmissionError{Kind: req.Kind, Stage: "submit", Err: err})
	}
	if conf == nil {
		conf = &farm.Confirmation{}
	}
	o.state.setStatus(req.Kind, StatusSucceeded)

	// 3. Refresh cascade
	refreshErr := o.Refresh(ctx)

	result := &ActionResult{
		Kind:       req.Kind,
		FarmID:     o.farm.ID,
		Status:     StatusSucceeded,
		Signatures: conf.Signatures,
		Duration:   o.now().Sub(start),
		RefreshErr: refreshErr,
	}

	log.WithFields(logrus.Fields{
		"signatures": conf.Signatures,
		"duration":   result.Duration,
	}).Info("action confirmed")
	if refreshErr != nil {
		log.WithError(refreshErr).Warn("post-action refresh incomplete")
	}

	o.record(ctx, req, start, models.ActionSucceeded, conf.Signatures, nil)
	return result, nil
}

// Refresh re-reads the quote, farm info and, with a wallet connected, the
// user position. The three reads run concurrently and each is issued once.
// A failed read keeps the previous value; the errors are joined.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if inv, ok := o.reader.(QuoteInvalidator); ok {
		if err := inv.InvalidateQuote(ctx, o.farm.ID); err != nil {
			o.logger.WithError(err).WithField("farm", o.farm.ID).Warn("quote invalidation failed")
		}
	}

	var (
		g                          errgroup.Group
		quoteErr, infoErr, userErr error
	)

	g.Go(func() error {
		q, err := o.reader.GetFarmSwap(ctx, o.farm)
		if err == nil && q == nil {
			err = farm.ErrEmptyRead
		}
		if err != nil {
			quoteErr = fmt.Errorf("farm swap: %w", err)
			return nil
		}
		o.state.setQuote(q)
		return nil
	})
	g.Go(func() error {
		fi, err := o.reader.GetFarmInfo(ctx, o.farm)
		if err == nil && fi == nil {
			err = farm.ErrEmptyRead
		}
		if err != nil {
			infoErr = fmt.Errorf("farm info: %w", err)
			return nil
		}
		o.state.setFarmInfo(fi)
		return nil
	})

	if o.session != nil && o.session.Connected() {
		g.Go(func() error {
			u, err := o.reader.GetUserFarmInfo(ctx, o.farm)
			if err == nil && u == nil {
				err = farm.ErrEmptyRead
			}
			if err != nil {
				userErr = fmt.Errorf("user farm info: %w", err)
				return nil
			}
			o.state.setUser(u)
			return nil
		})
	} else {
		o.state.ClearUser()
	}

	_ = g.Wait()
	return errors.Join(quoteErr, infoErr, userErr)
}

// ClearUser drops the cached user position.
func (o *Orchestrator) ClearUser() { o.state.ClearUser() }

// Estimate converts amount on one leg into the other using the cached quote.
func (o *Orchestrator) Estimate(amount decimal.Decimal, reverse bool) (decimal.Decimal, error) {
	return Estimate(o.state.Snapshot().Quote.Ptr(), o.farm, amount, reverse)
}

// Link recomputes the other deposit leg after side was edited.
func (o *Orchestrator) Link(side Side, amount decimal.Decimal) (LinkedPair, error) {
	return Link(o.state.Snapshot().Quote.Ptr(), o.farm, side, amount)
}

// LinkMax fills side with the wallet's spendable balance and links the other leg.
func (o *Orchestrator) LinkMax(ctx context.Context, side Side) (LinkedPair, error) {
	if o.session == nil || !o.session.Connected() {
		return LinkedPair{}, farm.ErrNotConnected
	}
	if o.balances == nil {
		return LinkedPair{}, fmt.Errorf("no balance source")
	}
	if side != SideA && side != SideB {
		return LinkedPair{}, fmt.Errorf("unknown side %q", side)
	}

	mint := legOf(o.farm, side).Mint
	balance, err := o.balances.TokenBalance(ctx, mint)
	if err != nil {
		return LinkedPair{}, fmt.Errorf("read %s balance: %w", mint.Symbol, err)
	}
	return o.Link(side, MaxSpendable(balance, mint))
}

// WithdrawMax is the full staked amount in display units.
func (o *Orchestrator) WithdrawMax() decimal.Decimal {
	u, ok := o.state.Snapshot().User.Get()
	if !ok {
		return decimal.Zero
	}
	return units.ToDisplay(u.StakeTokenAmount, o.farm.StakeTokenMint.Decimals)
}

func (o *Orchestrator) build(ctx context.Context, r *rawRequest) (*farm.TxBatch, error) {
	switch r.kind {
	case farm.ActionDeposit:
		return o.builder.BuildDeposit(ctx, o.farm, r.quote, r.amountA, r.amountB)
	case farm.ActionWithdraw:
		return o.builder.BuildWithdraw(ctx, o.farm, r.amount)
	case farm.ActionHarvest:
		return o.builder.BuildHarvest(ctx, o.farm)
	case farm.ActionStake:
		return o.builder.BuildStake(ctx, o.farm)
	case farm.ActionRemoveLiquidity:
		return o.builder.BuildRemoveLiquidity(ctx, o.farm)
	}
	return nil, fmt.Errorf("unknown action %q", r.kind)
}

func (o *Orchestrator) fail(ctx context.Context, req ActionRequest, start time.Time, serr *SubmissionError) (*ActionResult, error) {
	o.state.setStatus(req.Kind, StatusFailed)

	o.logger.WithFields(logrus.Fields{
		"farm":   o.farm.ID,
		"action": req.Kind,
		"stage":  serr.Stage,
	}).WithError(serr.Err).Warn("action failed")

	o.notifier.Notify(ctx, models.Notification{
		Message:     FailureMessage(req.Kind),
		Description: FailureDescription,
		Severity:    models.SeverityError,
		FarmID:      o.farm.ID,
		Action:      string(req.Kind),
		Timestamp:   o.now(),
	})
	o.record(ctx, req, start, models.ActionFailed, nil, serr)

	return &ActionResult{
		Kind:     req.Kind,
		FarmID:   o.farm.ID,
		Status:   StatusFailed,
		Duration: o.now().Sub(start),
	}, serr
}

func (o *Orchestrator) checkGate(ctx context.Context, kind farm.ActionKind) error {
	if o.gate == nil {
		return nil
	}
	paused, err := o.gate.ActionPaused(ctx, kind)
	if err != nil {
		o.logger.WithError(err).WithField("action", kind).Warn("pause flag lookup failed")
		return nil
	}
	if paused {
		return fmt.Errorf("%w: %s", ErrActionPaused, kind)
	}
	return nil
}

// record is best-effort.
func (o *Orchestrator) record(ctx context.Context, req ActionRequest, start time.Time, status string, sigs []string, cause error) {
	if o.recorder == nil {
		return
	}
	ev := &models.FarmActionEvent{
		ID:         fmt.Sprintf("act_%d", start.UnixNano()),
		Timestamp:  start,
		FarmID:     o.farm.ID,
		Farm:       o.farm.Name,
		Action:     string(req.Kind),
		Status:     status,
		AmountA:    req.AmountA,
		AmountB:    req.AmountB,
		Amount:     req.Amount,
		Signatures: sigs,
		DurationMS: o.now().Sub(start).Milliseconds(),
	}
	if o.session != nil && o.session.Connected() {
		ev.Owner = o.session.Owner().String()
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if err := o.recorder.RecordAction(ctx, ev); err != nil {
		o.logger.WithError(err).WithField("action", req.Kind).Warn("failed to record action")
	}
}

func asInsufficient(err error) (*InsufficientFundsError, bool) {
	var fe *InsufficientFundsError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func actionLabel(kind farm.ActionKind) string {
	switch kind {
	case farm.ActionDeposit:
		return "Deposit"
	case farm.ActionWithdraw:
		return "Withdraw"
	case farm.ActionHarvest:
		return "Harvest"
	case farm.ActionStake:
		return "Stake"
	case farm.ActionRemoveLiquidity:
		return "Remove Liquidity"
	}
	return string(kind)
}
