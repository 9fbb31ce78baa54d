package farmengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/units"
)

var (
	// ErrPrecondition marks a request rejected before any transaction I/O.
	ErrPrecondition = errors.New("precondition failed")
	// ErrActionPaused is returned when an operator paused the action kind.
	ErrActionPaused = errors.New("action paused")
	// ErrInvalidAmount is re-exported for callers that only import the engine.
	ErrInvalidAmount = units.ErrInvalidAmount
)

// Reader fetches on-chain farm state. Implementations must be safe for
// concurrent use; the refresh cascade issues all three reads at once.
// A nil value with a nil error is treated as a failed read (farm.ErrEmptyRead).
type Reader interface {
	GetFarmSwap(ctx context.Context, f *farm.Farm) (*farm.Quote, error)
	GetFarmInfo(ctx context.Context, f *farm.Farm) (*farm.FarmInfo, error)
	GetUserFarmInfo(ctx context.Context, f *farm.Farm) (*farm.UserFarmInfo, error)
}

// QuoteInvalidator is implemented by readers that cache quotes.
type QuoteInvalidator interface {
	InvalidateQuote(ctx context.Context, farmID string) error
}

// TxBuilder assembles instruction batches. Amounts are raw units.
type TxBuilder interface {
	BuildDeposit(ctx context.Context, f *farm.Farm, q *farm.Quote, amountA, amountB uint64) (*farm.TxBatch, error)
	BuildWithdraw(ctx context.Context, f *farm.Farm, amount uint64) (*farm.TxBatch, error)
	BuildHarvest(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error)
	BuildStake(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error)
	BuildRemoveLiquidity(ctx context.Context, f *farm.Farm) (*farm.TxBatch, error)
}

// Submitter signs, sends and confirms a batch.
type Submitter interface {
	Submit(ctx context.Context, batch *farm.TxBatch) (*farm.Confirmation, error)
}

// Session is the wallet session the engine acts for.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	Owner() solana.PublicKey
}

// Balances reports the connected wallet's live raw balance of a mint.
type Balances interface {
	TokenBalance(ctx context.Context, mint farm.Mint) (uint64, error)
}

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Recorder persists action outcomes. Failures are logged, never surfaced.
type Recorder interface {
	RecordAction(ctx context.Context, ev *models.FarmActionEvent) error
}

// ActionGate lets an operator pause an action kind.
type ActionGate interface {
	ActionPaused(ctx context.Context, kind farm.ActionKind) (bool, error)
}

// ActionStatus is the per-action lifecycle state.
type ActionStatus string

const (
	StatusIdle       ActionStatus = "idle"
	StatusSubmitting ActionStatus = "submitting"
	StatusSucceeded  ActionStatus = "succeeded"
	StatusFailed     ActionStatus = "failed"
)

// ActionRequest is one of the five mutating actions with its display-unit
// inputs. Only the fields relevant to Kind are read.
type ActionRequest struct {
	Kind    farm.ActionKind
	AmountA decimal.Decimal // deposit, leg A
	AmountB decimal.Decimal // deposit, leg B
	Amount  decimal.Decimal // withdraw, LP tokens
}

// Availability is what the presentation layer needs to render a control.
type Availability struct {
	Kind    farm.ActionKind `json:"kind"`
	Enabled bool            `json:"enabled"`
	Loading bool            `json:"loading"`
	Label   string          `json:"label"`
	Reason  string          `json:"reason,omitempty"`
}

// ActionResult describes a finished action.
type ActionResult struct {
	Kind       farm.ActionKind `json:"kind"`
	FarmID     string          `json:"farm_id"`
	Status     ActionStatus    `json:"status"`
	Signatures []string        `json:"signatures,omitempty"`
	Duration   time.Duration   `json:"duration"`
	// RefreshErr is set when the action confirmed but a post-trade read failed.
	RefreshErr error `json:"-"`
}

// SubmissionError wraps any failure while building or submitting a batch.
type SubmissionError struct {
	Kind  farm.ActionKind
	Stage string // "build" or "submit"
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Message is the fixed user-facing message for the failed action.
func (e *SubmissionError) Message() string {
	return FailureMessage(e.Kind)
}

// InsufficientFundsError reports the first deposit leg exceeding the wallet balance.
type InsufficientFundsError struct {
	Leg       Side
	Symbol    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s funds: requested %s, available %s",
		e.Symbol, e.Requested.String(), e.Available.String())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrPrecondition }

// FailureDescription accompanies every failure notification.
const FailureDescription = "Please try again and approve transactions from your wallet."

var failureMessages = map[farm.ActionKind]string{
	farm.ActionDeposit:         "Deposit trade cancelled.",
	farm.ActionWithdraw:        "Withdraw trade cancelled.",
	farm.ActionHarvest:         "Harvest trade cancelled.",
	farm.ActionStake:           "Stake trade cancelled.",
	farm.ActionRemoveLiquidity: "Withdraw trade cancelled.",
}

// FailureMessage returns the fixed notification message for kind.
func FailureMessage(kind farm.ActionKind) string {
	if m, ok := failureMessages[kind]; ok {
		return m
	}
	return "Trade cancelled."
}
