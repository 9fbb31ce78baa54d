package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action outcome values stored in FarmActionEvent.Status.
const (
	ActionSucceeded = "succeeded"
	ActionFailed    = "failed"
)

// FarmActionEvent records one completed farm action attempt.
type FarmActionEvent struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	FarmID     string          `json:"farm_id"`
	Farm       string          `json:"farm"` // display name, e.g. "SOL-USDC"
	Action     string          `json:"action"`
	Owner      string          `json:"owner"`
	Status     string          `json:"status"`
	AmountA    decimal.Decimal `json:"amount_a"`
	AmountB    decimal.Decimal `json:"amount_b"`
	Amount     decimal.Decimal `json:"amount"` // LP amount for withdraw
	Signatures []string        `json:"signatures"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// Succeeded reports whether the action was confirmed on chain.
func (e *FarmActionEvent) Succeeded() bool {
	return e.Status == ActionSucceeded
}
