package server

import (
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmengine"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error       string `json:"error"`                 // Human-readable error message
	Code        int    `json:"code"`                  // HTTP status code
	Description string `json:"description,omitempty"` // Follow-up hint for failed actions
	Details     any    `json:"details,omitempty"`     // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK        bool `json:"ok"`
	Farms     int  `json:"farms"`
	Connected bool `json:"connected"`
}

// WalletResponse describes the wallet session
type WalletResponse struct {
	Connected bool   `json:"connected"`
	Owner     string `json:"owner,omitempty"`
}

// EstimateResponse is the implied amount on the other pool leg
type EstimateResponse struct {
	FarmID  string          `json:"farm_id"`
	Amount  decimal.Decimal `json:"amount"`
	Reverse bool            `json:"reverse"`
	Implied decimal.Decimal `json:"implied"`
}

// LinkRequest edits one deposit leg
type LinkRequest struct {
	Side   string `json:"side"`   // "a" or "b"
	Amount string `json:"amount"` // display units, e.g. "1.5"
}

// DepositRequest adds liquidity and stakes the minted LP tokens
type DepositRequest struct {
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
}

// WithdrawRequest unstakes LP tokens and withdraws the pool legs
type WithdrawRequest struct {
	Amount string `json:"amount"`
}

// WithdrawMaxResponse is the full staked amount
type WithdrawMaxResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

// ActionResponse wraps a confirmed action
type ActionResponse struct {
	Result     *farmengine.ActionResult `json:"result"`
	View       farmengine.PositionView  `json:"view"`
	RefreshErr string                   `json:"refresh_error,omitempty"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`   // Flag key (must match regex pattern)
	Value bool   `json:"value"` // Flag value (true/false)
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"` // New flag value
}

// PauseRequest pauses or resumes one action kind
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about farm activity
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
