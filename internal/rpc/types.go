package rpc

import (
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when an account or token account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Context is the slot context attached to most account reads.
type Context struct {
	Slot uint64 `json:"slot"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       int    `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// TokenAmountResult is the result of getTokenAccountBalance / getTokenSupply.
type TokenAmountResult struct {
	Context Context     `json:"context"`
	Value   TokenAmount `json:"value"`
}

// AccountInfo is the base64-encoded account returned by getAccountInfo.
type AccountInfo struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [payload, "base64"]
	Executable bool     `json:"executable"`
}

// AccountInfoResult is the result of getAccountInfo; Value is nil when the
// account does not exist.
type AccountInfoResult struct {
	Context Context      `json:"context"`
	Value   *AccountInfo `json:"value"`
}

// BalanceResult is the result of getBalance.
type BalanceResult struct {
	Context Context `json:"context"`
	Value   uint64  `json:"value"`
}
