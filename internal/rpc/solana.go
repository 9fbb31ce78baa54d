package rpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// GetTokenAccountBalance returns the raw balance of an SPL token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment string) (uint64, error) {
	var result TokenAmountResult
	params := []any{account.String(), commitmentOpts(commitment)}

	if err := c.Call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		if isMissingAccount(err) {
			return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
		}
		return 0, err
	}
	return parseAmount(result.Value.Amount)
}

// GetTokenSupply returns the raw supply of an SPL mint.
func (c *Client) GetTokenSupply(ctx context.Context, mint solana.PublicKey, commitment string) (uint64, error) {
	var result TokenAmountResult
	params := []any{mint.String(), commitmentOpts(commitment)}

	if err := c.Call(ctx, "getTokenSupply", params, &result); err != nil {
		return 0, err
	}
	return parseAmount(result.Value.Amount)
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey, commitment string) (uint64, error) {
	var result BalanceResult
	params := []any{account.String(), commitmentOpts(commitment)}

	if err := c.Call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetAccountData returns the raw data of an account. found is false when the
// account does not exist.
func (c *Client) GetAccountData(ctx context.Context, account solana.PublicKey, commitment string) (data []byte, found bool, err error) {
	var result AccountInfoResult
	opts := commitmentOpts(commitment)
	opts["encoding"] = "base64"

	if err := c.Call(ctx, "getAccountInfo", []any{account.String(), opts}, &result); err != nil {
		return nil, false, err
	}
	if result.Value == nil {
		return nil, false, nil
	}
	if len(result.Value.Data) == 0 {
		return []byte{}, true, nil
	}

	raw, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
	if err != nil {
		return nil, true, fmt.Errorf("invalid account data encoding: %w", err)
	}
	return raw, true, nil
}

func commitmentOpts(commitment string) map[string]any {
	if commitment == "" {
		commitment = "confirmed"
	}
	return map[string]any{"commitment": commitment}
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format %q: %w", s, err)
	}
	return v, nil
}

// isMissingAccount matches the node's "could not find account" style errors.
func isMissingAccount(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	msg := strings.ToLower(rpcErr.Message)
	return strings.Contains(msg, "could not find account") || strings.Contains(msg, "not found")
}
