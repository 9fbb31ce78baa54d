package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
)

var errPending = errors.New("transaction not yet confirmed")

// SimulationResult contains simulation output
type SimulationResult struct {
	Logs          []string
	UnitsConsumed uint64
}

// SignTx signs a transaction with the wallet's private key
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	if !w.hasKey {
		return ErrNoKey
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// BuildTransaction creates a transaction paid by the wallet with a recent blockhash
func (w *Wallet) BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	recent, err := w.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent, solana.TransactionPayer(w.pub))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// GetLatestBlockhash fetches the most recent blockhash at the preflight commitment
func (w *Wallet) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}

	params := []any{map[string]any{"commitment": w.cfg.PreflightCommitment}}
	if err := w.rpc.Call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return solana.Hash{}, err
	}

	hash, err := solana.HashFromBase58(result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SimulateTransaction dry-runs a signed or unsigned transaction
func (w *Wallet) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	encoded, err := encodeTx(tx)
	if err != nil {
		return nil, err
	}

	var result struct {
		Value struct {
			Err           any      `json:"err"`
			Logs          []string `json:"logs"`
			UnitsConsumed uint64   `json:"unitsConsumed"`
		} `json:"value"`
	}

	params := []any{
		encoded,
		map[string]any{
			"encoding":               "base64",
			"commitment":             w.cfg.PreflightCommitment,
			"replaceRecentBlockhash": true,
			"sigVerify":              false,
		},
	}
	if err := w.rpc.Call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}

	sim := &SimulationResult{Logs: result.Value.Logs, UnitsConsumed: result.Value.UnitsConsumed}
	if result.Value.Err != nil {
		return sim, fmt.Errorf("simulation failed: %v", result.Value.Err)
	}
	return sim, nil
}

// SendTx sends a signed transaction and returns its signature
func (w *Wallet) SendTx(ctx context.Context, tx *solana.Transaction) (string, error) {
	encoded, err := encodeTx(tx)
	if err != nil {
		return "", err
	}

	params := []any{
		encoded,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       w.cfg.SkipPreflight,
			"preflightCommitment": w.cfg.PreflightCommitment,
			"maxRetries":          3,
		},
	}

	var sig string
	if err := w.rpc.Call(ctx, "sendTransaction", params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

// ConfirmTransaction polls the signature status until it reaches the
// wallet's commitment, the transaction fails or the timeout elapses.
func (w *Wallet) ConfirmTransaction(ctx context.Context, signature string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 4 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		done, err := w.checkSignatureStatus(ctx, signature)
		if err != nil {
			return struct{}{}, err
		}
		if !done {
			return struct{}{}, errPending
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(w.cfg.ConfirmTimeout),
	)
	if errors.Is(err, errPending) {
		return fmt.Errorf("transaction confirmation timeout after %v", w.cfg.ConfirmTimeout)
	}
	return err
}

// checkSignatureStatus reports whether signature reached the commitment.
// An on-chain failure is permanent.
func (w *Wallet) checkSignatureStatus(ctx context.Context, signature string) (bool, error) {
	var result struct {
		Value []*struct {
			Slot               uint64 `json:"slot"`
			Err                any    `json:"err"`
			ConfirmationStatus string `json:"confirmationStatus"`
		} `json:"value"`
	}

	params := []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	}
	if err := w.rpc.Call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return false, err
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return false, nil
	}
	status := result.Value[0]
	if status.Err != nil {
		return false, backoff.Permanent(fmt.Errorf("transaction failed: %v", status.Err))
	}
	return commitmentReached(status.ConfirmationStatus, w.cfg.Commitment), nil
}

func commitmentReached(status, want string) bool {
	switch want {
	case "finalized":
		return status == "finalized"
	case "confirmed":
		return status == "confirmed" || status == "finalized"
	default:
		return status != ""
	}
}

func encodeTx(tx *solana.Transaction) (string, error) {
	b, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
