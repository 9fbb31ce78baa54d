package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/rpc"
)

// ErrNoKey is returned by Connect when no signing key is configured.
var ErrNoKey = errors.New("wallet: no private key configured")

type Config struct {
	PrivateKey string // base58-encoded 64-byte key OR solana-keygen JSON array

	Commitment          string // e.g. "confirmed"
	SkipPreflight       bool
	PreflightCommitment string // e.g. "processed"
	RequireSimulation   bool
	ConfirmTimeout      time.Duration
}

// Wallet is the engine's signing identity and session. A wallet without a
// key can be created for read-only use; it never connects.
type Wallet struct {
	cfg    Config
	rpc    *rpc.Client
	priv   solana.PrivateKey
	pub    solana.PublicKey
	hasKey bool

	connected atomic.Bool
	logger    *logrus.Logger
}

func NewWallet(cfg Config, client *rpc.Client, logger *logrus.Logger) (*Wallet, error) {
	if client == nil {
		return nil, fmt.Errorf("wallet: rpc client is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}
	if cfg.PreflightCommitment == "" {
		cfg.PreflightCommitment = "processed"
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = constants.DefaultConfirmTimeout
	}

	w := &Wallet{cfg: cfg, rpc: client, logger: logger}
	if strings.TrimSpace(cfg.PrivateKey) != "" {
		priv, err := parsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		w.priv = priv
		w.pub = priv.PublicKey()
		w.hasKey = true
	}
	return w, nil
}

// Connect starts a session after checking the node can see the wallet.
func (w *Wallet) Connect(ctx context.Context) error {
	if !w.hasKey {
		return ErrNoKey
	}
	lamports, err := w.rpc.GetBalance(ctx, w.pub, w.cfg.Commitment)
	if err != nil {
		return fmt.Errorf("wallet: connect: %w", err)
	}
	w.connected.Store(true)
	w.logger.WithFields(logrus.Fields{
		"address":  w.pub.String(),
		"lamports": lamports,
	}).Info("wallet connected")
	return nil
}

// Disconnect ends the session. Signing and user reads fail until the next Connect.
func (w *Wallet) Disconnect() {
	if w.connected.Swap(false) {
		w.logger.WithField("address", w.pub.String()).Info("wallet disconnected")
	}
}

func (w *Wallet) Connected() bool { return w.connected.Load() }

// Owner is the session's public key; zero when no key is configured.
func (w *Wallet) Owner() solana.PublicKey { return w.pub }

func (w *Wallet) Address() string {
	if !w.hasKey {
		return ""
	}
	return w.pub.String()
}

func (w *Wallet) Close() error {
	w.Disconnect()
	return nil
}

// TokenBalance returns the raw balance of mint held by the wallet. Wrapped
// SOL reports the native lamport balance; a missing token account is zero.
func (w *Wallet) TokenBalance(ctx context.Context, mint farm.Mint) (uint64, error) {
	if !w.Connected() {
		return 0, farm.ErrNotConnected
	}
	if mint.Address.Equals(solana.SolMint) {
		return w.rpc.GetBalance(ctx, w.pub, w.cfg.Commitment)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(w.pub, mint.Address)
	if err != nil {
		return 0, fmt.Errorf("derive token account for %s: %w", mint.Address, err)
	}
	bal, err := w.rpc.GetTokenAccountBalance(ctx, ata, w.cfg.Commitment)
	if errors.Is(err, rpc.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("token balance %s: %w", mint.Symbol, err)
	}
	return bal, nil
}

// AccountExists checks if an account exists on-chain.
func (w *Wallet) AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error) {
	_, found, err := w.rpc.GetAccountData(ctx, pubkey, w.cfg.Commitment)
	if err != nil {
		return false, fmt.Errorf("getAccountInfo failed: %w", err)
	}
	return found, nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	var raw []byte

	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			raw[i] = byte(v)
		}
	} else {
		b, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
		}
		raw = b
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
