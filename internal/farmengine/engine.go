package farmengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/cache"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/config"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmprogram"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/flags"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/rpc"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/storage"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/wallet"
)

// ErrStoreDisabled is returned by history and flag accessors when the
// backing store is not configured.
var ErrStoreDisabled = errors.New("store not configured")

// Deps are the collaborators shared by every farm's orchestrator.
type Deps struct {
	Reader    Reader
	Builder   TxBuilder
	Submitter Submitter
	Session   Session
	Balances  Balances
	Notifier  Notifier
	Recorder  Recorder
	Gate      ActionGate
	Logger    *logrus.Logger
}

// HistoryStore serves past actions of one farm.
type HistoryStore interface {
	FarmHistory(ctx context.Context, farmID string, limit int) ([]*models.FarmActionEvent, error)
}

// Engine owns one orchestrator per registered farm and the shared wallet
// session.
type Engine struct {
	registry      *farm.Registry
	orchestrators map[string]*Orchestrator
	session       Session
	logger        *logrus.Logger

	recent  storage.ActionCache
	history HistoryStore
	flags   *flags.Store
	pubsub  *cache.PubSubManager

	closeOnce sync.Once
	closers   []io.Closer
}

// NewEngine builds an orchestrator for every farm in registry.
func NewEngine(registry *farm.Registry, deps Deps) (*Engine, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, fmt.Errorf("no farms configured")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}

	e := &Engine{
		registry:      registry,
		orchestrators: make(map[string]*Orchestrator, registry.Len()),
		session:       deps.Session,
		logger:        deps.Logger,
	}
	for _, f := range registry.All() {
		o, err := NewOrchestrator(f, deps)
		if err != nil {
			return nil, err
		}
		e.orchestrators[f.ID] = o
	}
	return e, nil
}

// NewEngineFromConfig wires the engine against Solana RPC and, when
// reachable, Redis and ClickHouse. Redis and ClickHouse are optional: a
// failed connection is logged and the engine runs without them.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. Farm registry
	registry, err := farm.NewRegistry(cfg.FarmConfigPath)
	if err != nil {
		return nil, err
	}

	// 2. RPC client
	client := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	// 3. Wallet
	w, err := wallet.NewWallet(wallet.Config{
		PrivateKey:        cfg.WalletPrivateKey,
		Commitment:        cfg.Commitment,
		RequireSimulation: cfg.RequireSimulation,
		ConfirmTimeout:    cfg.ConfirmTimeout,
	}, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	// 4. Chain reader and builder
	chainReader := farmprogram.NewReader(client, w, cfg.Commitment, logger)
	builder, err := farmprogram.NewBuilder(farmprogram.BuilderConfig{
		Reader:      chainReader,
		Owner:       w,
		Accounts:    w,
		SlippageBps: cfg.SlippageBps,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Reader:    chainReader,
		Builder:   builder,
		Submitter: w,
		Session:   w,
		Balances:  w,
		Logger:    logger,
	}
	notifiers := MultiNotifier{NewLogNotifier(logger)}
	closers := []io.Closer{w}

	// 5. Redis: quote cache, recent actions, pub/sub, flags
	var (
		recent    storage.ActionCache
		publisher storage.ActionPublisher
		store     storage.ActionStore
		history   HistoryStore
		flagStore *flags.Store
		pubsub    *cache.PubSubManager
	)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr}, logger)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, running without cache")
		} else {
			closers = append(closers, rc)
			recent = rc
			deps.Reader = cache.NewCachedReader(chainReader, rc, cfg.QuoteCacheTTL, logger)

			pubsub = cache.NewPubSubManager(rc.Client(), logger)
			publisher = pubsub
			notifiers = append(notifiers, pubsub)

			if fs, err := flags.NewStore(rc.Client()); err == nil {
				flagStore = fs
				deps.Gate = fs
			}
		}
	}

	// 6. ClickHouse: action history
	if cfg.ClickHouseAddr != "" && cfg.ClickHouseDatabase != "" {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, running without history")
		} else if err := ch.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Warn("clickhouse schema setup failed, running without history")
			_ = ch.Close()
		} else {
			closers = append(closers, ch)
			store = ch
			history = ch
		}
	}

	// 7. Recorder and notifier
	if recent != nil || publisher != nil || store != nil {
		deps.Recorder = cache.NewRecorder(recent, publisher, store)
	}
	deps.Notifier = notifiers

	e, err := NewEngine(registry, deps)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}
	e.recent = recent
	e.history = history
	e.flags = flagStore
	e.pubsub = pubsub
	e.closers = closers

	logger.WithFields(logrus.Fields{
		"farms":   registry.Len(),
		"redis":   recent != nil,
		"history": history != nil,
		"wallet":  w.Address(),
	}).Info("farm engine ready")
	return e, nil
}

// Farm returns the orchestrator for id.
func (e *Engine) Farm(id string) (*Orchestrator, error) {
	o, ok := e.orchestrators[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", farm.ErrFarmNotFound, id)
	}
	return o, nil
}

// Farms returns every orchestrator ordered by farm id.
func (e *Engine) Farms() []*Orchestrator {
	out := make([]*Orchestrator, 0, len(e.orchestrators))
	for _, f := range e.registry.All() {
		out = append(out, e.orchestrators[f.ID])
	}
	return out
}

// RefreshAll refreshes every farm concurrently. Per-farm failures are joined.
func (e *Engine) RefreshAll(ctx context.Context) error {
	farms := e.Farms()
	errs := make([]error, len(farms))

	var g errgroup.Group
	g.SetLimit(8)
	for i, o := range farms {
		g.Go(func() error {
			if err := o.Refresh(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", o.Farm().ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Connected reports whether a wallet session is active.
func (e *Engine) Connected() bool {
	return e.session != nil && e.session.Connected()
}

// Owner returns the connected wallet address, or "" when disconnected.
func (e *Engine) Owner() string {
	if !e.Connected() {
		return ""
	}
	return e.session.Owner().String()
}

// Connect opens the wallet session and loads every farm including the
// user's positions.
func (e *Engine) Connect(ctx context.Context) error {
	if e.session == nil {
		return fmt.Errorf("no wallet session configured")
	}
	if err := e.session.Connect(ctx); err != nil {
		return err
	}
	e.logger.WithField("owner", e.session.Owner().String()).Info("wallet connected")
	return e.RefreshAll(ctx)
}

// Disconnect closes the session and drops cached user positions.
func (e *Engine) Disconnect() {
	if e.session != nil {
		e.session.Disconnect()
	}
	for _, o := range e.orchestrators {
		o.ClearUser()
	}
	e.logger.Info("wallet disconnected")
}

// RecentActions returns the newest actions across all farms.
func (e *Engine) RecentActions(ctx context.Context, limit int64) ([]*models.FarmActionEvent, error) {
	if e.recent == nil {
		return nil, ErrStoreDisabled
	}
	return e.recent.GetRecentActions(ctx, limit)
}

// History returns past actions of one farm, newest first.
func (e *Engine) History(ctx context.Context, farmID string, limit int) ([]*models.FarmActionEvent, error) {
	if _, err := e.Farm(farmID); err != nil {
		return nil, err
	}
	if e.history == nil {
		return nil, ErrStoreDisabled
	}
	return e.history.FarmHistory(ctx, farmID, limit)
}

// Flags returns the flag store, or nil without Redis.
func (e *Engine) Flags() *flags.Store { return e.flags }

// PubSub returns the pub/sub manager, or nil without Redis.
func (e *Engine) PubSub() *cache.PubSubManager { return e.pubsub }

// Close releases the wallet and storage connections.
func (e *Engine) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		for _, c := range e.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
