package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher re-reads farm state. Implemented by the farm engine.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// RefreshPoller periodically reconciles cached farm state with the chain.
type RefreshPoller struct {
	target   Refresher
	interval time.Duration
	logger   *logrus.Logger

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	lastRun  time.Time
	lastErr  error
	failures int
}

// RefreshPollerConfig holds configuration for the refresh poller
type RefreshPollerConfig struct {
	Target   Refresher
	Interval time.Duration
	Logger   *logrus.Logger
}

// Status is a point-in-time view of the poller.
type Status struct {
	Running             bool      `json:"running"`
	LastRun             time.Time `json:"last_run"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

func NewRefreshPoller(cfg RefreshPollerConfig) (*RefreshPoller, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("refresh target is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &RefreshPoller{target: cfg.Target, interval: cfg.Interval, logger: cfg.Logger}, nil
}

// Start refreshes immediately and then on every tick until ctx is done or
// Stop is called. It blocks.
func (p *RefreshPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.WithField("interval", p.interval).Info("starting refresh polling")
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop ends a running Start.
func (p *RefreshPoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// Status reports the outcome of the last poll.
func (p *RefreshPoller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := Status{Running: p.running, LastRun: p.lastRun, ConsecutiveFailures: p.failures}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

func (p *RefreshPoller) poll(ctx context.Context) {
	start := time.Now()
	err := p.target.RefreshAll(ctx)

	p.mu.Lock()
	p.lastRun = start
	p.lastErr = err
	if err != nil {
		p.failures++
	} else {
		p.failures = 0
	}
	failures := p.failures
	p.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		p.logger.WithError(err).WithField("consecutive_failures", failures).Warn("refresh failed")
		return
	}
	p.logger.WithField("duration", time.Since(start)).Debug("farms refreshed")
}
