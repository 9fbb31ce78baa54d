package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

// ActionCache keeps the most recent farm actions for quick reads
type ActionCache interface {
	// AddRecentAction prepends an action to the capped recent list
	AddRecentAction(ctx context.Context, ev *models.FarmActionEvent) error

	// GetRecentActions retrieves the most recent actions, newest first
	GetRecentActions(ctx context.Context, limit int64) ([]*models.FarmActionEvent, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// QuoteCache stores pool quotes for a short time
type QuoteCache interface {
	GetQuote(ctx context.Context, farmID string) (*farm.Quote, bool, error)
	SetQuote(ctx context.Context, q *farm.Quote, ttl time.Duration) error
	DeleteQuote(ctx context.Context, farmID string) error
}

// ActionPublisher broadcasts action events and notifications
type ActionPublisher interface {
	PublishAction(ctx context.Context, ev *models.FarmActionEvent) error
	PublishNotification(ctx context.Context, n models.Notification) error
}

// ActionStore is the append-only action history
type ActionStore interface {
	// InsertAction appends an action to the history
	InsertAction(ctx context.Context, ev *models.FarmActionEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// ActionHandler processes action events from a subscription
type ActionHandler func(*models.FarmActionEvent)

// NotificationHandler processes notifications from a subscription
type NotificationHandler func(models.Notification)
