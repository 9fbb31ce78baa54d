package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

// RedisConfig holds connection settings for Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores recent actions and short-lived quotes in Redis
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig, logger *logrus.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}

	rc := NewRedisCacheFromClient(client, logger)
	rc.logger.WithField("addr", cfg.Addr).Info("connected to Redis")
	return rc, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// Client exposes the underlying client for flags and pub/sub
func (r *RedisCache) Client() *redis.Client { return r.client }

// AddRecentAction prepends ev and trims the list to the configured cap
func (r *RedisCache) AddRecentAction(ctx context.Context, ev *models.FarmActionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentActions, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentActions, 0, constants.MaxRecentActions-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent action: %w", err)
	}
	return nil
}

// GetRecentActions returns up to limit actions, newest first
func (r *RedisCache) GetRecentActions(ctx context.Context, limit int64) ([]*models.FarmActionEvent, error) {
	if limit <= 0 || limit > constants.MaxRecentActions {
		limit = constants.MaxRecentActions
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentActions, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent actions: %w", err)
	}

	out := make([]*models.FarmActionEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.FarmActionEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			r.logger.WithError(err).Debug("skipping malformed action entry")
			continue
		}
		out = append(out, &ev)
	}
	return out, nil
}

// SetQuote caches q for ttl
func (r *RedisCache) SetQuote(ctx context.Context, q *farm.Quote, ttl time.Duration) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	if err := r.client.Set(ctx, quoteKey(q.FarmID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set quote: %w", err)
	}
	return nil
}

// GetQuote returns the cached quote for farmID, if any
func (r *RedisCache) GetQuote(ctx context.Context, farmID string) (*farm.Quote, bool, error) {
	data, err := r.client.Get(ctx, quoteKey(farmID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get quote: %w", err)
	}

	var q farm.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, false, fmt.Errorf("unmarshal quote: %w", err)
	}
	return &q, true, nil
}

// DeleteQuote drops the cached quote for farmID
func (r *RedisCache) DeleteQuote(ctx context.Context, farmID string) error {
	if err := r.client.Del(ctx, quoteKey(farmID)).Err(); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func quoteKey(farmID string) string {
	return constants.RedisKeyQuotePrefix + farmID
}
