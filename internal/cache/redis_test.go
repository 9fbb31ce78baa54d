package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/constants"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

func setupTestRedis(t *testing.T) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return NewRedisCacheFromClient(client, nil)
}

func TestRedisCache_RecentActionsCapped(t *testing.T) {
	rc := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < constants.MaxRecentActions+5; i++ {
		require.NoError(t, rc.AddRecentAction(ctx, &models.FarmActionEvent{
			ID:      fmt.Sprintf("act_%d", i),
			FarmID:  "sol-usdc",
			Action:  "deposit",
			AmountA: decimal.RequireFromString("1.5"),
		}))
	}

	all, err := rc.GetRecentActions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, constants.MaxRecentActions)
	assert.Equal(t, fmt.Sprintf("act_%d", constants.MaxRecentActions+4), all[0].ID, "newest first")
	assert.True(t, all[0].AmountA.Equal(decimal.RequireFromString("1.5")))

	few, err := rc.GetRecentActions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)
}

func TestRedisCache_QuoteRoundTrip(t *testing.T) {
	rc := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := rc.GetQuote(ctx, "sol-usdc")
	require.NoError(t, err)
	assert.False(t, ok)

	q := &farm.Quote{FarmID: "sol-usdc", ReserveA: 1_000_000_000, ReserveB: 150_000_000, PoolSupply: 42}
	require.NoError(t, rc.SetQuote(ctx, q, time.Minute))

	got, ok, err := rc.GetQuote(ctx, "sol-usdc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, q.ReserveA, got.ReserveA)
	assert.Equal(t, q.PoolSupply, got.PoolSupply)

	require.NoError(t, rc.DeleteQuote(ctx, "sol-usdc"))
	_, ok, err = rc.GetQuote(ctx, "sol-usdc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPubSub_ActionDelivered(t *testing.T) {
	rc := setupTestRedis(t)
	ps := NewPubSubManager(rc.Client(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *models.FarmActionEvent, 1)
	go func() {
		_ = ps.SubscribeActions(ctx, FarmChannel("sol-usdc"), func(ev *models.FarmActionEvent) {
			got <- ev
		})
	}()

	// Publish until the subscriber is attached.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev := <-got:
			assert.Equal(t, "harvest", ev.Action)
			return
		case <-ticker.C:
			require.NoError(t, ps.PublishAction(ctx, &models.FarmActionEvent{FarmID: "sol-usdc", Action: "harvest"}))
		case <-ctx.Done():
			t.Fatal("no action received")
		}
	}
}

func TestIsPattern(t *testing.T) {
	assert.True(t, isPattern("farm:actions:farm:*"))
	assert.False(t, isPattern(constants.PubSubChannelActions))
}
