package flags

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestPauseKey(t *testing.T) {
	assert.Equal(t, "actions.harvest.paused", PauseKey(farm.ActionHarvest))
	assert.Equal(t, "actions.remove_liquidity.paused", PauseKey(farm.ActionRemoveLiquidity))
	for _, kind := range farm.AllActions {
		assert.NoError(t, ValidateKey(PauseKey(kind)))
	}
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"simple.flag", "flag123", "a", "actions.deposit.paused"} {
		assert.NoError(t, ValidateKey(key), key)
	}
	for _, key := range []string{"", " ", "flag with spaces", "flag:with:colons", "flag\nnewline"} {
		assert.ErrorIs(t, ValidateKey(key), ErrInvalidKey, key)
	}
}

func TestActionPauses(t *testing.T) {
	assert.True(t, ActionPauses(PauseKey(farm.ActionHarvest)))
	assert.False(t, ActionPauses("actions.harvest"))
	assert.False(t, ActionPauses("simple.flag"))
}

func TestStore_UpsertGet(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	flag, err := store.Upsert(ctx, "test.flag", true)
	require.NoError(t, err)
	assert.Equal(t, "test.flag", flag.Key)
	assert.True(t, flag.Value)
	assert.NotZero(t, flag.UpdatedAt)

	got, err := store.Get(ctx, "test.flag")
	require.NoError(t, err)
	assert.Equal(t, flag.Value, got.Value)
	assert.True(t, flag.UpdatedAt.Equal(got.UpdatedAt))

	time.Sleep(time.Millisecond)
	flag2, err := store.Upsert(ctx, "test.flag", false)
	require.NoError(t, err)
	assert.True(t, flag2.UpdatedAt.After(flag.UpdatedAt))

	got, err = store.Get(ctx, "test.flag")
	require.NoError(t, err)
	assert.False(t, got.Value)
}

func TestStore_GetMissing(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)

	flag, err := store.Get(context.Background(), "nonexistent.flag")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, flag)
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upsert(ctx, "test.flag", true)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "test.flag"))

	_, err = store.Get(ctx, "test.flag")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "nonexistent.flag"))
}

func TestStore_ListSorted(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	flags, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, flags)

	for key, value := range map[string]bool{"flag3": true, "flag1": true, "flag2": false} {
		_, err := store.Upsert(ctx, key, value)
		require.NoError(t, err)
	}

	flags, err = store.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, flags, 3)
	assert.Equal(t, "flag1", flags[0].Key)
	assert.Equal(t, "flag2", flags[1].Key)
	assert.False(t, flags[1].Value)
	assert.Equal(t, "flag3", flags[2].Key)
}

func TestStore_ListMatch(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SetActionPaused(ctx, farm.ActionWithdraw, true))
	require.NoError(t, store.SetActionPaused(ctx, farm.ActionDeposit, false))
	_, err = store.Upsert(ctx, "beta.ui", true)
	require.NoError(t, err)

	paused, err := store.List(ctx, ActionPauses)
	require.NoError(t, err)
	require.Len(t, paused, 2)
	assert.Equal(t, "actions.deposit.paused", paused[0].Key)
	assert.Equal(t, "actions.withdraw.paused", paused[1].Key)

	none, err := store.List(ctx, func(string) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	const workers, ops = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				_, err := store.Upsert(ctx, fmt.Sprintf("flag.%d.%d", id, j), (id+j)%2 == 0)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	flags, err := store.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, flags, workers*ops)
}

func TestStore_ActionPaused(t *testing.T) {
	client := setupTestRedis(t)
	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	paused, err := store.ActionPaused(ctx, farm.ActionHarvest)
	require.NoError(t, err)
	assert.False(t, paused, "missing flag means not paused")

	require.NoError(t, store.SetActionPaused(ctx, farm.ActionHarvest, true))
	paused, err = store.ActionPaused(ctx, farm.ActionHarvest)
	require.NoError(t, err)
	assert.True(t, paused)

	paused, err = store.ActionPaused(ctx, farm.ActionDeposit)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, store.SetActionPaused(ctx, farm.ActionHarvest, false))
	paused, err = store.ActionPaused(ctx, farm.ActionHarvest)
	require.NoError(t, err)
	assert.False(t, paused)
}
